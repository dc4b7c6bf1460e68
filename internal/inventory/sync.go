package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/rshade/apreboot/internal/logging"
)

// Pagination limits used by Sync.
const (
	DefaultPageSize         = 100
	DefaultPageCeiling      = 100
	DefaultGroupPageCeiling = 10
)

// Where group names came from during a sync.
const (
	GroupNamesLive  = "live"
	GroupNamesCache = "cache"
	GroupNamesNone  = "none"
)

// ErrInventoryUnavailable is returned when not a single record page could be
// fetched.
var ErrInventoryUnavailable = errors.New("inventory unavailable")

// Result is the outcome of a full inventory sync.
type Result struct {
	Records       []Record
	Pages         int
	TotalElements int

	// PageErrors collects the error of every page that was skipped.
	PageErrors *multierror.Error

	// Interrupted is set when the context was cancelled before the last page.
	Interrupted bool

	// GroupNames is GroupNamesLive, GroupNamesCache or GroupNamesNone.
	GroupNames string
}

// FailedPages returns the number of skipped pages.
func (r Result) FailedPages() int {
	if r.PageErrors == nil {
		return 0
	}
	return len(r.PageErrors.Errors)
}

// Sync pages through the inventory and resolves group names.
type Sync struct {
	records          RecordLister
	groups           GroupLister
	cache            GroupCache
	pageSize         int
	pageCeiling      int
	groupPageCeiling int
}

// SyncOption customizes a Sync.
type SyncOption func(*Sync)

// WithPageSize sets the record and group page size.
func WithPageSize(n int) SyncOption {
	return func(s *Sync) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPageCeiling sets the maximum number of record pages requested.
func WithPageCeiling(n int) SyncOption {
	return func(s *Sync) {
		if n > 0 {
			s.pageCeiling = n
		}
	}
}

// WithGroupCache enables the cached fallback for group names.
func WithGroupCache(c GroupCache) SyncOption {
	return func(s *Sync) {
		s.cache = c
	}
}

// NewSync returns a Sync reading records and groups from the given listers.
// groups may be nil, in which case every record gets UnknownGroupName.
func NewSync(records RecordLister, groups GroupLister, opts ...SyncOption) *Sync {
	s := &Sync{
		records:          records,
		groups:           groups,
		pageSize:         DefaultPageSize,
		pageCeiling:      DefaultPageCeiling,
		groupPageCeiling: DefaultGroupPageCeiling,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchGroupNames pages through all groups and returns ID to name. On error
// the names collected before the failure are returned with it.
func (s *Sync) FetchGroupNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	if s.groups == nil {
		return names, nil
	}

	for page := 0; page < s.groupPageCeiling; page++ {
		resp, err := s.groups.ListGroups(ctx, PageRequest{
			PageSize:  s.pageSize,
			Page:      page,
			SortOrder: SortAscending,
		})
		if err != nil {
			return names, fmt.Errorf("fetching group page %d: %w", page, err)
		}

		for _, g := range resp.Groups {
			if g.ID == "" {
				continue
			}
			name := g.Name
			if name == "" {
				name = UnknownGroupName
			}
			names[g.ID] = name
		}

		meta := NewPageMeta(page, s.pageSize, resp.TotalElements, resp.TotalPages, len(resp.Groups))
		if !meta.HasNext {
			break
		}
	}
	return names, nil
}

// resolveGroupNames fetches group names, falling back to the cache and then
// to whatever partial mapping was fetched.
func (s *Sync) resolveGroupNames(ctx context.Context, log zerolog.Logger) (map[string]string, string) {
	names, err := s.FetchGroupNames(ctx)
	if err == nil {
		log.Info().Ctx(ctx).Int("groups", len(names)).Msg("fetched group names")
		if s.cache != nil {
			s.cache.Store(ctx, names)
		}
		return names, GroupNamesLive
	}

	log.Error().Ctx(ctx).Err(err).Msg("failed to fetch group names")
	if s.cache != nil {
		if cached, ok := s.cache.Load(ctx); ok {
			log.Warn().Ctx(ctx).Int("groups", len(cached)).Msg("using cached group names")
			return cached, GroupNamesCache
		}
	}
	log.Warn().Ctx(ctx).Msgf("group names unavailable, records will show %q", UnknownGroupName)
	return names, GroupNamesNone
}

// FetchAll resolves group names and then requests record pages in order
// until a page returns fewer than pageSize records, the reported total has
// been fetched, or the page ceiling is reached. A failed page is skipped and recorded in Result.PageErrors. If the
// context is cancelled the records fetched so far are returned with
// Result.Interrupted set.
func (s *Sync) FetchAll(ctx context.Context) (Result, error) {
	log := logging.ComponentLogger(*logging.FromContext(ctx), "inventory")

	names, source := s.resolveGroupNames(ctx, log)
	result := Result{GroupNames: source}

	log.Info().Ctx(ctx).Int("page_size", s.pageSize).Msg("fetching inventory")

	exhausted := false
	for page := 0; page < s.pageCeiling; page++ {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		resp, err := s.records.ListRecords(ctx, PageRequest{
			PageSize:  s.pageSize,
			Page:      page,
			SortOrder: SortAscending,
		})
		result.Pages++
		if err != nil {
			if ctx.Err() != nil {
				result.Interrupted = true
				break
			}
			log.Error().Ctx(ctx).Err(err).Int("page", page).Msg("skipping failed inventory page")
			result.PageErrors = multierror.Append(result.PageErrors, fmt.Errorf("page %d: %w", page, err))
			continue
		}

		for _, rec := range resp.Records {
			rec.VenueName = groupName(names, rec.VenueID)
			result.Records = append(result.Records, rec)
		}

		if result.TotalElements == 0 && resp.TotalElements > 0 {
			result.TotalElements = resp.TotalElements
			log.Info().Ctx(ctx).Int("total_elements", resp.TotalElements).Msg("inventory size reported")
		}

		meta := NewPageMeta(page, s.pageSize, result.TotalElements, resp.TotalPages, len(resp.Records))
		log.Info().Ctx(ctx).
			Str("page", meta.Label()).
			Int("received", len(resp.Records)).
			Int("total_so_far", len(result.Records)).
			Msg("fetched inventory page")

		if !meta.HasNext || (result.TotalElements > 0 && len(result.Records) >= result.TotalElements) {
			exhausted = true
			break
		}
	}

	switch {
	case result.Interrupted:
		log.Warn().Ctx(ctx).Int("records", len(result.Records)).Msg("inventory fetch interrupted")
	case !exhausted:
		log.Warn().Ctx(ctx).Int("page_ceiling", s.pageCeiling).Msg("stopped at page ceiling")
	}

	if !result.Interrupted && result.FailedPages() == result.Pages && result.Pages > 0 {
		return result, fmt.Errorf("%w: %w", ErrInventoryUnavailable, result.PageErrors)
	}

	log.Info().Ctx(ctx).
		Int("records", len(result.Records)).
		Int("pages", result.Pages).
		Int("failed_pages", result.FailedPages()).
		Msg("inventory fetch complete")
	return result, nil
}

func groupName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return UnknownGroupName
}
