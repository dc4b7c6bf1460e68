package inventory

import (
	"context"

	"github.com/rshade/apreboot/internal/logging"
)

// Status snapshot limits.
const (
	StatusPageSize = 1000
	StatusPageCap  = 10
)

// StatusCache maps record identity (serial) to its live status.
type StatusCache struct {
	statuses map[string]string
}

// Lookup returns the live status for identity.
func (c StatusCache) Lookup(identity string) (string, bool) {
	status, ok := c.statuses[identity]
	return status, ok
}

// Len returns the number of cached statuses.
func (c StatusCache) Len() int {
	return len(c.statuses)
}

// BuildStatusCache takes a snapshot of live statuses. It is best-effort: any
// page failure discards everything fetched and yields an empty cache. Paging
// stops on a short page, at the reported page count or at pageCap; records
// past the cap are simply absent.
func BuildStatusCache(ctx context.Context, lister RecordLister, pageSize, pageCap int) StatusCache {
	log := logging.ComponentLogger(*logging.FromContext(ctx), "inventory")
	if pageSize <= 0 {
		pageSize = StatusPageSize
	}
	if pageCap <= 0 {
		pageCap = StatusPageCap
	}

	statuses := make(map[string]string)
	for page := 0; page < pageCap; page++ {
		resp, err := lister.ListRecords(ctx, PageRequest{
			PageSize:  pageSize,
			Page:      page,
			SortOrder: SortAscending,
		})
		if err != nil {
			log.Warn().Ctx(ctx).Err(err).Int("page", page).
				Msg("could not fetch live statuses, using statuses from the task list")
			return StatusCache{}
		}

		for _, rec := range resp.Records {
			if rec.Serial != "" {
				statuses[rec.Serial] = rec.Status
			}
		}

		meta := NewPageMeta(page, pageSize, resp.TotalElements, resp.TotalPages, len(resp.Records))
		if !meta.HasNext {
			break
		}
	}

	log.Info().Ctx(ctx).Int("statuses", len(statuses)).Msg("cached live statuses")
	return StatusCache{statuses: statuses}
}
