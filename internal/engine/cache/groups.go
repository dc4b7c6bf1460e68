package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/rshade/apreboot/internal/logging"
)

// GroupNames caches the group ID to group name mapping for one tenant.
type GroupNames struct {
	store *FileStore
	key   string
}

// NewGroupNames returns a group-name cache for the given tenant and region.
func NewGroupNames(store *FileStore, tenantID, region string) *GroupNames {
	return &GroupNames{store: store, key: Key("venues", tenantID, region)}
}

// Load returns the cached mapping if one exists and has not expired.
func (g *GroupNames) Load(ctx context.Context) (map[string]string, bool) {
	log := logging.FromContext(ctx)

	entry, err := g.store.Get(g.key)
	if err != nil {
		level := zerolog.DebugLevel
		if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheExpired) &&
			!errors.Is(err, ErrCacheDisabled) {
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).Ctx(ctx).Err(err).Str("component", "cache").Msg("group name cache miss")
		return nil, false
	}

	var names map[string]string
	if unmarshalErr := json.Unmarshal(entry.Data, &names); unmarshalErr != nil {
		log.Warn().Ctx(ctx).Err(unmarshalErr).Str("component", "cache").Msg("discarding unreadable group name cache")
		return nil, false
	}

	log.Debug().Ctx(ctx).
		Str("component", "cache").
		Int("groups", len(names)).
		Str("age", FormatDuration(entry.AgeAt(g.store.Now()))).
		Msg("loaded cached group names")
	return names, true
}

// Store saves the mapping. Failures are logged, never returned.
func (g *GroupNames) Store(ctx context.Context, names map[string]string) {
	if !g.store.IsEnabled() || len(names) == 0 {
		return
	}

	data, err := json.Marshal(names)
	if err == nil {
		err = g.store.Set(g.key, data)
	}
	if err != nil {
		logging.FromContext(ctx).Warn().Ctx(ctx).Err(err).Str("component", "cache").Msg("failed to cache group names")
	}
}
