package cli

import (
	"context"
	"fmt"

	"github.com/rshade/apreboot/internal/engine/cache"
	"github.com/rshade/apreboot/internal/inventory"
	"github.com/rshade/apreboot/internal/logging"
	"github.com/rshade/apreboot/internal/ruckus"
)

// newClient validates the configuration and builds the API client.
func (a *app) newClient(ctx context.Context) (*ruckus.Client, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, exitError(ExitConfigError, fmt.Errorf("invalid configuration: %w", err))
	}

	baseURL := a.cfg.BaseURL()
	if a.opts.baseURL != "" {
		baseURL = a.opts.baseURL
	}

	log := logging.ComponentLogger(*logging.FromContext(ctx), "ruckus")
	log.Info().Ctx(ctx).
		Str("region", a.cfg.Credentials.Region).
		Str("base_url", baseURL).
		Msg("initializing RUCKUS One client")

	opts := []ruckus.Option{ruckus.WithLogger(log)}
	if a.opts.httpClient != nil {
		opts = append(opts, ruckus.WithHTTPClient(a.opts.httpClient))
	}
	creds := ruckus.Credentials{
		ClientID:     a.cfg.Credentials.ClientID,
		ClientSecret: a.cfg.Credentials.ClientSecret,
		TenantID:     a.cfg.Credentials.TenantID,
	}
	return ruckus.NewClient(baseURL, creds, opts...), nil
}

// groupNameCache returns the venue-name cache, or nil when caching is off or
// the cache directory cannot be used.
func (a *app) groupNameCache(ctx context.Context) inventory.GroupCache {
	if !a.cfg.Cache.Enabled {
		return nil
	}
	store, err := cache.NewFileStore(a.cfg.Cache.Directory, true, a.cfg.Cache.TTLSeconds)
	if err != nil {
		logger.Warn().Ctx(ctx).Err(err).Msg("venue name cache disabled")
		return nil
	}
	if removed, cleanErr := store.CleanupExpired(); cleanErr == nil && removed > 0 {
		logger.Debug().Ctx(ctx).Int("removed", removed).Msg("removed expired cache entries")
	}
	return cache.NewGroupNames(store, a.cfg.Credentials.TenantID, a.cfg.Credentials.Region)
}
