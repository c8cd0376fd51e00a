// Package presets serves the selectable area catalogs: regional nature
// parks, regions and departements. Catalogs come from heavy country-wide
// Overpass queries, so results are cached and stale data is preferred over
// no data when the upstream misbehaves.
package presets

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/randoscope/randoscope/internal/cachestore"
	"github.com/randoscope/randoscope/internal/types"
)

// Cache keys are versioned so a payload shape change invalidates old
// entries by key, not by migration.
const (
	parksCacheKey   = "pnr_cache_v1"
	regionsCacheKey = "regions_cache_v1"
	deptsCacheKey   = "depts_cache_v1"
)

// Park membership changes rarely but the list is cheap; administrative
// boundaries basically never change.
const (
	parksTTL = 24 * time.Hour
	adminTTL = 30 * 24 * time.Hour
)

// AdminFetcher is the upstream catalog source, implemented by
// datasource.AdminClient.
type AdminFetcher interface {
	FetchParks(ctx context.Context) ([]types.Preset, error)
	FetchRegions(ctx context.Context) ([]types.Preset, error)
	FetchDepartements(ctx context.Context) ([]types.Preset, error)
}

// Catalog is a read-through cached view of the admin catalogs.
type Catalog struct {
	fetcher AdminFetcher
	cache   *cachestore.Store
	logger  *slog.Logger
}

// NewCatalog creates a catalog over the given fetcher and cache store.
func NewCatalog(fetcher AdminFetcher, cache *cachestore.Store, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{fetcher: fetcher, cache: cache, logger: logger}
}

// Parks returns the regional nature parks, name-sorted.
func (c *Catalog) Parks(ctx context.Context) ([]types.Preset, error) {
	return c.load(ctx, parksCacheKey, parksTTL, c.fetcher.FetchParks)
}

// Regions returns the metropolitan regions, name-sorted.
func (c *Catalog) Regions(ctx context.Context) ([]types.Preset, error) {
	return c.load(ctx, regionsCacheKey, adminTTL, c.fetcher.FetchRegions)
}

// Departements returns the metropolitan departements, name-sorted.
func (c *Catalog) Departements(ctx context.Context) ([]types.Preset, error) {
	return c.load(ctx, deptsCacheKey, adminTTL, c.fetcher.FetchDepartements)
}

// load reads through the cache: fresh cache hit, else upstream fetch, else
// stale cache of any age. The empty list is returned only when the fetch
// fails and no payload was ever cached; catalog consumers degrade to an
// empty picker rather than an error page.
func (c *Catalog) load(ctx context.Context, key string, ttl time.Duration, fetch func(context.Context) ([]types.Preset, error)) ([]types.Preset, error) {
	if presets, ok := c.cached(key, ttl); ok {
		c.logger.Debug("catalog served from cache", "key", key, "count", len(presets))
		return presets, nil
	}

	presets, err := fetch(ctx)
	if err != nil {
		if stale, ok := c.staleCached(key); ok {
			c.logger.Warn("catalog fetch failed, serving stale cache",
				"key", key, "count", len(stale), "error", err)
			return stale, nil
		}
		c.logger.Error("catalog fetch failed with no cache to fall back on",
			"key", key, "error", err)
		return []types.Preset{}, nil
	}

	if payload, err := json.Marshal(presets); err == nil {
		if err := c.cache.Put(key, payload); err != nil {
			c.logger.Warn("catalog cache write failed", "key", key, "error", err)
		}
	}

	return presets, nil
}

func (c *Catalog) cached(key string, ttl time.Duration) ([]types.Preset, bool) {
	payload, ok, err := c.cache.Get(key, ttl)
	if err != nil {
		c.logger.Warn("catalog cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return decodePresets(c.logger, key, payload)
}

func (c *Catalog) staleCached(key string) ([]types.Preset, bool) {
	payload, ok, err := c.cache.GetStale(key)
	if err != nil || !ok {
		return nil, false
	}
	return decodePresets(c.logger, key, payload)
}

// decodePresets treats an undecodable payload as a miss; the entry will be
// overwritten by the next successful fetch.
func decodePresets(logger *slog.Logger, key string, payload []byte) ([]types.Preset, bool) {
	var presets []types.Preset
	if err := json.Unmarshal(payload, &presets); err != nil {
		logger.Warn("catalog cache entry undecodable, treating as miss", "key", key, "error", err)
		return nil, false
	}
	return presets, true
}
