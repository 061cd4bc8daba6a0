package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/holidays"
	"github.com/fairwork-tools/holidaycheck/internal/lga"
	"github.com/fairwork-tools/holidaycheck/internal/resolve"
	"github.com/fairwork-tools/holidaycheck/internal/rules"
	"github.com/fairwork-tools/holidaycheck/pkg/geocode"
)

// pipelineEnv holds the wired lookup pipeline and its closable resources.
type pipelineEnv struct {
	Service *resolve.Service
	cache   geocode.Cache
}

// Close releases pipeline resources.
func (e *pipelineEnv) Close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			zap.L().Warn("closing geocode cache", zap.Error(err))
		}
	}
}

// initPipeline builds the full resolution pipeline from configuration:
// geocoder (with cache), boundary index, calendar source, and rule store.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Geocode.APIKey == "" {
		return nil, eris.New("geocode.api_key is required (HOLIDAYCHECK_GEOCODE_API_KEY)")
	}

	var client geocode.Client = geocode.NewGoogleClient(cfg.Geocode.APIKey,
		geocode.WithBaseURL(cfg.Geocode.BaseURL),
		geocode.WithRateLimit(cfg.Geocode.RPS),
	)

	env := &pipelineEnv{}
	switch cfg.Cache.Driver {
	case "sqlite":
		cache, err := geocode.NewSQLiteCache(cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		env.cache = cache
		client = geocode.NewCachedClient(client, cache)
	case "postgres":
		cache, err := geocode.NewPostgresCache(ctx, cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, err
		}
		env.cache = cache
		client = geocode.NewCachedClient(client, cache)
	case "none", "":
		// Uncached provider calls.
	default:
		return nil, eris.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}

	index, err := lga.Load(cfg.Boundary.ArtifactPath, cfg.Boundary.Tolerance)
	if err != nil {
		env.Close()
		return nil, err
	}

	loaded, err := rules.LoadFile(cfg.Rules.Path)
	if err != nil {
		env.Close()
		return nil, err
	}

	source := holidays.NewCached(holidays.NewNagerClient(
		holidays.WithBaseURL(cfg.Calendar.BaseURL),
	))

	env.Service = resolve.NewService(client, index, source, rules.NewStore(loaded))
	return env, nil
}
