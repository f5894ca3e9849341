package snapshots

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wardstone/newswire/internal/clientdata"
	"github.com/wardstone/newswire/internal/config"
	"github.com/wardstone/newswire/internal/events"
)

// MacroSource fetches the latest and prior readings of one macro series.
type MacroSource interface {
	Series(ctx context.Context, seriesID string) (latest, prior float64, err error)
}

// MacroRefresher refreshes the macro indicator snapshot. Unlike the price
// refreshers it can always produce a full snapshot: live fetch, then the
// persistent cache, then the hardcoded fallback reading for the series.
type MacroRefresher struct {
	source MacroSource
	cache  *Cache
	repo   *clientdata.Repository
	bus    *events.Bus
	log    zerolog.Logger
}

func NewMacroRefresher(source MacroSource, cache *Cache, repo *clientdata.Repository, bus *events.Bus, log zerolog.Logger) *MacroRefresher {
	return &MacroRefresher{
		source: source,
		cache:  cache,
		repo:   repo,
		bus:    bus,
		log:    log.With().Str("job", "macro_refresh").Logger(),
	}
}

func (r *MacroRefresher) Name() string { return "macro_refresh" }

func (r *MacroRefresher) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	now := time.Now()
	next := make(map[string]Quote, len(config.MacroIndicators))
	results := make([]Quote, len(config.MacroIndicators))

	var g errgroup.Group
	for i, series := range config.MacroIndicators {
		i, series := i, series
		g.Go(func() error {
			results[i] = r.fetchSeries(ctx, series, now)
			return nil
		})
	}
	_ = g.Wait()

	for _, q := range results {
		next[q.Symbol] = q
	}

	r.cache.Swap(next)

	r.bus.Publish(&events.Event{
		Type:   events.MacroUpdated,
		Module: "snapshots",
		Data:   r.cache.All(),
	})

	r.log.Debug().Int("indicators", len(next)).Msg("Macro snapshot refreshed")
	return nil
}

func (r *MacroRefresher) fetchSeries(ctx context.Context, series config.MacroSeries, now time.Time) Quote {
	latest, prior, err := r.source.Series(ctx, series.SeriesID)
	if err == nil {
		change := percentChange(latest, prior)
		q := Quote{
			Symbol:    series.Symbol,
			Value:     latest,
			Change:    change,
			Direction: direction(change),
			Prior:     prior,
			FetchedAt: now,
		}
		if storeErr := r.repo.Store("macro_series", series.Symbol, q, clientdata.TTLMacroSeries); storeErr != nil {
			r.log.Warn().Err(storeErr).Str("series", series.Symbol).Msg("Failed to persist macro reading")
		}
		return q
	}

	r.log.Warn().Err(err).Str("series", series.Symbol).Msg("Macro fetch failed, trying cached data")

	if raw, cacheErr := r.repo.Get("macro_series", series.Symbol); cacheErr == nil && raw != nil {
		var q Quote
		if json.Unmarshal(raw, &q) == nil {
			return q
		}
	}

	// The hardcoded reading keeps the indicator board populated on a cold
	// start with the source down.
	change := percentChange(series.FallbackValue, series.FallbackPrior)
	return Quote{
		Symbol:    series.Symbol,
		Value:     series.FallbackValue,
		Change:    change,
		Direction: direction(change),
		Prior:     series.FallbackPrior,
		FetchedAt: now,
	}
}
