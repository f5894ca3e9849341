package snapshots

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wardstone/newswire/internal/clientdata"
	"github.com/wardstone/newswire/internal/config"
	"github.com/wardstone/newswire/internal/events"
)

const refreshTimeout = 30 * time.Second

// QuoteSource fetches the current value and previous close for one
// source-side instrument code.
type QuoteSource interface {
	Quote(ctx context.Context, code string) (current, previous float64, err error)
}

// QuoteRefresher polls one instrument watchlist and swaps the results into
// its domain cache. Failed instruments fall back to the persistent cache;
// failing that, the previous in-memory value survives the swap. Market, FX
// and commodity refreshes are the same job with different watchlists.
type QuoteRefresher struct {
	name        string
	instruments []config.Instrument
	source      QuoteSource
	cache       *Cache
	history     *History
	repo        *clientdata.Repository
	table       string
	ttl         time.Duration
	eventType   events.EventType
	bus         *events.Bus
	log         zerolog.Logger
}

func NewMarketRefresher(source QuoteSource, cache *Cache, history *History, repo *clientdata.Repository, bus *events.Bus, log zerolog.Logger) *QuoteRefresher {
	return newQuoteRefresher("market_refresh", config.MarketInstruments, source, cache, history, repo,
		"market_quotes", clientdata.TTLMarketQuote, events.MarketUpdated, bus, log)
}

func NewFXRefresher(source QuoteSource, cache *Cache, history *History, repo *clientdata.Repository, bus *events.Bus, log zerolog.Logger) *QuoteRefresher {
	return newQuoteRefresher("fx_refresh", config.FXInstruments, source, cache, history, repo,
		"fx_rates", clientdata.TTLFXRate, events.FXUpdated, bus, log)
}

func NewCommodityRefresher(source QuoteSource, cache *Cache, history *History, repo *clientdata.Repository, bus *events.Bus, log zerolog.Logger) *QuoteRefresher {
	return newQuoteRefresher("commodity_refresh", config.CommodityInstruments, source, cache, history, repo,
		"commodity_quotes", clientdata.TTLCommodityQuote, events.CommodityUpdated, bus, log)
}

func newQuoteRefresher(name string, instruments []config.Instrument, source QuoteSource, cache *Cache, history *History, repo *clientdata.Repository, table string, ttl time.Duration, eventType events.EventType, bus *events.Bus, log zerolog.Logger) *QuoteRefresher {
	return &QuoteRefresher{
		name:        name,
		instruments: instruments,
		source:      source,
		cache:       cache,
		history:     history,
		repo:        repo,
		table:       table,
		ttl:         ttl,
		eventType:   eventType,
		bus:         bus,
		log:         log.With().Str("job", name).Logger(),
	}
}

func (r *QuoteRefresher) Name() string { return r.name }

func (r *QuoteRefresher) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	now := time.Now()
	next := make(map[string]Quote, len(r.instruments))
	var mu sync.Mutex

	var g errgroup.Group
	for _, inst := range r.instruments {
		inst := inst
		g.Go(func() error {
			q, fresh := r.fetchOne(ctx, inst, now)
			if q == nil {
				return nil
			}
			mu.Lock()
			next[inst.Symbol] = *q
			mu.Unlock()
			if fresh {
				if err := r.repo.Store(r.table, inst.Symbol, q, r.ttl); err != nil {
					r.log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("Failed to persist quote")
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	// Instruments that produced nothing this cycle keep their previous value.
	for symbol, q := range r.cache.All() {
		if _, ok := next[symbol]; !ok {
			next[symbol] = q
		}
	}

	if len(next) == 0 {
		return fmt.Errorf("%s: no data from source or cache", r.name)
	}

	r.cache.Swap(next)
	for _, q := range next {
		if q.FetchedAt.Equal(now) {
			r.history.Push(q.Symbol, q.Value)
		}
	}

	r.bus.Publish(&events.Event{
		Type:   r.eventType,
		Module: "snapshots",
		Data:   r.cache.All(),
	})

	r.log.Debug().Int("instruments", len(next)).Msg("Snapshot refreshed")
	return nil
}

// fetchOne resolves one instrument: live fetch first, then the persistent
// cache (stale included). The second return reports whether the value came
// from a live fetch.
func (r *QuoteRefresher) fetchOne(ctx context.Context, inst config.Instrument, now time.Time) (*Quote, bool) {
	current, previous, err := r.source.Quote(ctx, inst.Code)
	if err == nil {
		change := percentChange(current, previous)
		return &Quote{
			Symbol:    inst.Symbol,
			Value:     current,
			Change:    change,
			Direction: direction(change),
			FetchedAt: now,
		}, true
	}

	r.log.Warn().Err(err).Str("symbol", inst.Symbol).Msg("Fetch failed, trying cached data")

	raw, cacheErr := r.repo.Get(r.table, inst.Symbol)
	if cacheErr != nil || raw == nil {
		return nil, false
	}
	var q Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		return nil, false
	}
	return &q, false
}
