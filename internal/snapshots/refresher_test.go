package snapshots

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardstone/newswire/internal/clientdata"
	"github.com/wardstone/newswire/internal/config"
	"github.com/wardstone/newswire/internal/events"
)

func setupTestRepo(t *testing.T) *clientdata.Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema := []string{
		`CREATE TABLE market_quotes (symbol TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL)`,
		`CREATE TABLE macro_series (series TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL)`,
		`CREATE TABLE fx_rates (pair TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL)`,
		`CREATE TABLE commodity_quotes (symbol TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL)`,
		`CREATE TABLE prediction_markets (market_id TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL)`,
	}
	for _, stmt := range schema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	return clientdata.NewRepository(db)
}

type fakeQuoteSource struct {
	quotes map[string][2]float64 // code -> current, previous
	fail   bool
}

func (f *fakeQuoteSource) Quote(ctx context.Context, code string) (float64, float64, error) {
	if f.fail {
		return 0, 0, fmt.Errorf("source unavailable")
	}
	q, ok := f.quotes[code]
	if !ok {
		return 0, 0, fmt.Errorf("unknown instrument %s", code)
	}
	return q[0], q[1], nil
}

func TestQuoteRefresherPopulatesCache(t *testing.T) {
	repo := setupTestRepo(t)
	bus := events.NewBus(zerolog.Nop())
	cache := NewCache()
	history := NewHistory(10)

	source := &fakeQuoteSource{quotes: map[string][2]float64{
		"^GSPC": {4500, 4480},
		"^NDX":  {19800, 19900},
	}}

	var published []events.EventType
	bus.Subscribe(events.MarketUpdated, func(e *events.Event) {
		published = append(published, e.Type)
	})

	r := NewMarketRefresher(source, cache, history, repo, bus, zerolog.Nop())
	require.NoError(t, r.Run())

	spx, ok := cache.Get("SPX")
	require.True(t, ok)
	assert.Equal(t, 4500.0, spx.Value)
	assert.InDelta(t, 0.446, spx.Change, 0.01)
	assert.Equal(t, "up", spx.Direction)

	ndx, ok := cache.Get("NDX")
	require.True(t, ok)
	assert.Equal(t, "down", ndx.Direction)

	assert.Len(t, published, 1)
	assert.Equal(t, 1, history.Len("SPX"))

	// Successful fetch was persisted
	raw, err := repo.GetIfFresh("market_quotes", "SPX")
	require.NoError(t, err)
	assert.NotNil(t, raw)
}

func TestQuoteRefresherKeepsStaleValuesOnFailure(t *testing.T) {
	repo := setupTestRepo(t)
	bus := events.NewBus(zerolog.Nop())
	cache := NewCache()
	history := NewHistory(10)

	source := &fakeQuoteSource{quotes: map[string][2]float64{
		"^GSPC": {4500, 4480},
	}}

	r := NewMarketRefresher(source, cache, history, repo, bus, zerolog.Nop())
	require.NoError(t, r.Run())
	firstUpdate := cache.UpdatedAt()

	// Source goes down entirely; the previous snapshot survives the swap.
	source.fail = true
	require.NoError(t, r.Run())

	spx, ok := cache.Get("SPX")
	require.True(t, ok)
	assert.Equal(t, 4500.0, spx.Value)
	assert.True(t, cache.UpdatedAt().After(firstUpdate) || cache.UpdatedAt().Equal(firstUpdate))

	// No new history observation for a non-live value
	assert.Equal(t, 1, history.Len("SPX"))
}

func TestQuoteRefresherFallsBackToPersistentCache(t *testing.T) {
	repo := setupTestRepo(t)
	bus := events.NewBus(zerolog.Nop())

	// First process instance fetched and persisted
	warmCache := NewCache()
	source := &fakeQuoteSource{quotes: map[string][2]float64{
		"^GSPC": {4500, 4480},
	}}
	r := NewMarketRefresher(source, warmCache, NewHistory(10), repo, bus, zerolog.Nop())
	require.NoError(t, r.Run())

	// Second instance cold-starts with the source down: the persisted
	// value seeds the in-memory snapshot.
	coldCache := NewCache()
	source.fail = true
	r2 := NewMarketRefresher(source, coldCache, NewHistory(10), repo, bus, zerolog.Nop())
	require.NoError(t, r2.Run())

	spx, ok := coldCache.Get("SPX")
	require.True(t, ok)
	assert.Equal(t, 4500.0, spx.Value)
}

type fakeMacroSource struct {
	fail bool
}

func (f *fakeMacroSource) Series(ctx context.Context, seriesID string) (float64, float64, error) {
	if f.fail {
		return 0, 0, fmt.Errorf("source unavailable")
	}
	return 3.1, 3.3, nil
}

func TestMacroRefresherUsesFallbackReadings(t *testing.T) {
	repo := setupTestRepo(t)
	bus := events.NewBus(zerolog.Nop())
	cache := NewCache()

	r := NewMacroRefresher(&fakeMacroSource{fail: true}, cache, repo, bus, zerolog.Nop())
	require.NoError(t, r.Run())

	// Every configured indicator is present despite the outage
	assert.Equal(t, len(config.MacroIndicators), cache.Len())

	cpi, ok := cache.Get("CPI_YOY")
	require.True(t, ok)
	assert.Equal(t, 3.2, cpi.Value)
	assert.Equal(t, 3.4, cpi.Prior)
}

func TestMacroRefresherPrefersLiveData(t *testing.T) {
	repo := setupTestRepo(t)
	bus := events.NewBus(zerolog.Nop())
	cache := NewCache()

	r := NewMacroRefresher(&fakeMacroSource{}, cache, repo, bus, zerolog.Nop())
	require.NoError(t, r.Run())

	cpi, ok := cache.Get("CPI_YOY")
	require.True(t, ok)
	assert.Equal(t, 3.1, cpi.Value)
	assert.Equal(t, 3.3, cpi.Prior)
	assert.Equal(t, "down", cpi.Direction)
}

type fakePredictionSource struct {
	markets []PredictionMarket
	fail    bool
}

func (f *fakePredictionSource) Markets(ctx context.Context) ([]PredictionMarket, error) {
	if f.fail {
		return nil, fmt.Errorf("source unavailable")
	}
	return f.markets, nil
}

func TestPredictionRefresherFiltersAndRanks(t *testing.T) {
	repo := setupTestRepo(t)
	bus := events.NewBus(zerolog.Nop())
	cache := NewPredictionCache()

	var markets []PredictionMarket
	for i := 0; i < 10; i++ {
		markets = append(markets, PredictionMarket{
			ID:        fmt.Sprintf("fed-%d", i),
			Question:  fmt.Sprintf("Will the Fed cut rates at meeting %d?", i),
			YesPrice:  0.4,
			Volume24h: float64(i * 1000),
		})
	}
	markets = append(markets,
		PredictionMarket{ID: "sports-1", Question: "Will the home team win the final?", Volume24h: 9999999},
		PredictionMarket{ID: "weather-1", Question: "Will it rain tomorrow?", Volume24h: 8888888},
	)

	r := NewPredictionRefresher(&fakePredictionSource{markets: markets}, cache, repo, bus, zerolog.Nop())
	require.NoError(t, r.Run())

	kept := cache.All()
	require.Len(t, kept, config.PredictionTopN)

	// Ranked by volume, irrelevant questions excluded
	assert.Equal(t, "fed-9", kept[0].ID)
	for _, m := range kept {
		assert.NotContains(t, []string{"sports-1", "weather-1"}, m.ID)
	}
}

func TestPredictionRefresherKeepsSnapshotOnFailure(t *testing.T) {
	repo := setupTestRepo(t)
	bus := events.NewBus(zerolog.Nop())
	cache := NewPredictionCache()

	source := &fakePredictionSource{markets: []PredictionMarket{
		{ID: "fed-1", Question: "Will the Fed cut rates?", Volume24h: 1000},
	}}

	r := NewPredictionRefresher(source, cache, repo, bus, zerolog.Nop())
	require.NoError(t, r.Run())
	require.Len(t, cache.All(), 1)

	source.fail = true
	assert.Error(t, r.Run())
	assert.Len(t, cache.All(), 1)
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Push("SPX", float64(i))
	}

	closes := h.Closes("SPX")
	require.Len(t, closes, 3)
	assert.Equal(t, []float64{2, 3, 4}, closes)
}

func TestViewSearchesCachesInOrder(t *testing.T) {
	market := NewCache()
	commodity := NewCache()
	market.Swap(map[string]Quote{"SPX": {Symbol: "SPX", Value: 4500, Change: 0.5}})
	commodity.Swap(map[string]Quote{"GOLD": {Symbol: "GOLD", Value: 2400, Change: -0.2}})

	view := NewView(NewHistory(10), market, commodity)

	value, change, ok := view.Quote("GOLD")
	require.True(t, ok)
	assert.Equal(t, 2400.0, value)
	assert.Equal(t, -0.2, change)

	_, _, ok = view.Quote("MISSING")
	assert.False(t, ok)
}

func TestCacheSwapIsWholesale(t *testing.T) {
	cache := NewCache()
	cache.Swap(map[string]Quote{
		"SPX": {Symbol: "SPX", Value: 4500},
		"NDX": {Symbol: "NDX", Value: 19800},
	})

	cache.Swap(map[string]Quote{"SPX": {Symbol: "SPX", Value: 4510}})

	_, ok := cache.Get("NDX")
	assert.False(t, ok)

	spx, ok := cache.Get("SPX")
	require.True(t, ok)
	assert.Equal(t, 4510.0, spx.Value)

	// All returns a copy
	all := cache.All()
	all["SPX"] = Quote{Symbol: "SPX", Value: 0}
	spx, _ = cache.Get("SPX")
	assert.Equal(t, 4510.0, spx.Value)

	assert.Equal(t, 1, cache.Len())
	assert.False(t, cache.UpdatedAt().IsZero())

	d := time.Since(cache.UpdatedAt())
	assert.Less(t, d, time.Minute)
}
