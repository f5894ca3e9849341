package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardstone/newswire/internal/broadcast"
	"github.com/wardstone/newswire/internal/config"
	"github.com/wardstone/newswire/internal/events"
	"github.com/wardstone/newswire/internal/news"
	"github.com/wardstone/newswire/internal/poller"
	"github.com/wardstone/newswire/internal/snapshots"
)

func newTestServer(t *testing.T) (*Server, *news.CardStore) {
	t.Helper()

	bus := events.NewBus(zerolog.Nop())
	store := news.NewCardStore(50)
	market := snapshots.NewCache()
	macroCache := snapshots.NewCache()
	fx := snapshots.NewCache()
	commodity := snapshots.NewCache()
	predictionCache := snapshots.NewPredictionCache()

	market.Swap(map[string]snapshots.Quote{"SPX": {Symbol: "SPX", Value: 4500, Change: 0.3}})

	hub := broadcast.NewHub(store, market, macroCache, fx, commodity, predictionCache, bus, zerolog.Nop())

	srv := New(Config{
		Log:         zerolog.Nop(),
		Cfg:         &config.Config{Port: 0},
		Hub:         hub,
		Bus:         bus,
		Ledger:      news.NewLedger(100),
		Store:       store,
		Market:      market,
		Macro:       macroCache,
		FX:          fx,
		Commodity:   commodity,
		Predictions: predictionCache,
		Pools:       []*poller.Pool{},
	})

	return srv, store
}

func doRequest(srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestSnapshotsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/api/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Market map[string]snapshots.Quote `json:"market"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4500.0, resp.Market["SPX"].Value)
}

func TestSubmitManualCard(t *testing.T) {
	srv, store := newTestServer(t)

	body, _ := json.Marshal(map[string]interface{}{
		"headline": "Treasury auction sees weak demand",
		"column":   "macro",
		"impact":   2,
	})

	rec := doRequest(srv, http.MethodPost, "/api/cards", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var card news.Card
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.NotEmpty(t, card.ID)
	assert.False(t, card.Verified)
	assert.Equal(t, "macro", card.Column)
	assert.Equal(t, 2, card.Impact)

	// The card went through the hub into the replay history
	require.Equal(t, 1, store.Len())
	assert.Equal(t, card.ID, store.Snapshot()[0].ID)
}

func TestSubmitManualCardValidation(t *testing.T) {
	srv, store := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/cards", []byte(`{"headline":"  "}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/api/cards", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 0, store.Len())
}

func TestSubmitManualCardDefaults(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/cards", []byte(`{"headline":"Flash: index halted"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	var card news.Card
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &card))
	assert.Equal(t, news.ColumnBreaking, card.Column)
	assert.Equal(t, "manual", card.Source)
}

func TestManualCardBypassesDedup(t *testing.T) {
	srv, store := newTestServer(t)

	body := []byte(`{"headline":"Same headline twice"}`)
	require.Equal(t, http.StatusCreated, doRequest(srv, http.MethodPost, "/api/cards", body).Code)
	require.Equal(t, http.StatusCreated, doRequest(srv, http.MethodPost, "/api/cards", body).Code)

	assert.Equal(t, 2, store.Len())
}

func TestAnalysisDisabledWithoutKey(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/analysis", []byte(`{"headline":"Fed hikes"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestListCards(t *testing.T) {
	srv, store := newTestServer(t)

	store.Append(news.Card{ID: "a"})
	store.Append(news.Card{ID: "b"})

	rec := doRequest(srv, http.MethodGet, "/api/cards", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Cards []news.Card `json:"cards"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Cards, 2)
	assert.Equal(t, "a", resp.Cards[0].ID)
}
