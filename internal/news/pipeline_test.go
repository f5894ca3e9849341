package news

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardstone/newswire/internal/annotate"
	"github.com/wardstone/newswire/internal/events"
)

type stubMarketView struct{}

func (stubMarketView) Quote(symbol string) (float64, float64, bool) {
	if symbol == "US10Y" {
		return 4.38, 0.5, true
	}
	return 4512.5, -0.4, true
}

func (stubMarketView) Closes(symbol string) []float64 {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 4500 + float64(i)
	}
	return closes
}

func newTestPipeline(t *testing.T) (*Pipeline, *[]Card) {
	t.Helper()

	bus := events.NewBus(zerolog.Nop())
	engine := annotate.NewEngine(stubMarketView{}, zerolog.Nop())
	pipeline := NewPipeline(NewLedger(100), 8*time.Hour, engine, bus, zerolog.Nop())

	var cards []Card
	bus.Subscribe(events.CardCreated, func(event *events.Event) {
		cards = append(cards, event.Data.(Card))
	})

	return pipeline, &cards
}

func TestPipelineEmitsAnnotatedCard(t *testing.T) {
	pipeline, cards := newTestPipeline(t)

	published := time.Now().Add(-10 * time.Minute)
	item := Item{
		Headline:  "Fed hikes rates by 50 bps, surprising markets",
		Link:      "https://example.com/fed-hike",
		Source:    "Reuters Business",
		Column:    ColumnMacro,
		Published: &published,
	}

	assert.Equal(t, OutcomeEmitted, pipeline.Process(item))
	require.Len(t, *cards, 1)

	card := (*cards)[0]
	assert.NotEmpty(t, card.ID)
	assert.Equal(t, item.Headline, card.Headline)
	assert.Equal(t, ColumnMacro, card.Column)
	assert.True(t, card.Verified)
	assert.Equal(t, 3, card.Impact)
	assert.Equal(t, annotate.DirectionRiskOff, card.Direction)
	assert.Equal(t, annotate.HorizonNow, card.Horizon)
	assert.NotEmpty(t, card.TechnicalLevels)
	assert.Equal(t, "10m ago", card.AgeLabel)
	assert.GreaterOrEqual(t, card.Confidence, 10)
	assert.LessOrEqual(t, card.Confidence, 100)
}

func TestPipelineDeduplicatesAcrossCycles(t *testing.T) {
	pipeline, cards := newTestPipeline(t)

	published := time.Now().Add(-5 * time.Minute)
	item := Item{
		Headline:  "OPEC announces surprise production cut",
		Link:      "https://example.com/opec",
		Source:    "Reuters Business",
		Column:    ColumnCommodity,
		Published: &published,
	}

	assert.Equal(t, OutcomeEmitted, pipeline.Process(item))
	assert.Equal(t, OutcomeDuplicate, pipeline.Process(item))
	assert.Len(t, *cards, 1)
}

func TestPipelineRejectsStaleItems(t *testing.T) {
	pipeline, cards := newTestPipeline(t)

	published := time.Now().Add(-9 * time.Hour)
	item := Item{
		Headline:  "CPI inflation cools more than expected",
		Link:      "https://example.com/cpi",
		Source:    "MarketWatch Pulse",
		Column:    ColumnMacro,
		Published: &published,
	}

	assert.Equal(t, OutcomeStale, pipeline.Process(item))
	assert.Empty(t, *cards)

	// The identifier was admitted before the gate: re-polling the same
	// stale item reports duplicate, not stale.
	assert.Equal(t, OutcomeDuplicate, pipeline.Process(item))
}

func TestPipelineSuppressesIrrelevantItems(t *testing.T) {
	pipeline, cards := newTestPipeline(t)

	published := time.Now().Add(-time.Hour)
	item := Item{
		Headline:  "Local man, 82, dies after long illness",
		Link:      "https://example.com/obit",
		Source:    "CNBC Top News",
		Column:    ColumnBreaking,
		Published: &published,
	}

	assert.Equal(t, OutcomeSuppressed, pipeline.Process(item))
	assert.Empty(t, *cards)
}

func TestItemIdentifierPreference(t *testing.T) {
	full := Item{Headline: "h", Link: "l", GUID: "g"}
	noLink := Item{Headline: "h", GUID: "g"}
	bare := Item{Headline: "h"}

	assert.Equal(t, "l", full.Identifier())
	assert.Equal(t, "g", noLink.Identifier())
	assert.Equal(t, "h", bare.Identifier())
}
