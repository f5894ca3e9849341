package news

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wardstone/newswire/internal/annotate"
	"github.com/wardstone/newswire/internal/events"
)

// Outcome reports what the pipeline did with one item.
type Outcome int

const (
	OutcomeEmitted Outcome = iota
	OutcomeDuplicate
	OutcomeStale
	OutcomeSuppressed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmitted:
		return "emitted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeStale:
		return "stale"
	case OutcomeSuppressed:
		return "suppressed"
	default:
		return "unknown"
	}
}

// Annotator classifies one item. Satisfied by the rule engine.
type Annotator interface {
	Annotate(annotate.Input) annotate.Analysis
}

// Pipeline is the single admission path for polled items: dedup first, then
// the strict recency gate, then annotation. Admission happens before the
// gates on purpose: an item rejected for staleness stays rejected on every
// later sighting.
type Pipeline struct {
	ledger *Ledger
	maxAge time.Duration
	engine Annotator
	bus    *events.Bus
	log    zerolog.Logger
}

func NewPipeline(ledger *Ledger, maxAge time.Duration, engine Annotator, bus *events.Bus, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		ledger: ledger,
		maxAge: maxAge,
		engine: engine,
		bus:    bus,
		log:    log.With().Str("component", "pipeline").Logger(),
	}
}

// Process runs one item through the full admission path and publishes a card
// event when it survives.
func (p *Pipeline) Process(item Item) Outcome {
	if !p.ledger.Admit(item.Identifier()) {
		return OutcomeDuplicate
	}

	now := time.Now()
	if !Fresh(item.Published, now, p.maxAge) {
		p.log.Debug().Str("headline", item.Headline).Msg("Item too old for a card")
		return OutcomeStale
	}

	analysis := p.engine.Annotate(annotate.Input{
		Headline: item.Headline,
		Column:   item.Column,
		Body:     item.Summary,
		Source:   item.Source,
	})
	if analysis.Skip {
		p.log.Debug().Str("headline", item.Headline).Msg("Item suppressed")
		return OutcomeSuppressed
	}

	card := buildCard(item, analysis, now)

	p.bus.Publish(&events.Event{
		Type:   events.CardCreated,
		Module: "pipeline",
		Data:   card,
	})

	p.log.Info().
		Str("headline", card.Headline).
		Str("column", card.Column).
		Int("impact", card.Impact).
		Msg("Card emitted")

	return OutcomeEmitted
}

func buildCard(item Item, a annotate.Analysis, now time.Time) Card {
	return Card{
		ID:       uuid.NewString(),
		Time:     now,
		Column:   item.Column,
		Headline: item.Headline,
		Link:     item.Link,
		Source:   item.Source,
		AgeLabel: AgeLabel(item.Published, now),
		Verified: true,

		Implications:    a.Implications,
		Impact:          a.Impact,
		Horizon:         a.Horizon,
		TechnicalLevels: a.TechnicalLevels,
		Tags:            a.Tags,
		Confidence:      a.Confidence,
		NextEvents:      a.NextEvents,
		Direction:       a.Direction,
		Regime:          string(a.Regime),

		ExcludeFromTicker: a.ExcludeFromTicker,
		HeadlineOnly:      a.HeadlineOnly,
	}
}
