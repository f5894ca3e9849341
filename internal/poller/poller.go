// Package poller drives the feed fetch cycles. Each source carries its own
// circuit breaker so a repeatedly failing publisher is skipped for a cooldown
// period without affecting its siblings.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"

	"github.com/wardstone/newswire/internal/config"
	"github.com/wardstone/newswire/internal/news"
)

const cycleTimeout = 2 * time.Minute

// Fetcher pulls one feed's candidate items.
type Fetcher interface {
	Fetch(ctx context.Context, feed config.Feed) ([]news.Item, error)
}

// Sink consumes fetched items. Satisfied by the pipeline.
type Sink interface {
	Process(item news.Item) news.Outcome
}

// Source is one feed plus its breaker state.
type Source struct {
	feed    config.Feed
	breaker *gobreaker.CircuitBreaker
}

// Pool polls one group of sources on a shared schedule.
type Pool struct {
	name    string
	sources []*Source
	fetcher Fetcher
	sink    Sink
	log     zerolog.Logger
}

// NewPool builds a pool from the feeds matching the given group.
func NewPool(name, group string, allFeeds []config.Feed, cfg *config.Config, fetcher Fetcher, sink Sink, log zerolog.Logger) *Pool {
	poolLog := log.With().Str("poller", name).Logger()

	var sources []*Source
	for _, feed := range allFeeds {
		if feed.Group != group {
			continue
		}
		feed := feed
		sources = append(sources, &Source{
			feed:    feed,
			breaker: newBreaker(feed.Name, cfg, poolLog),
		})
	}

	return &Pool{
		name:    name,
		sources: sources,
		fetcher: fetcher,
		sink:    sink,
		log:     poolLog,
	}
}

func newBreaker(name string, cfg *config.Config, log zerolog.Logger) *gobreaker.CircuitBreaker {
	threshold := uint32(cfg.BreakerFailureThreshold)
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("source", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Source breaker state changed")
		},
	})
}

func (p *Pool) Name() string { return p.name }

// Run executes one poll cycle: every healthy source fetched concurrently,
// every fetched item handed to the sink. One source's failure never blocks
// another's items.
func (p *Pool) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), cycleTimeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(4)

	for _, source := range p.sources {
		source := source
		g.Go(func() error {
			p.pollSource(ctx, source)
			return nil
		})
	}
	_ = g.Wait()

	return nil
}

func (p *Pool) pollSource(ctx context.Context, source *Source) {
	result, err := source.breaker.Execute(func() (interface{}, error) {
		return p.fetcher.Fetch(ctx, source.feed)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			p.log.Debug().Str("source", source.feed.Name).Msg("Source skipped, breaker open")
			return
		}
		p.log.Warn().Err(err).Str("source", source.feed.Name).Msg("Source poll failed")
		return
	}

	items := result.([]news.Item)
	emitted := 0
	for _, item := range items {
		if p.sink.Process(item) == news.OutcomeEmitted {
			emitted++
		}
	}

	p.log.Debug().
		Str("source", source.feed.Name).
		Int("items", len(items)).
		Int("emitted", emitted).
		Msg("Source polled")
}

// BreakerStates reports each source's breaker state for the status endpoint.
func (p *Pool) BreakerStates() map[string]string {
	states := make(map[string]string, len(p.sources))
	for _, s := range p.sources {
		states[s.feed.Name] = s.breaker.State().String()
	}
	return states
}
