package snapshots

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wardstone/newswire/internal/clientdata"
	"github.com/wardstone/newswire/internal/config"
	"github.com/wardstone/newswire/internal/events"
)

// PredictionSource fetches the current slate of event-contract markets.
type PredictionSource interface {
	Markets(ctx context.Context) ([]PredictionMarket, error)
}

// PredictionRefresher pulls the market slate, keeps only macro-relevant
// questions, ranks by 24h volume and swaps the top slice into the cache. A
// failed fetch leaves the previous snapshot in place.
type PredictionRefresher struct {
	source PredictionSource
	cache  *PredictionCache
	repo   *clientdata.Repository
	bus    *events.Bus
	log    zerolog.Logger
}

func NewPredictionRefresher(source PredictionSource, cache *PredictionCache, repo *clientdata.Repository, bus *events.Bus, log zerolog.Logger) *PredictionRefresher {
	return &PredictionRefresher{
		source: source,
		cache:  cache,
		repo:   repo,
		bus:    bus,
		log:    log.With().Str("job", "prediction_refresh").Logger(),
	}
}

func (r *PredictionRefresher) Name() string { return "prediction_refresh" }

func (r *PredictionRefresher) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	markets, err := r.source.Markets(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("Prediction fetch failed, keeping previous snapshot")
		return err
	}

	relevant := filterRelevant(markets)
	sort.Slice(relevant, func(i, j int) bool {
		return relevant[i].Volume24h > relevant[j].Volume24h
	})
	if len(relevant) > config.PredictionTopN {
		relevant = relevant[:config.PredictionTopN]
	}

	r.cache.Swap(relevant)

	for _, m := range relevant {
		if err := r.repo.Store("prediction_markets", m.ID, m, clientdata.TTLPredictionMarket); err != nil {
			r.log.Warn().Err(err).Str("market", m.ID).Msg("Failed to persist prediction market")
		}
	}

	r.bus.Publish(&events.Event{
		Type:   events.PredictionUpdated,
		Module: "snapshots",
		Data:   r.cache.All(),
	})

	r.log.Debug().Int("markets", len(relevant)).Msg("Prediction snapshot refreshed")
	return nil
}

func filterRelevant(markets []PredictionMarket) []PredictionMarket {
	out := make([]PredictionMarket, 0, len(markets))
	for _, m := range markets {
		q := strings.ToLower(m.Question)
		for _, kw := range config.PredictionKeywords {
			if strings.Contains(q, kw) {
				out = append(out, m)
				break
			}
		}
	}
	return out
}
