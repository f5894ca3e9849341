// Package snapshots holds the in-memory state pushed to subscribers: market,
// macro, FX, commodity and prediction-market snapshots, refreshed on their own
// schedules and swapped wholesale so readers never see a half-updated set.
package snapshots

import "time"

// Quote is one refreshed instrument value.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Value     float64   `json:"value"`
	Change    float64   `json:"change"` // percent vs previous observation
	Direction string    `json:"direction"`
	Prior     float64   `json:"prior,omitempty"` // macro series only
	FetchedAt time.Time `json:"fetched_at"`
}

// PredictionMarket is one event-contract market kept in the prediction
// snapshot.
type PredictionMarket struct {
	ID        string  `json:"id"`
	Question  string  `json:"question"`
	YesPrice  float64 `json:"yes_price"` // 0..1 implied probability
	Volume24h float64 `json:"volume_24h"`
	EndDate   string  `json:"end_date,omitempty"`
}

func direction(change float64) string {
	switch {
	case change > 0:
		return "up"
	case change < 0:
		return "down"
	default:
		return "flat"
	}
}

// percentChange is the day move in percent; zero when previous is unusable.
func percentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}
