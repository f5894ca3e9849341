package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Short-lived intraday data
	TTLMarketQuote    = 10 * time.Minute // Index/rates quotes
	TTLCommodityQuote = 15 * time.Minute // Commodity futures quotes
	TTLFXRate         = time.Hour        // Currency rates

	// Slower-moving data
	TTLPredictionMarket = 30 * time.Minute // Prediction-market listings
	TTLMacroSeries      = 24 * time.Hour   // Macro indicator observations
)
