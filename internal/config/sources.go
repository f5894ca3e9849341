package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Poll groups. Breaking sources are polled on the short schedule, periodic
// sources on the long one.
const (
	GroupBreaking = "breaking"
	GroupPeriodic = "periodic"
)

// Feed describes one configured news source.
type Feed struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Column string `json:"column"` // breaking, market, macro, geo, commodity, fx
	Group  string `json:"group"`  // breaking or periodic
}

// defaultFeeds is the built-in source table. It is configuration data and can
// be replaced wholesale via FEEDS_FILE.
var defaultFeeds = []Feed{
	{Name: "Reuters Business", URL: "https://feeds.reuters.com/reuters/businessNews", Column: "breaking", Group: GroupBreaking},
	{Name: "Reuters Markets", URL: "https://feeds.reuters.com/reuters/marketsNews", Column: "market", Group: GroupBreaking},
	{Name: "CNBC Top News", URL: "https://www.cnbc.com/id/100003114/device/rss/rss.html", Column: "breaking", Group: GroupBreaking},
	{Name: "CNBC Economy", URL: "https://www.cnbc.com/id/20910258/device/rss/rss.html", Column: "macro", Group: GroupPeriodic},
	{Name: "FT World", URL: "https://www.ft.com/world?format=rss", Column: "geo", Group: GroupPeriodic},
	{Name: "MarketWatch Pulse", URL: "https://feeds.marketwatch.com/marketwatch/marketpulse/", Column: "market", Group: GroupBreaking},
	{Name: "Investing FX", URL: "https://www.investing.com/rss/news_1.rss", Column: "fx", Group: GroupPeriodic},
	{Name: "OilPrice", URL: "https://oilprice.com/rss/main", Column: "commodity", Group: GroupPeriodic},
	{Name: "Fed Press", URL: "https://www.federalreserve.gov/feeds/press_all.xml", Column: "macro", Group: GroupBreaking},
	{Name: "Kitco Metals", URL: "https://www.kitco.com/rss/category/commentaries.xml", Column: "commodity", Group: GroupPeriodic},
}

// LoadFeeds returns the feed table, preferring the FEEDS_FILE override when
// configured.
func (c *Config) LoadFeeds() ([]Feed, error) {
	if c.FeedsFile == "" {
		return defaultFeeds, nil
	}

	data, err := os.ReadFile(c.FeedsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds file %s: %w", c.FeedsFile, err)
	}

	var feeds []Feed
	if err := json.Unmarshal(data, &feeds); err != nil {
		return nil, fmt.Errorf("failed to parse feeds file %s: %w", c.FeedsFile, err)
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("feeds file %s contains no sources", c.FeedsFile)
	}

	return feeds, nil
}

// Instrument maps a display symbol to the identifier used by its data source.
type Instrument struct {
	Symbol string // Display symbol pushed to subscribers (e.g. "SPX")
	Code   string // Source-side identifier (e.g. "^GSPC")
}

// MarketInstruments is the index/rates watchlist refreshed on the market schedule.
var MarketInstruments = []Instrument{
	{Symbol: "SPX", Code: "^GSPC"},
	{Symbol: "NDX", Code: "^NDX"},
	{Symbol: "DJI", Code: "^DJI"},
	{Symbol: "VIX", Code: "^VIX"},
	{Symbol: "US10Y", Code: "^TNX"},
	{Symbol: "US2Y", Code: "^IRX"},
}

// FXInstruments is the currency watchlist.
var FXInstruments = []Instrument{
	{Symbol: "EURUSD", Code: "EURUSD=X"},
	{Symbol: "USDJPY", Code: "USDJPY=X"},
	{Symbol: "GBPUSD", Code: "GBPUSD=X"},
	{Symbol: "DXY", Code: "DX-Y.NYB"},
}

// CommodityInstruments is the commodity watchlist.
var CommodityInstruments = []Instrument{
	{Symbol: "GOLD", Code: "GC=F"},
	{Symbol: "WTI", Code: "CL=F"},
	{Symbol: "BRENT", Code: "BZ=F"},
	{Symbol: "COPPER", Code: "HG=F"},
	{Symbol: "NATGAS", Code: "NG=F"},
}

// MacroSeries describes one macro indicator with a hardcoded fallback so the
// indicator list is never empty when the source is down.
type MacroSeries struct {
	Symbol        string  // Display symbol (e.g. "CPI_YOY")
	SeriesID      string  // Source-side series identifier
	FallbackValue float64 // Substituted when the fetch fails and no cache exists
	FallbackPrior float64
}

// MacroIndicators is the macro watchlist refreshed on the macro schedule.
var MacroIndicators = []MacroSeries{
	{Symbol: "CPI_YOY", SeriesID: "CPIAUCSL", FallbackValue: 3.2, FallbackPrior: 3.4},
	{Symbol: "UNEMPLOYMENT", SeriesID: "UNRATE", FallbackValue: 4.1, FallbackPrior: 4.0},
	{Symbol: "FED_FUNDS", SeriesID: "FEDFUNDS", FallbackValue: 4.50, FallbackPrior: 4.75},
	{Symbol: "GDP_QOQ", SeriesID: "A191RL1Q225SBEA", FallbackValue: 2.8, FallbackPrior: 3.0},
	{Symbol: "PCE_YOY", SeriesID: "PCEPI", FallbackValue: 2.6, FallbackPrior: 2.7},
}

// PredictionKeywords is the relevance filter for prediction markets.
var PredictionKeywords = []string{
	"fed", "rate", "inflation", "recession", "gdp", "tariff",
	"election", "oil", "opec", "china", "treasury", "default",
}

// PredictionTopN caps how many markets (by 24h volume) are pushed.
const PredictionTopN = 8
