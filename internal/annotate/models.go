// Package annotate implements the heuristic market-impact classification of
// incoming headlines. The engine is a pure function over its inputs plus the
// current market snapshot; the rule catalog itself is data and can be
// replaced without touching the pipeline.
package annotate

// Horizon labels the expected reaction window of a story.
const (
	HorizonNow      = "NOW"
	HorizonIntraday = "INTRADAY"
	HorizonDays     = "DAYS"
	HorizonWeeks    = "WEEKS"
	HorizonNone     = "N/A"
)

// Directional bias of a story.
const (
	DirectionRiskOn  = "RISK-ON"
	DirectionRiskOff = "RISK-OFF"
	DirectionNeutral = "NEUTRAL"
)

// Regime is a named macro-economic pattern attached to an analysis when a
// corresponding rule group matches. Regimes are mutually exclusive.
type Regime string

const (
	RegimeStagflationary Regime = "Stagflationary"
	RegimeReflationary   Regime = "Reflationary"
	RegimeDeflationary   Regime = "Deflationary"
	RegimeGoldilocks     Regime = "Goldilocks"
	RegimeNone           Regime = ""
)

// Input is everything the engine reads about one item.
type Input struct {
	Headline string
	Column   string
	Body     string
	Source   string
}

// Analysis is the engine's structured output.
type Analysis struct {
	// Suppression decisions. Skip drops the item entirely; HeadlineOnly
	// emits the headline with no analytical payload.
	Skip         bool
	HeadlineOnly bool

	Implications    []string // at most 3
	Impact          int      // 0-3
	Horizon         string
	TechnicalLevels []string // at most 3
	Tags            []string
	Confidence      int // clamped to [10,100]
	NextEvents      []string
	Direction       string
	Regime          Regime

	// Rendering hint only; never affects pipeline behavior.
	ExcludeFromTicker bool
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func capStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
