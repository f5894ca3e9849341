package annotate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// MarketView is the slice of live snapshot state the engine reads when
// grounding technical levels. It is the engine's only hidden input: two
// Annotate calls with identical inputs and identical view state return
// identical analyses.
type MarketView interface {
	// Quote returns the current value and day change for a display symbol.
	Quote(symbol string) (value, change float64, ok bool)
	// Closes returns recently observed values for a symbol, oldest first.
	Closes(symbol string) []float64
}

var mentionedLevelPattern = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+(?:\.\d+)?\b|\b\d{3,5}(?:\.\d+)?\b`)

// benchmarkFor maps a story to the instrument its levels are measured
// against.
func benchmarkFor(column string, tags []string) string {
	for _, t := range tags {
		switch t {
		case "oil", "energy":
			return "WTI"
		case "fx":
			return "DXY"
		case "rates":
			return "US10Y"
		}
	}

	switch column {
	case "commodity":
		return "GOLD"
	case "fx":
		return "EURUSD"
	case "macro":
		return "US10Y"
	default:
		return "SPX"
	}
}

// computeLevels combines numeric mentions extracted from the text with a
// distance-to-nearest-pivot computation against the live snapshot. Returns
// at most 3 level strings; empty when neither source yields anything.
func computeLevels(view MarketView, column string, tags []string, text string) []string {
	var levels []string

	// (a) static pattern-extracted numeric mentions
	for _, m := range mentionedLevelPattern.FindAllString(text, 2) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
		if err != nil || v < 10 {
			continue
		}
		levels = append(levels, fmt.Sprintf("%s cited in text", formatLevel(v)))
	}

	if view == nil {
		return capStrings(levels, 3)
	}

	// (b) distance to the nearest predefined pivot on the benchmark
	symbol := benchmarkFor(column, tags)
	if value, _, ok := view.Quote(symbol); ok && value > 0 {
		pivot, label := nearestPivot(value)
		distance := (pivot - value) / value * 100
		levels = append(levels, fmt.Sprintf("%s %s at %s (%+.2f%%)",
			symbol, label, formatLevel(pivot), distance))
	}

	// Momentum context from the recent observation window
	if s := momentumNote(symbol, view.Closes(symbol)); s != "" {
		levels = append(levels, s)
	}

	return capStrings(levels, 3)
}

// nearestPivot snaps a value to the closest round level on a magnitude-scaled
// grid and labels it support (below) or resistance (above).
func nearestPivot(value float64) (float64, string) {
	step := pivotStep(value)
	lower := math.Floor(value/step) * step
	upper := lower + step

	pivot := lower
	if upper-value < value-lower {
		pivot = upper
	}

	if pivot >= value {
		return pivot, "resistance"
	}
	return pivot, "support"
}

func pivotStep(value float64) float64 {
	switch {
	case value >= 10000:
		return 500
	case value >= 1000:
		return 100
	case value >= 100:
		return 10
	case value >= 10:
		return 1
	default:
		return 0.01
	}
}

// momentumNote summarizes the benchmark's recent observation window. Needs
// at least 15 observations for a 14-period RSI; silent otherwise.
func momentumNote(symbol string, closes []float64) string {
	if len(closes) < 15 {
		return ""
	}

	rsi := talib.Rsi(closes, 14)
	last := rsi[len(rsi)-1]

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			returns = append(returns, closes[i]/closes[i-1]-1)
		}
	}
	vol := stat.StdDev(returns, nil) * 100

	switch {
	case last >= 70:
		return fmt.Sprintf("%s RSI %.0f overbought", symbol, last)
	case last <= 30:
		return fmt.Sprintf("%s RSI %.0f oversold", symbol, last)
	case vol > 0.5:
		return fmt.Sprintf("%s intraday vol elevated (%.2f%% per obs)", symbol, vol)
	}

	sma := talib.Sma(closes, 14)
	avg := sma[len(sma)-1]
	price := closes[len(closes)-1]
	if avg > 0 && math.Abs(price-avg)/avg > 0.005 {
		side := "above"
		if price < avg {
			side = "below"
		}
		return fmt.Sprintf("%s trading %s its 14-obs average (%s)", symbol, side, formatLevel(avg))
	}
	return ""
}

func formatLevel(v float64) string {
	if v >= 1000 {
		whole := int64(v)
		frac := v - float64(whole)
		s := addThousandsSep(whole)
		if frac >= 0.005 {
			s += strings.TrimPrefix(strconv.FormatFloat(frac, 'f', 2, 64), "0")
		}
		return s
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func addThousandsSep(n int64) string {
	s := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
