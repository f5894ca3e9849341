package annotate

import (
	"github.com/rs/zerolog"
)

// Engine evaluates the rule cascade for one item at a time. It holds no
// per-item state, so a single instance is shared by every poll worker.
type Engine struct {
	market MarketView
	log    zerolog.Logger
}

func NewEngine(market MarketView, log zerolog.Logger) *Engine {
	return &Engine{
		market: market,
		log:    log.With().Str("component", "annotate").Logger(),
	}
}

// Annotate runs the full cascade: suppression rules first (first match wins
// and short-circuits), then the accumulating impact rules, then regime
// resolution, technical levels and confidence scoring. Items that match no
// impact rule get neutral fallback guidance rather than an empty analysis.
// A headline-only item carries zero analytical payload: the impact cascade
// never runs for it.
func (e *Engine) Annotate(in Input) Analysis {
	r := newRuleInput(in)
	var a Analysis

	for _, rule := range suppressionRules {
		if rule.Match(r) {
			rule.Apply(r, &a)
			e.log.Debug().
				Str("rule", rule.Name).
				Str("headline", in.Headline).
				Msg("suppression rule matched")
			if a.Skip {
				return a
			}
			break
		}
	}

	if a.HeadlineOnly {
		a.Direction = DirectionNeutral
		a.Horizon = HorizonNone
		a.Confidence = score(in, r, 0)
		return a
	}

	matched := 0
	for _, rule := range impactRules {
		if rule.Match(r) {
			rule.Apply(r, &a)
			matched++
		}
	}

	a.Regime = resolveRegime(r)

	if matched == 0 {
		a.Impact = 1
		a.Implications = append(a.Implications, "Monitor for follow-through; no direct market read")
	}

	if a.Direction == "" {
		a.Direction = DirectionNeutral
	}
	if a.Horizon == "" {
		a.Horizon = HorizonNone
	}

	a.Implications = capStrings(a.Implications, 3)
	a.Tags = dedupeStrings(a.Tags)
	a.NextEvents = dedupeStrings(a.NextEvents)

	a.TechnicalLevels = computeLevels(e.market, in.Column, a.Tags, r.Text)

	a.Confidence = score(in, r, matched)

	return a
}

func dedupeStrings(s []string) []string {
	if len(s) < 2 {
		return s
	}
	seen := make(map[string]struct{}, len(s))
	out := s[:0]
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
