package annotate

import (
	"regexp"
	"strconv"
	"strings"
)

// ruleInput is the lowercased view of one item that predicates match against.
type ruleInput struct {
	Headline string
	Body     string
	Text     string // headline + body
	Column   string
}

func newRuleInput(in Input) ruleInput {
	h := strings.ToLower(in.Headline)
	b := strings.ToLower(in.Body)
	return ruleInput{
		Headline: h,
		Body:     b,
		Text:     strings.TrimSpace(h + " " + b),
		Column:   in.Column,
	}
}

func (r ruleInput) has(substrs ...string) bool {
	for _, s := range substrs {
		if strings.Contains(r.Text, s) {
			return true
		}
	}
	return false
}

// Rule is one (predicate, effect) record. Rules are evaluated top-to-bottom
// with accumulating semantics: every matching rule applies its effect, and
// the fallback guidance fires only when zero rules matched.
type Rule struct {
	Name  string
	Match func(ruleInput) bool
	Apply func(ruleInput, *Analysis)
}

var (
	deathPattern    = regexp.MustCompile(`\b(dies|dead at \d+|passes away|obituary)\b`)
	hikeBpsPattern  = regexp.MustCompile(`\b(raises?|hikes?|lifts?)\b.*\b(\d{2,3})\s?(bps?|basis points?)\b`)
	cutBpsPattern   = regexp.MustCompile(`\b(cuts?|lowers?|trims?)\b.*\b(\d{2,3})\s?(bps?|basis points?)\b`)
	chatterPattern  = regexp.MustCompile(`\b(stocks|shares|futures) (edge|drift|tick|hover|inch)\b|price analysis|technical analysis:`)
	surprisePattern = regexp.MustCompile(`\b(surpris\w+|unexpected\w*|shock\w*|stuns?)\b`)
)

// marketFigures names people whose death or statements are market-relevant.
// A death headline naming one of these is news, not an obituary to suppress.
var marketFigures = []string{
	"powell", "lagarde", "yellen", "bailey", "ueda", "bessent",
	"fed chair", "central bank", "ecb", "treasury secretary",
	"ceo", "chairman", "founder", "billionaire",
}

// suppressionRules are mutually exclusive and evaluated first; the first
// match wins and short-circuits the cascade.
var suppressionRules = []Rule{
	{
		Name: "irrelevant_obituary",
		Match: func(r ruleInput) bool {
			if !deathPattern.MatchString(r.Text) {
				return false
			}
			for _, f := range marketFigures {
				if strings.Contains(r.Text, f) {
					return false
				}
			}
			return true
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Skip = true
		},
	},
	{
		Name: "off_topic",
		Match: func(r ruleInput) bool {
			return r.has("study finds", "researchers at", "new paper", "horoscope", "box office", "celebrity")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Skip = true
		},
	},
	{
		Name: "routine_price_chatter",
		Match: func(r ruleInput) bool {
			return chatterPattern.MatchString(r.Text)
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.HeadlineOnly = true
			a.ExcludeFromTicker = true
		},
	},
}

// impactRules accumulate. Earlier, more specific rules take priority for
// the fields they set; later rules only raise impact, never lower it.
var impactRules = []Rule{
	{
		Name: "rate_hike",
		Match: func(r ruleInput) bool {
			return hikeBpsPattern.MatchString(r.Text) ||
				r.has("hikes rates", "raises rates", "rate hike", "raises interest rates")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 2)
			a.Direction = DirectionRiskOff
			a.Horizon = HorizonNow
			a.Tags = append(a.Tags, "rates", "central-banks")
			a.Implications = append(a.Implications,
				"Short-end yields reprice higher; duration under pressure",
				"Rate-sensitive equities lag until terminal rate expectations settle")
			a.NextEvents = append(a.NextEvents, "Post-decision press conference", "Next CPI print")
			if m := hikeBpsPattern.FindStringSubmatch(r.Text); m != nil {
				if bps, err := strconv.Atoi(m[2]); err == nil && bps >= 50 {
					// 50bp or larger moves are outsized
					a.Impact = 3
				}
			}
		},
	},
	{
		Name: "rate_cut",
		Match: func(r ruleInput) bool {
			return cutBpsPattern.MatchString(r.Text) ||
				r.has("cuts rates", "rate cut", "lowers interest rates", "eases policy")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 2)
			a.Direction = DirectionRiskOn
			a.Horizon = HorizonNow
			a.Tags = append(a.Tags, "rates", "central-banks")
			a.Implications = append(a.Implications,
				"Easier policy supports risk assets and steepens the curve")
			a.NextEvents = append(a.NextEvents, "Next FOMC meeting")
		},
	},
	{
		Name: "hawkish_surprise",
		Match: func(r ruleInput) bool {
			return surprisePattern.MatchString(r.Text) &&
				r.has("fed", "ecb", "boj", "boe", "rate", "hawkish", "tightening")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = 3
			a.Direction = DirectionRiskOff
			a.Horizon = HorizonNow
			a.Tags = append(a.Tags, "volatility")
			a.Implications = append(a.Implications,
				"Unpriced policy shift; expect outsized first-hour moves")
		},
	},
	{
		Name: "inflation_print",
		Match: func(r ruleInput) bool {
			return r.has("cpi", "inflation", "pce", "consumer prices")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 2)
			a.Horizon = firstNonEmpty(a.Horizon, HorizonIntraday)
			a.Tags = append(a.Tags, "inflation", "macro")
			if a.Direction == "" {
				if r.has("hot", "accelerat", "above expectations", "higher than expected") {
					a.Direction = DirectionRiskOff
				} else if r.has("cool", "eases", "below expectations", "slows") {
					a.Direction = DirectionRiskOn
				}
			}
			a.Implications = append(a.Implications, "Repricing of rate path across the curve")
			a.NextEvents = append(a.NextEvents, "Next FOMC meeting")
		},
	},
	{
		Name: "jobs_report",
		Match: func(r ruleInput) bool {
			return r.has("nonfarm", "payrolls", "jobless claims", "unemployment rate")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 2)
			a.Horizon = firstNonEmpty(a.Horizon, HorizonIntraday)
			a.Tags = append(a.Tags, "labor", "macro")
			a.Implications = append(a.Implications, "Labor data feeds directly into policy expectations")
		},
	},
	{
		Name: "geopolitical_escalation",
		Match: func(r ruleInput) bool {
			return r.has("missile", "airstrike", "invasion", "escalat", "declares war", "attack on", "strait closure")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 2)
			a.Direction = DirectionRiskOff
			a.Horizon = firstNonEmpty(a.Horizon, HorizonDays)
			a.Tags = append(a.Tags, "geopolitics", "energy")
			a.Implications = append(a.Implications,
				"Safe-haven bid in gold, dollar and front-end treasuries",
				"Energy supply-risk premium widens")
		},
	},
	{
		Name: "sanctions_tariffs",
		Match: func(r ruleInput) bool {
			return r.has("sanction", "tariff", "export controls", "trade war")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 1)
			a.Direction = firstNonEmpty(a.Direction, DirectionRiskOff)
			a.Horizon = firstNonEmpty(a.Horizon, HorizonWeeks)
			a.Tags = append(a.Tags, "trade", "geopolitics")
			a.Implications = append(a.Implications, "Supply-chain repricing across exposed sectors")
		},
	},
	{
		Name: "opec_supply",
		Match: func(r ruleInput) bool {
			return r.has("opec", "production cut", "output cut", "barrels per day", "crude inventories")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 2)
			a.Horizon = firstNonEmpty(a.Horizon, HorizonDays)
			a.Tags = append(a.Tags, "oil", "commodities")
			a.Implications = append(a.Implications, "Crude curve shifts; watch refiner and airline spreads")
			a.NextEvents = append(a.NextEvents, "Next OPEC+ ministerial meeting", "Weekly EIA inventories")
		},
	},
	{
		Name: "credit_event",
		Match: func(r ruleInput) bool {
			return r.has("default", "bankruptcy", "chapter 11", "downgrades", "credit rating")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 2)
			a.Direction = firstNonEmpty(a.Direction, DirectionRiskOff)
			a.Horizon = firstNonEmpty(a.Horizon, HorizonDays)
			a.Tags = append(a.Tags, "credit")
			a.Implications = append(a.Implications, "Spread widening risk in adjacent credits")
		},
	},
	{
		Name: "earnings",
		Match: func(r ruleInput) bool {
			return r.has("beats estimates", "misses estimates", "guidance", "quarterly results", "q1 results", "q2 results", "q3 results", "q4 results")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 1)
			a.Horizon = firstNonEmpty(a.Horizon, HorizonIntraday)
			a.Tags = append(a.Tags, "equities", "earnings")
			if a.Direction == "" {
				if r.has("beats", "raises guidance", "record profit") {
					a.Direction = DirectionRiskOn
				} else if r.has("misses", "cuts guidance", "warns") {
					a.Direction = DirectionRiskOff
				}
			}
		},
	},
	{
		Name: "fx_intervention",
		Match: func(r ruleInput) bool {
			return r.has("intervention", "defends currency", "currency peg", "devalu")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 2)
			a.Horizon = firstNonEmpty(a.Horizon, HorizonNow)
			a.Tags = append(a.Tags, "fx")
			a.Implications = append(a.Implications, "Carry unwind risk in funding currencies")
		},
	},
	{
		Name: "stimulus",
		Match: func(r ruleInput) bool {
			return r.has("stimulus", "fiscal package", "quantitative easing", "liquidity injection")
		},
		Apply: func(r ruleInput, a *Analysis) {
			a.Impact = maxInt(a.Impact, 2)
			a.Direction = firstNonEmpty(a.Direction, DirectionRiskOn)
			a.Horizon = firstNonEmpty(a.Horizon, HorizonDays)
			a.Tags = append(a.Tags, "macro", "liquidity")
		},
	},
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func firstNonEmpty(current, fallback string) string {
	if current != "" {
		return current
	}
	return fallback
}
