package annotate

import (
	"regexp"
	"strings"
)

var (
	numberPattern   = regexp.MustCompile(`\d`)
	datePattern     = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|monday|tuesday|wednesday|thursday|friday|q[1-4])\b`)
	officialPattern = regexp.MustCompile(`\b(powell|lagarde|yellen|bailey|ueda|bessent|governor|chair|secretary|minister)\b`)
	hedgingPattern  = regexp.MustCompile(`\b(may|might|could|reportedly|rumou?rs?|sources say|unconfirmed|speculation)\b`)
)

// sourceReliability gives well-established wires a confidence edge over
// aggregators. Matching is by lowercase substring of the source name; the
// first match wins, so keep the list ordered most-specific first.
var sourceReliability = []struct {
	key   string
	bonus int
}{
	{"fed", 20},
	{"reuters", 15},
	{"bloomberg", 15},
	{"marketwatch", 5},
	{"cnbc", 8},
	{"ft", 10},
}

// score computes the confidence value for one analysis: a running score
// adjusted by source-reliability bonuses, specificity bonuses, and an
// uncertainty penalty, clamped to [10,100].
func score(in Input, r ruleInput, matchedRules int) int {
	confidence := 40

	// More matched rules means the cascade recognized the story
	confidence += 10 * minInt(matchedRules, 3)

	source := strings.ToLower(in.Source)
	for _, entry := range sourceReliability {
		if strings.Contains(source, entry.key) {
			confidence += entry.bonus
			break
		}
	}

	// Specificity: concrete numbers, dates and named officials are worth
	// more than vague narrative.
	if numberPattern.MatchString(r.Text) {
		confidence += 8
	}
	if datePattern.MatchString(r.Text) {
		confidence += 5
	}
	if officialPattern.MatchString(r.Text) {
		confidence += 7
	}

	if hedgingPattern.MatchString(r.Text) {
		confidence -= 15
	}

	return clampInt(confidence, 10, 100)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
