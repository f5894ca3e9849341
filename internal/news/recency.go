package news

import "time"

// Fresh reports whether a publish timestamp falls inside the admissible
// freshness window. Items with no timestamp skip the gate entirely and are
// treated as fresh - availability wins over strict freshness when source
// metadata is missing.
//
// Two gates use this at different stages: a coarse one at fetch time that
// cheaply discards stale feed backlog, and a strict one before annotation
// that enforces the "only truly current news" guarantee. Both thresholds are
// configurable and deliberately not collapsed.
func Fresh(published *time.Time, now time.Time, maxAge time.Duration) bool {
	if published == nil {
		return true
	}
	return now.Sub(*published) <= maxAge
}
