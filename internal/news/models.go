// Package news holds the core fan-out pipeline: item admission (dedup +
// recency), annotation, and the bounded card history used to backfill new
// subscribers.
package news

import (
	"fmt"
	"time"
)

// Column is the routing bucket used for client-side grouping.
const (
	ColumnBreaking  = "breaking"
	ColumnMarket    = "market"
	ColumnMacro     = "macro"
	ColumnGeo       = "geo"
	ColumnCommodity = "commodity"
	ColumnFX        = "fx"
)

// Item is one candidate news item produced by a poller. Items are transient:
// they exist only while a poll cycle processes them.
type Item struct {
	Headline  string
	Link      string
	GUID      string
	Source    string
	Column    string
	Published *time.Time // nil when the feed provides no timestamp
	Summary   string
}

// Identifier returns the dedup key for the item: its link if present, else
// the source-provided guid, else the headline text. Headline-only keys can
// collide across unrelated near-duplicate stories; that is accepted.
func (i Item) Identifier() string {
	if i.Link != "" {
		return i.Link
	}
	if i.GUID != "" {
		return i.GUID
	}
	return i.Headline
}

// Card is the emitted, annotated representation of an admitted item. Cards
// are immutable after creation.
type Card struct {
	ID       string    `json:"id"`
	Time     time.Time `json:"time"`
	Column   string    `json:"column"`
	Headline string    `json:"headline"`
	Link     string    `json:"link,omitempty"`
	Source   string    `json:"source"`
	AgeLabel string    `json:"age_label,omitempty"`

	// Verified is true for machine-ingested items, false for manual
	// operator submissions.
	Verified bool `json:"verified"`

	Implications    []string `json:"implications,omitempty"`
	Impact          int      `json:"impact"`
	Horizon         string   `json:"horizon"`
	TechnicalLevels []string `json:"technical_levels,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Confidence      int      `json:"confidence"`
	NextEvents      []string `json:"next_events,omitempty"`
	Direction       string   `json:"direction,omitempty"`
	Regime          string   `json:"regime,omitempty"`

	// Rendering hints for clients; they do not affect pipeline behavior.
	ExcludeFromTicker bool `json:"exclude_from_ticker,omitempty"`
	HeadlineOnly      bool `json:"headline_only,omitempty"`
}

// AgeLabel formats a relative publish-age label ("42m ago"). An item without
// a publish timestamp gets an empty label.
func AgeLabel(published *time.Time, now time.Time) string {
	if published == nil {
		return ""
	}

	age := now.Sub(*published)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
