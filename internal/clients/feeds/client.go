// Package feeds fetches and normalizes RSS/Atom sources into pipeline items.
package feeds

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/wardstone/newswire/internal/config"
	"github.com/wardstone/newswire/internal/news"
)

// Client fetches one feed at a time, rate limited across all sources so a
// burst of cron fires cannot hammer the publishers.
type Client struct {
	parser   *gofeed.Parser
	limiter  *rate.Limiter
	maxItems int
	maxAge   time.Duration
	log      zerolog.Logger
}

func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	parser := gofeed.NewParser()
	parser.UserAgent = "newswire/1.0"

	return &Client{
		parser:   parser,
		limiter:  rate.NewLimiter(rate.Every(500*time.Millisecond), 3),
		maxItems: cfg.MaxItemsPerFeed,
		maxAge:   cfg.FeedMaxAge,
		log:      log.With().Str("client", "feeds").Logger(),
	}
}

// Fetch pulls one source and returns its candidate items, newest entries
// first as published by the feed. Items older than the coarse recency gate
// are dropped here; the strict gate is the pipeline's job.
func (c *Client) Fetch(ctx context.Context, feed config.Feed) ([]news.Item, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	parsed, err := c.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", feed.Name, err)
	}

	now := time.Now()
	items := make([]news.Item, 0, c.maxItems)
	for _, entry := range parsed.Items {
		if len(items) >= c.maxItems {
			break
		}
		if entry.Title == "" {
			continue
		}

		published := entry.PublishedParsed
		if published == nil {
			published = entry.UpdatedParsed
		}
		if !news.Fresh(published, now, c.maxAge) {
			continue
		}

		items = append(items, news.Item{
			Headline:  entry.Title,
			Link:      entry.Link,
			GUID:      entry.GUID,
			Source:    feed.Name,
			Column:    feed.Column,
			Published: published,
			Summary:   entry.Description,
		})
	}

	c.log.Debug().
		Str("feed", feed.Name).
		Int("total", len(parsed.Items)).
		Int("kept", len(items)).
		Msg("Feed fetched")

	return items, nil
}
