package snapshots

import (
	"sync"
	"time"
)

// Cache is one domain's snapshot. Refreshers build a complete replacement map
// off to the side and swap it in under the lock; a failed refresh leaves the
// previous snapshot untouched.
type Cache struct {
	mu        sync.RWMutex
	quotes    map[string]Quote
	updatedAt time.Time
}

func NewCache() *Cache {
	return &Cache{quotes: make(map[string]Quote)}
}

// Swap replaces the whole snapshot.
func (c *Cache) Swap(quotes map[string]Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes = quotes
	c.updatedAt = time.Now()
}

// Get returns one symbol's quote.
func (c *Cache) Get(symbol string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quotes[symbol]
	return q, ok
}

// All returns a copy of the current snapshot.
func (c *Cache) All() map[string]Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Quote, len(c.quotes))
	for k, v := range c.quotes {
		out[k] = v
	}
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.quotes)
}

// UpdatedAt is the time of the last successful swap; zero before the first.
func (c *Cache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

// PredictionCache holds the current prediction-market snapshot, already
// filtered and ranked.
type PredictionCache struct {
	mu        sync.RWMutex
	markets   []PredictionMarket
	updatedAt time.Time
}

func NewPredictionCache() *PredictionCache {
	return &PredictionCache{}
}

func (c *PredictionCache) Swap(markets []PredictionMarket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markets = markets
	c.updatedAt = time.Now()
}

func (c *PredictionCache) All() []PredictionMarket {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PredictionMarket, len(c.markets))
	copy(out, c.markets)
	return out
}

func (c *PredictionCache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
