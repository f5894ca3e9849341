package news

import "sync"

// CardStore is the bounded recent-history buffer of emitted cards, stored
// most-recent-first. It exists solely to backfill newly-connected
// subscribers; cards already delivered are unaffected by eviction.
type CardStore struct {
	mu       sync.RWMutex
	capacity int
	cards    []Card // most recent first
}

// NewCardStore creates a store keeping the last capacity cards.
func NewCardStore(capacity int) *CardStore {
	if capacity <= 0 {
		capacity = 1
	}
	return &CardStore{
		capacity: capacity,
		cards:    make([]Card, 0, capacity),
	}
}

// Append inserts a card at the front, evicting from the back when the store
// is full.
func (s *CardStore) Append(card Card) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cards = append([]Card{card}, s.cards...)
	if len(s.cards) > s.capacity {
		s.cards = s.cards[:s.capacity]
	}
}

// Snapshot returns the kept cards oldest-first, so replaying them to a new
// subscriber reconstructs original emission order.
func (s *CardStore) Snapshot() []Card {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Card, len(s.cards))
	for i, c := range s.cards {
		out[len(s.cards)-1-i] = c
	}
	return out
}

// Len returns the number of stored cards.
func (s *CardStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cards)
}

// Cap returns the configured capacity.
func (s *CardStore) Cap() int {
	return s.capacity
}
