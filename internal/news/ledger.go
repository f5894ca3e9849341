package news

import "sync"

// Ledger is the bounded deduplication set of item identifiers. It remembers
// at most capacity identifiers in insertion order; admitting one past
// capacity evicts the oldest resident. Old identifiers can therefore
// resurface as "new" after eviction - an accepted tradeoff for bounded
// memory under continuous ingestion.
//
// The ledger is memory-resident only. A process restart resets it, causing a
// one-time re-emission burst of previously-seen items - accepted as a
// cold-start cost.
type Ledger struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]struct{}
	order    []string // insertion order, oldest first
}

// NewLedger creates a ledger with the given capacity.
func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ledger{
		capacity: capacity,
		seen:     make(map[string]struct{}, capacity),
	}
}

// Admit returns true (and records the identifier) exactly once per distinct
// identifier while it is resident; false on any subsequent call until the
// identifier is evicted by capacity pressure.
func (l *Ledger) Admit(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return false
	}

	if len(l.order) >= l.capacity {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.seen, oldest)
	}

	l.seen[id] = struct{}{}
	l.order = append(l.order, id)
	return true
}

// Contains reports whether an identifier is currently resident.
func (l *Ledger) Contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[id]
	return ok
}

// Len returns the number of resident identifiers.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}
