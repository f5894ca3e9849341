package snapshots

import "sync"

// History keeps a bounded per-symbol series of observed values, oldest first,
// feeding the annotation engine's momentum indicators.
type History struct {
	mu       sync.RWMutex
	capacity int
	series   map[string][]float64
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 120
	}
	return &History{
		capacity: capacity,
		series:   make(map[string][]float64),
	}
}

// Push appends one observation, evicting the oldest once at capacity.
func (h *History) Push(symbol string, value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := append(h.series[symbol], value)
	if len(s) > h.capacity {
		s = s[len(s)-h.capacity:]
	}
	h.series[symbol] = s
}

// Closes returns a copy of the series for a symbol, oldest first.
func (h *History) Closes(symbol string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	s := h.series[symbol]
	out := make([]float64, len(s))
	copy(out, s)
	return out
}

func (h *History) Len(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.series[symbol])
}
