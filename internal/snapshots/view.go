package snapshots

// View aggregates the domain caches behind one lookup surface. It satisfies
// the annotation engine's market-view dependency.
type View struct {
	caches  []*Cache
	history *History
}

func NewView(history *History, caches ...*Cache) *View {
	return &View{caches: caches, history: history}
}

// Quote searches the caches in registration order.
func (v *View) Quote(symbol string) (value, change float64, ok bool) {
	for _, c := range v.caches {
		if q, found := c.Get(symbol); found {
			return q.Value, q.Change, true
		}
	}
	return 0, 0, false
}

// Closes returns the observation history for a symbol, oldest first.
func (v *View) Closes(symbol string) []float64 {
	if v.history == nil {
		return nil
	}
	return v.history.Closes(symbol)
}
