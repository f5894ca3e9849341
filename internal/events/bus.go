// Package events provides the in-process event bus connecting the pipeline,
// the snapshot refreshers, and the websocket broadcaster.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// EventType identifies a category of event
type EventType string

const (
	// CardCreated fires when the pipeline emits a new annotated card.
	CardCreated EventType = "card_created"

	// Snapshot domain refreshes. Each carries the full current snapshot
	// for its domain.
	MarketUpdated     EventType = "market_updated"
	MacroUpdated      EventType = "macro_updated"
	FXUpdated         EventType = "fx_updated"
	CommodityUpdated  EventType = "commodity_updated"
	PredictionUpdated EventType = "prediction_updated"

	// RefreshRequested fires when a subscriber asks for an immediate
	// out-of-schedule poll cycle.
	RefreshRequested EventType = "refresh_requested"
)

// Event is a single bus message
type Event struct {
	Type      EventType
	Module    string
	Timestamp time.Time
	Data      interface{}
}

// Handler processes an event. Handlers must not block: slow consumers should
// buffer internally and drop, as the broadcaster does.
type Handler func(event *Event)

// Bus is a synchronous publish/subscribe event bus
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
		log:      log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers a handler for an event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish delivers an event to all handlers registered for its type.
// Panicking handlers are contained so one consumer cannot take down a
// publisher's goroutine.
func (b *Bus) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.dispatch(event, handler)
	}
}

func (b *Bus) dispatch(event *Event, handler Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Str("event_type", string(event.Type)).
				Interface("panic", r).
				Msg("Event handler panicked")
		}
	}()
	handler(event)
}
