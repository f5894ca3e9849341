package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wardstone/newswire/internal/events"
	"github.com/wardstone/newswire/internal/news"
	"github.com/wardstone/newswire/internal/snapshots"
)

// Hub owns the subscriber set and relays bus events to it. A subscriber that
// cannot keep up has messages dropped; it is never removed by the hub, only
// by its own connection teardown.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}

	store       *news.CardStore
	market      *snapshots.Cache
	macro       *snapshots.Cache
	fx          *snapshots.Cache
	commodity   *snapshots.Cache
	predictions *snapshots.PredictionCache

	bus *events.Bus
	log zerolog.Logger
}

func NewHub(store *news.CardStore, market, macro, fx, commodity *snapshots.Cache, predictions *snapshots.PredictionCache, bus *events.Bus, log zerolog.Logger) *Hub {
	h := &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		store:       store,
		market:      market,
		macro:       macro,
		fx:          fx,
		commodity:   commodity,
		predictions: predictions,
		bus:         bus,
		log:         log.With().Str("component", "hub").Logger(),
	}

	bus.Subscribe(events.CardCreated, h.handleCard)
	bus.Subscribe(events.MarketUpdated, h.relay(MsgMarketUpdate))
	bus.Subscribe(events.MacroUpdated, h.relay(MsgMacroUpdate))
	bus.Subscribe(events.FXUpdated, h.relay(MsgFXUpdate))
	bus.Subscribe(events.CommodityUpdated, h.relay(MsgCommodityUpdate))
	bus.Subscribe(events.PredictionUpdated, h.relay(MsgPredictionUpdate))

	return h
}

// handleCard records the card in the replay history, then fans it out.
func (h *Hub) handleCard(event *events.Event) {
	card, ok := event.Data.(news.Card)
	if !ok {
		h.log.Error().Msg("Card event carried unexpected payload")
		return
	}

	h.store.Append(card)
	h.broadcast(newEnvelope(MsgNewCard, card))
}

func (h *Hub) relay(msgType string) events.Handler {
	return func(event *events.Event) {
		h.broadcast(newEnvelope(msgType, event.Data))
	}
}

// broadcast serializes once and enqueues to every subscriber. A full send
// buffer drops the message for that subscriber only.
func (h *Hub) broadcast(env Envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		h.log.Error().Err(err).Str("type", env.Type).Msg("Failed to marshal broadcast")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		sub.enqueue(raw)
	}
}

// register adds a subscriber and enqueues its handshake sequence atomically
// with respect to broadcasts: the card history oldest first, then one
// snapshot message, then the prediction slate. Broadcasts racing the
// handshake queue behind it in the subscriber's channel.
func (h *Hub) register(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscribers[sub] = struct{}{}

	for _, card := range h.store.Snapshot() {
		sub.enqueueJSON(newEnvelope(MsgNewCard, card))
	}
	sub.setState(StateHistoryReplayed)

	sub.enqueueJSON(newEnvelope(MsgInitial, map[string]interface{}{
		"market":    h.market.All(),
		"macro":     h.macro.All(),
		"fx":        h.fx.All(),
		"commodity": h.commodity.All(),
	}))
	sub.setState(StateSnapshotSent)

	sub.enqueueJSON(newEnvelope(MsgPredictionUpdate, h.predictions.All()))
	sub.setState(StateLive)

	h.log.Info().Int("subscribers", len(h.subscribers)).Msg("Subscriber registered")
}

func (h *Hub) unregister(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	close(sub.send)

	h.log.Info().Int("subscribers", len(h.subscribers)).Msg("Subscriber disconnected")
}

// SubscriberCount is used by the status endpoint.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// requestRefresh relays a subscriber's refresh command to whoever polls.
func (h *Hub) requestRefresh() {
	h.bus.Publish(&events.Event{
		Type:   events.RefreshRequested,
		Module: "hub",
	})
}
