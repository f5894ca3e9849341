package broadcast

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardstone/newswire/internal/events"
	"github.com/wardstone/newswire/internal/news"
	"github.com/wardstone/newswire/internal/snapshots"
)

func newTestHub(t *testing.T) (*Hub, *events.Bus, *news.CardStore) {
	t.Helper()

	bus := events.NewBus(zerolog.Nop())
	store := news.NewCardStore(50)
	market := snapshots.NewCache()
	market.Swap(map[string]snapshots.Quote{"SPX": {Symbol: "SPX", Value: 4500}})

	hub := NewHub(store, market, snapshots.NewCache(), snapshots.NewCache(),
		snapshots.NewCache(), snapshots.NewPredictionCache(), bus, zerolog.Nop())

	return hub, bus, store
}

// testSubscriber builds a subscriber without a live connection; enqueue only
// touches the send channel.
func testSubscriber(hub *Hub, buffer int) *Subscriber {
	return &Subscriber{
		hub:  hub,
		send: make(chan []byte, buffer),
		log:  zerolog.Nop(),
	}
}

func drain(sub *Subscriber) []Envelope {
	var envs []Envelope
	for {
		select {
		case raw := <-sub.send:
			var env Envelope
			if json.Unmarshal(raw, &env) == nil {
				envs = append(envs, env)
			}
		default:
			return envs
		}
	}
}

func TestCardEventAppendsHistoryAndBroadcasts(t *testing.T) {
	hub, bus, store := newTestHub(t)

	sub := testSubscriber(hub, 8)
	hub.register(sub)
	drain(sub) // discard handshake

	bus.Publish(&events.Event{
		Type: events.CardCreated,
		Data: news.Card{ID: "card-1", Headline: "Fed hikes rates"},
	})

	assert.Equal(t, 1, store.Len())

	envs := drain(sub)
	require.Len(t, envs, 1)
	assert.Equal(t, MsgNewCard, envs[0].Type)
}

func TestSlowSubscriberIsNotRemoved(t *testing.T) {
	hub, bus, _ := newTestHub(t)

	slow := testSubscriber(hub, 1)
	healthy := testSubscriber(hub, 16)
	hub.register(slow)
	hub.register(healthy)
	drain(healthy)
	// Slow subscriber never drains: its single-slot buffer is already
	// full from the handshake.

	for i := 0; i < 5; i++ {
		bus.Publish(&events.Event{
			Type: events.CardCreated,
			Data: news.Card{ID: "card", Headline: "headline"},
		})
	}

	// The healthy subscriber got every card, the slow one lost messages
	// but kept its registration.
	assert.Len(t, drain(healthy), 5)
	assert.Equal(t, 2, hub.SubscriberCount())
	assert.Greater(t, slow.dropped.Load(), int64(0))
}

func TestHandshakeSequence(t *testing.T) {
	hub, _, store := newTestHub(t)

	store.Append(news.Card{ID: "old-1"})
	store.Append(news.Card{ID: "old-2"})

	sub := testSubscriber(hub, 16)
	hub.register(sub)

	envs := drain(sub)
	require.Len(t, envs, 4) // two history cards, snapshot, predictions

	assert.Equal(t, MsgNewCard, envs[0].Type)
	assert.Equal(t, MsgNewCard, envs[1].Type)
	assert.Equal(t, MsgInitial, envs[2].Type)
	assert.Equal(t, MsgPredictionUpdate, envs[3].Type)
	assert.Equal(t, StateLive, sub.State())

	// History replays oldest first
	first, _ := json.Marshal(envs[0].Data)
	assert.Contains(t, string(first), "old-1")
}

func TestHandshakeFitsConfiguredHistory(t *testing.T) {
	bus := events.NewBus(zerolog.Nop())
	store := news.NewCardStore(100)
	hub := NewHub(store, snapshots.NewCache(), snapshots.NewCache(), snapshots.NewCache(),
		snapshots.NewCache(), snapshots.NewPredictionCache(), bus, zerolog.Nop())

	for i := 0; i < 100; i++ {
		store.Append(news.Card{ID: fmt.Sprintf("card-%d", i)})
	}

	// A history deeper than the buffer floor still replays in full.
	sub := hub.newSubscriber(nil, zerolog.Nop())
	hub.register(sub)

	envs := drain(sub)
	require.Len(t, envs, 102) // full history plus snapshot and predictions
	assert.Equal(t, MsgNewCard, envs[0].Type)
	assert.Equal(t, int64(0), sub.dropped.Load())
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	hub, _, _ := newTestHub(t)

	sub := testSubscriber(hub, 8)
	hub.register(sub)
	require.Equal(t, 1, hub.SubscriberCount())

	hub.unregister(sub)
	assert.Equal(t, 0, hub.SubscriberCount())

	// Double unregister is a no-op
	hub.unregister(sub)
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestSnapshotEventsRelayed(t *testing.T) {
	hub, bus, _ := newTestHub(t)

	sub := testSubscriber(hub, 16)
	hub.register(sub)
	drain(sub)

	bus.Publish(&events.Event{
		Type: events.MarketUpdated,
		Data: map[string]snapshots.Quote{"SPX": {Symbol: "SPX", Value: 4510}},
	})
	bus.Publish(&events.Event{
		Type: events.FXUpdated,
		Data: map[string]snapshots.Quote{"EURUSD": {Symbol: "EURUSD", Value: 1.09}},
	})

	envs := drain(sub)
	require.Len(t, envs, 2)
	assert.Equal(t, MsgMarketUpdate, envs[0].Type)
	assert.Equal(t, MsgFXUpdate, envs[1].Type)
}
