package broadcast

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	writeWait = 10 * time.Second

	// minSendBuffer is the floor for the outbound queue; the actual size
	// also accounts for the configured history depth so the handshake
	// replay can never overflow it.
	minSendBuffer      = 64
	sendBufferHeadroom = 16
)

// State tracks a subscriber's handshake progression.
type State int32

const (
	StateConnected State = iota
	StateHistoryReplayed
	StateSnapshotSent
	StateLive
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateHistoryReplayed:
		return "history_replayed"
	case StateSnapshotSent:
		return "snapshot_sent"
	case StateLive:
		return "live"
	default:
		return "unknown"
	}
}

// Subscriber is one websocket session. The hub enqueues; the write pump
// drains. The send channel is closed only by the hub during unregistration.
type Subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	state     atomic.Int32
	dropped   atomic.Int64
	closeOnce sync.Once
	log       zerolog.Logger
}

// HandleWS upgrades the connection and runs the session until either side
// closes it.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}

	sub := h.newSubscriber(conn, h.log.With().Str("remote", r.RemoteAddr).Logger())

	// Registration enqueues the full handshake before any live event can
	// reach this subscriber.
	h.register(sub)

	ctx := r.Context()
	go sub.writePump(ctx)
	sub.readPump(ctx)
}

// newSubscriber sizes the send channel so a full history replay plus the
// snapshot handshake always fits without drops.
func (h *Hub) newSubscriber(conn *websocket.Conn, log zerolog.Logger) *Subscriber {
	size := h.store.Cap() + sendBufferHeadroom
	if size < minSendBuffer {
		size = minSendBuffer
	}
	return &Subscriber{
		hub:  h,
		conn: conn,
		send: make(chan []byte, size),
		log:  log,
	}
}

func (s *Subscriber) setState(state State) {
	s.state.Store(int32(state))
}

// State returns the current handshake stage.
func (s *Subscriber) State() State {
	return State(s.state.Load())
}

// enqueue delivers a pre-serialized message, dropping it when the buffer is
// full. The subscriber stays registered either way.
func (s *Subscriber) enqueue(raw []byte) {
	select {
	case s.send <- raw:
	default:
		if s.dropped.Add(1)%100 == 1 {
			s.log.Warn().Int64("dropped", s.dropped.Load()).Msg("Subscriber buffer full, dropping messages")
		}
	}
}

func (s *Subscriber) enqueueJSON(env Envelope) {
	raw, err := json.Marshal(env)
	if err != nil {
		s.log.Error().Err(err).Str("type", env.Type).Msg("Failed to marshal handshake message")
		return
	}
	s.enqueue(raw)
}

func (s *Subscriber) writePump(ctx context.Context) {
	for raw := range s.send {
		writeCtx, cancel := context.WithTimeout(ctx, writeWait)
		err := s.conn.Write(writeCtx, websocket.MessageText, raw)
		cancel()
		if err != nil {
			s.teardown("write failed")
			// Drain until the hub closes the channel so broadcasters
			// never block on a dead session.
			for range s.send {
			}
			return
		}
	}
	_ = s.conn.Close(websocket.StatusNormalClosure, "")
}

// readPump handles inbound messages. The only recognized command is a
// refresh request; anything malformed is discarded without ending the
// session.
func (s *Subscriber) readPump(ctx context.Context) {
	defer s.teardown("read loop ended")

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return
		}

		var cmd refreshCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.log.Debug().Msg("Discarding malformed client message")
			continue
		}
		if cmd.Type == "refresh" {
			s.hub.requestRefresh()
		}
	}
}

func (s *Subscriber) teardown(reason string) {
	s.closeOnce.Do(func() {
		s.log.Debug().Str("reason", reason).Msg("Subscriber teardown")
		s.hub.unregister(s)
		_ = s.conn.Close(websocket.StatusNormalClosure, "")
	})
}
