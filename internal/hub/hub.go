// Package hub maintains persistent websocket sessions and fans domain
// events out to the authenticated ones.
//
// Sessions speak text-framed JSON. A connection starts unauthenticated,
// proves the shared token inside the socket protocol, and only then joins
// the broadcast set.
package hub

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/websocket"

	"github.com/danmuck/rigctl/internal/auth"
	"github.com/danmuck/rigctl/internal/envelope"
	"github.com/danmuck/rigctl/internal/observability"
)

const (
	// authFailCloseDelay keeps a rejected connection open just long enough
	// for the failure notice to flush.
	authFailCloseDelay = 250 * time.Millisecond

	maxDecodeErrors = 3
)

// inbound is the tagged union of client frames.
type inbound struct {
	Type   string   `json:"type"`
	Token  string   `json:"token,omitempty"`
	Events []string `json:"events,omitempty"`
}

// notice is a server-to-client control frame.
type notice struct {
	Type      string `json:"type"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

// eventFrame is a pushed domain event.
type eventFrame struct {
	Type      string `json:"type"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
}

type session struct {
	id   string
	conn *websocket.Conn

	mu            sync.Mutex
	enc           *json.Encoder
	authenticated bool
	subs          map[string]struct{}
}

func (s *session) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(v)
}

func (s *session) setAuthenticated() {
	s.mu.Lock()
	s.authenticated = true
	s.mu.Unlock()
}

func (s *session) isAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *session) subscribe(events []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range events {
		name = strings.TrimSpace(name)
		if name != "" {
			s.subs[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(s.subs))
	for name := range s.subs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}


// Hub tracks every live session and owns the broadcast path.
type Hub struct {
	creds auth.Validator
	log   zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func New(creds auth.Validator, logger zerolog.Logger) *Hub {
	return &Hub{
		creds:    creds,
		log:      logger,
		sessions: make(map[string]*session),
	}
}

// Handler returns the websocket endpoint for the session protocol.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

func (h *Hub) serve(conn *websocket.Conn) {
	s := &session{
		id:   uuid.NewString(),
		conn: conn,
		enc:  json.NewEncoder(conn),
		subs: make(map[string]struct{}),
	}
	h.track(s)
	defer h.untrack(s)

	h.log.Debug().Str("session_id", s.id).Msg("session_connected")
	if err := s.send(notice{Type: "auth_required", Message: "authentication required", Timestamp: stamp()}); err != nil {
		return
	}

	decodeErrors := 0
	for {
		var raw []byte
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			return
		}
		var msg inbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			decodeErrors++
			if decodeErrors >= maxDecodeErrors {
				h.log.Warn().Str("session_id", s.id).Err(err).Msg("session_decode_limit")
				return
			}
			_ = s.send(notice{Type: "error", Code: envelope.CodeInvalidRequest, Message: "malformed frame", Timestamp: stamp()})
			continue
		}
		decodeErrors = 0
		if !h.handle(s, msg) {
			return
		}
	}
}

// handle processes one frame; a false return closes the connection.
func (h *Hub) handle(s *session, msg inbound) bool {
	switch strings.TrimSpace(msg.Type) {
	case "auth":
		return h.handleAuth(s, msg.Token)
	case "ping":
		if !s.isAuthenticated() {
			return h.rejectPreAuth(s)
		}
		_ = s.send(notice{Type: "pong", Timestamp: stamp()})
		return true
	case "subscribe":
		if !s.isAuthenticated() {
			return h.rejectPreAuth(s)
		}
		// Recorded and acknowledged only; delivery stays unfiltered.
		events := s.subscribe(msg.Events)
		_ = s.send(notice{Type: "subscribed", Data: map[string]any{"events": events}, Timestamp: stamp()})
		return true
	default:
		if !s.isAuthenticated() {
			return h.rejectPreAuth(s)
		}
		_ = s.send(notice{Type: "error", Code: envelope.CodeInvalidRequest, Message: "unknown message type", Timestamp: stamp()})
		return true
	}
}

func (h *Hub) handleAuth(s *session, token string) bool {
	if s.isAuthenticated() {
		_ = s.send(notice{Type: "error", Code: envelope.CodeInvalidRequest, Message: "already authenticated", Timestamp: stamp()})
		return true
	}
	if err := h.creds.Validate(strings.TrimSpace(token)); err != nil {
		h.log.Warn().Str("session_id", s.id).Msg("session_auth_failed")
		_ = s.send(notice{Type: "auth_failed", Message: "invalid token", Timestamp: stamp()})
		time.Sleep(authFailCloseDelay)
		return false
	}
	s.setAuthenticated()
	observability.SessionOpened()
	h.log.Info().Str("session_id", s.id).Msg("session_authenticated")
	_ = s.send(notice{Type: "auth_success", Timestamp: stamp()})
	return true
}

// rejectPreAuth notices an unauthenticated sender without closing; the
// client may still authenticate on this connection.
func (h *Hub) rejectPreAuth(s *session) bool {
	_ = s.send(notice{Type: "error", Code: envelope.CodeAuthenticationFailed, Message: "authenticate first", Timestamp: stamp()})
	return true
}

// Broadcast serializes the event once and fans it out to every
// authenticated session. Recorded subscriptions do not narrow delivery;
// every member receives every kind. Per-session write failures are
// logged and skipped.
func (h *Hub) Broadcast(kind string, data any) {
	raw, err := json.Marshal(eventFrame{Type: kind, Data: data, Timestamp: stamp()})
	if err != nil {
		h.log.Error().Err(err).Str("kind", kind).Msg("broadcast_encode_failed")
		return
	}
	payload := json.RawMessage(raw)

	h.mu.Lock()
	targets := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	delivered := 0
	for _, s := range targets {
		if !s.isAuthenticated() {
			continue
		}
		if err := s.send(payload); err != nil {
			h.log.Warn().Err(err).Str("session_id", s.id).Msg("broadcast_send_failed")
			continue
		}
		delivered++
	}
	observability.RecordBroadcast(kind)
	h.log.Debug().Str("kind", kind).Int("delivered", delivered).Msg("event_broadcast")
}

// Publish implements the event sink rigs emit through.
func (h *Hub) Publish(kind string, data any) {
	h.Broadcast(kind, data)
}

// CloseAll defensively closes every session and clears the set.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*session)
	h.mu.Unlock()

	for _, s := range sessions {
		if err := s.conn.Close(); err != nil {
			h.log.Debug().Err(err).Str("session_id", s.id).Msg("session_close_failed")
		}
		if s.isAuthenticated() {
			observability.SessionClosed()
		}
	}
	h.log.Info().Int("closed", len(sessions)).Msg("sessions_closed")
}

// Count returns the number of tracked sessions in any state.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// AuthenticatedCount returns the number of sessions in the broadcast set.
func (h *Hub) AuthenticatedCount() int {
	h.mu.Lock()
	targets := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.Unlock()

	n := 0
	for _, s := range targets {
		if s.isAuthenticated() {
			n++
		}
	}
	return n
}

func (h *Hub) track(s *session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
}

func (h *Hub) untrack(s *session) {
	h.mu.Lock()
	_, present := h.sessions[s.id]
	delete(h.sessions, s.id)
	h.mu.Unlock()
	if present && s.isAuthenticated() {
		observability.SessionClosed()
	}
	h.log.Debug().Str("session_id", s.id).Msg("session_disconnected")
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
