// internal/httpserver/ws.go
//
// Websocket endpoint and delivery registry.
//
// Connection lifecycle:
//   - GET /ws authenticates the token, upgrades the connection, assigns it a
//     fresh connection id, upserts the user's lastSeen, writes the
//     connection binding row, and registers the conn for push delivery.
//   - The read loop parses tagged intents and dispatches them to the session
//     coordinator. Errors are classified and reported to this connection
//     only; committed snapshots reach players through the Registry sink.
//   - On socket close, if the binding still points at a game, a quit is
//     synthesized for this player (the disconnect is treated as forfeiting),
//     then the binding row and the registry entry are removed.
//
// The per-turn countdown is client-side: a timed-out client sends its own
// quit-game intent, which takes this exact path.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/wordrelay/go-server/internal/game"
	"github.com/wordrelay/go-server/internal/session"
	"github.com/wordrelay/go-server/internal/store"
)

const disconnectCleanupTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin is already policed by the CORS middleware for the REST
	// routes; the ws handshake re-checks nothing beyond the token.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// gameMessage is the push frame delivered after every committed mutation.
type gameMessage struct {
	Message string        `json:"message"`
	Game    game.Snapshot `json:"game"`
}

// errorMessage is the frame sent to the requester when an intent fails.
type errorMessage struct {
	Error   string `json:"error"` // taxonomy kind
	Message string `json:"message"`
}

// Registry tracks live websocket connections by connection id and implements
// the session delivery sink. Writes are serialized by the mutex; a failed
// write closes and drops the connection.
type Registry struct {
	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{conns: map[string]*websocket.Conn{}}
}

// Add registers a live connection.
func (reg *Registry) Add(connectionID string, conn *websocket.Conn) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.conns[connectionID] = conn
}

// Remove drops a connection from the registry without closing it.
func (reg *Registry) Remove(connectionID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.conns, connectionID)
}

// Deliver pushes a snapshot to one connection. Unknown or dead connections
// yield ErrStaleConnection; the dead conn is closed and dropped so later
// broadcasts skip it.
func (reg *Registry) Deliver(ctx context.Context, connectionID string, snap game.Snapshot) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	conn, ok := reg.conns[connectionID]
	if !ok {
		return fmt.Errorf("deliver to %s: %w", connectionID, session.ErrStaleConnection)
	}
	if err := conn.WriteJSON(gameMessage{Message: "New gameData", Game: snap}); err != nil {
		conn.Close()
		delete(reg.conns, connectionID)
		return fmt.Errorf("deliver to %s: %w", connectionID, session.ErrStaleConnection)
	}
	return nil
}

// writeError reports a failed intent to its originator only.
func (reg *Registry) writeError(connectionID, kind, msg string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if conn, ok := reg.conns[connectionID]; ok {
		_ = conn.WriteJSON(errorMessage{Error: kind, Message: msg})
	}
}

// handleWS upgrades the connection and runs its intent loop.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	me, err := s.userFromRequest(r)
	if err != nil {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connectionID := uuid.NewString()
	actor := session.Actor{UserID: me.ID, Username: me.Username, ConnectionID: connectionID}

	if err := s.touchLastSeen(r.Context(), me.ID); err != nil {
		log.Warn().Err(err).Str("userId", me.ID).Msg("touch lastSeen failed")
	}
	if err := s.st.PutBinding(r.Context(), store.Binding{ConnectionID: connectionID, UserID: me.ID}); err != nil {
		log.Error().Err(err).Str("connectionId", connectionID).Msg("store connection binding failed")
		conn.Close()
		return
	}
	s.conns.Add(connectionID, conn)
	log.Info().Str("userId", me.ID).Str("connectionId", connectionID).Msg("client connected")

	defer s.teardown(actor)

	for {
		var in session.Intent
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("connectionId", connectionID).Msg("websocket read error")
			}
			return
		}
		if _, err := s.coord.Dispatch(r.Context(), actor, in); err != nil {
			s.conns.writeError(connectionID, classify(err), err.Error())
		}
	}
}

// teardown runs once per connection, after the read loop exits for any
// reason. It forfeits any game the connection was still bound to and removes
// the binding and registry entries.
func (s *Server) teardown(actor session.Actor) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectCleanupTimeout)
	defer cancel()

	s.conns.Remove(actor.ConnectionID)

	b, err := s.st.GetBinding(ctx, actor.ConnectionID)
	if err == nil && b.GameID != "" {
		// An explicit quit-game already marked us disconnected; that surfaces
		// here as a rule violation and is fine to ignore.
		if _, err := s.coord.Quit(ctx, actor, b.GameID, false); err != nil &&
			!errors.Is(err, session.ErrRuleViolation) && !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("gameId", b.GameID).
				Str("connectionId", actor.ConnectionID).Msg("disconnect quit failed")
		}
	}
	if err := s.st.DeleteBinding(ctx, actor.ConnectionID); err != nil {
		log.Warn().Err(err).Str("connectionId", actor.ConnectionID).Msg("delete binding failed")
	}
	log.Info().Str("userId", actor.UserID).Str("connectionId", actor.ConnectionID).Msg("client disconnected")
}

// classify maps a coordinator error to its wire taxonomy kind.
func classify(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	case errors.Is(err, session.ErrRuleViolation):
		return "rule_violation"
	case errors.Is(err, session.ErrRetriesExhausted):
		return "exhausted_retries"
	case errors.Is(err, session.ErrStaleConnection):
		return "delivery_failure"
	default:
		return "internal"
	}
}

// marshalSnapshot is a convenience for tests and debugging.
func marshalSnapshot(snap game.Snapshot) ([]byte, error) {
	return json.Marshal(gameMessage{Message: "New gameData", Game: snap})
}
