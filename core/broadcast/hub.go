// Package broadcast fans generated messages and conversation status out
// to websocket viewers.
//
// The viewer protocol is intentionally small:
//
//   - on connect the hub sends {"type":"welcome","message":"Connected"}
//   - {"type":"join_group","groupId":"..."} subscribes the session
//   - {"type":"ping"} is answered with {"type":"pong"}
//   - anything else is answered with {"type":"error",...}
package broadcast

import (
	"context"
	"net/http"
	"sync"

	"github.com/bakchodai/banter-core/core/messaging"
	"github.com/gorilla/websocket"
)

type envelope struct {
	Type        string `json:"type"`
	GroupID     string `json:"groupId,omitempty"`
	CharacterID string `json:"characterId,omitempty"`
	Content     string `json:"content,omitempty"`
	Message     string `json:"message,omitempty"`
	Active      *bool  `json:"active,omitempty"`
}

// Hub tracks websocket sessions and which groups each one joined.
// It implements http.Handler for the upgrade endpoint and the engine's
// Broadcaster interface for fan-out.
type Hub struct {
	upgrader websocket.Upgrader

	mu sync.RWMutex
	// groups maps group id -> subscribed sessions.
	groups map[string]map[*session]struct{}
	// sessions maps session -> joined group ids.
	sessions map[*session]map[string]struct{}
}

// session serializes writes to one websocket connection, gorilla allows
// only a single concurrent writer.
type session struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *session) send(payload envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(payload)
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		groups:   map[string]map[*session]struct{}{},
		sessions: map[*session]map[string]struct{}{},
	}
}

// ServeHTTP upgrades the request and runs the session's read loop until
// the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	sess := &session{conn: conn}
	h.mu.Lock()
	h.sessions[sess] = map[string]struct{}{}
	h.mu.Unlock()

	logger.InfoContext(r.Context(), "websocket connected", "remote", conn.RemoteAddr().String())
	if err := sess.send(envelope{Type: "welcome", Message: "Connected"}); err != nil {
		h.drop(sess)
		return
	}

	for {
		var inbound envelope
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handle(r.Context(), sess, inbound)
	}

	h.drop(sess)
	logger.InfoContext(r.Context(), "websocket closed", "remote", conn.RemoteAddr().String())
}

func (h *Hub) handle(ctx context.Context, sess *session, inbound envelope) {
	switch inbound.Type {
	case "join_group":
		if inbound.GroupID == "" {
			_ = sess.send(envelope{Type: "error", Message: "groupId is required"})
			return
		}
		h.join(sess, inbound.GroupID)
		_ = sess.send(envelope{Type: "joined_group", GroupID: inbound.GroupID})
	case "ping":
		_ = sess.send(envelope{Type: "pong"})
	default:
		logger.WarnContext(ctx, "invalid websocket message", "type", inbound.Type)
		_ = sess.send(envelope{Type: "error", Message: "Invalid message type"})
	}
}

func (h *Hub) join(sess *session, groupID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[groupID] == nil {
		h.groups[groupID] = map[*session]struct{}{}
	}
	h.groups[groupID][sess] = struct{}{}
	if h.sessions[sess] == nil {
		h.sessions[sess] = map[string]struct{}{}
	}
	h.sessions[sess][groupID] = struct{}{}
}

func (h *Hub) drop(sess *session) {
	h.mu.Lock()
	for groupID := range h.sessions[sess] {
		delete(h.groups[groupID], sess)
		if len(h.groups[groupID]) == 0 {
			delete(h.groups, groupID)
		}
	}
	delete(h.sessions, sess)
	h.mu.Unlock()

	_ = sess.conn.Close()
}

// BroadcastMessage sends a persisted message to every viewer joined to
// its group. Errors drop the affected session and are never returned to
// the caller.
func (h *Hub) BroadcastMessage(ctx context.Context, groupID string, msg messaging.Message) {
	h.fanOut(ctx, groupID, envelope{
		Type:        "message",
		GroupID:     groupID,
		CharacterID: msg.PersonaID,
		Content:     msg.Content,
	})
}

// BroadcastStatus announces whether a group's conversation is active.
func (h *Hub) BroadcastStatus(ctx context.Context, groupID string, active bool) {
	h.fanOut(ctx, groupID, envelope{Type: "status", GroupID: groupID, Active: &active})
}

func (h *Hub) fanOut(ctx context.Context, groupID string, payload envelope) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.groups[groupID]))
	for sess := range h.groups[groupID] {
		targets = append(targets, sess)
	}
	h.mu.RUnlock()

	for _, sess := range targets {
		if err := sess.send(payload); err != nil {
			logger.WarnContext(ctx, "failed to send to viewer, dropping session",
				"group_id", groupID, "error", err)
			h.drop(sess)
		}
	}
}

// Joined reports how many sessions are subscribed to a group.
func (h *Hub) Joined(groupID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[groupID])
}
