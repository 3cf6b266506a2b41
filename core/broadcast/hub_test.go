package broadcast

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bakchodai/banter-core/core/messaging"
	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing hub: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()

	var payload envelope
	if err := conn.ReadJSON(&payload); err != nil {
		t.Fatalf("reading envelope: %v", err)
	}
	return payload
}

func TestHubWelcomesOnConnect(t *testing.T) {
	conn := dialHub(t, NewHub())

	welcome := readEnvelope(t, conn)
	if welcome.Type != "welcome" || welcome.Message != "Connected" {
		t.Fatalf("unexpected welcome: %+v", welcome)
	}
}

func TestHubJoinAndBroadcast(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	readEnvelope(t, conn) // welcome

	if err := conn.WriteJSON(envelope{Type: "join_group", GroupID: "g-1"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	joined := readEnvelope(t, conn)
	if joined.Type != "joined_group" || joined.GroupID != "g-1" {
		t.Fatalf("unexpected join ack: %+v", joined)
	}

	// join is handled by the read loop, the ack guarantees registration
	if hub.Joined("g-1") != 1 {
		t.Fatalf("expected one joined session, got %d", hub.Joined("g-1"))
	}

	hub.BroadcastMessage(context.Background(), "g-1", messaging.Message{
		PersonaID: "p-1", Content: "hello viewers",
	})
	broadcastMsg := readEnvelope(t, conn)
	if broadcastMsg.Type != "message" || broadcastMsg.Content != "hello viewers" || broadcastMsg.CharacterID != "p-1" {
		t.Fatalf("unexpected broadcast: %+v", broadcastMsg)
	}

	hub.BroadcastStatus(context.Background(), "g-1", false)
	status := readEnvelope(t, conn)
	if status.Type != "status" || status.Active == nil || *status.Active {
		t.Fatalf("unexpected status broadcast: %+v", status)
	}
}

func TestHubBroadcastSkipsOtherGroups(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	readEnvelope(t, conn) // welcome

	if err := conn.WriteJSON(envelope{Type: "join_group", GroupID: "g-1"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	readEnvelope(t, conn) // joined ack

	hub.BroadcastMessage(context.Background(), "g-2", messaging.Message{Content: "not for you"})
	hub.BroadcastMessage(context.Background(), "g-1", messaging.Message{Content: "for you"})

	got := readEnvelope(t, conn)
	if got.Content != "for you" {
		t.Fatalf("expected only the joined group's message, got %+v", got)
	}
}

func TestHubPingPong(t *testing.T) {
	conn := dialHub(t, NewHub())
	readEnvelope(t, conn) // welcome

	if err := conn.WriteJSON(envelope{Type: "ping"}); err != nil {
		t.Fatalf("sending ping: %v", err)
	}
	pong := readEnvelope(t, conn)
	if pong.Type != "pong" {
		t.Fatalf("expected pong, got %+v", pong)
	}
}

func TestHubRejectsUnknownType(t *testing.T) {
	conn := dialHub(t, NewHub())
	readEnvelope(t, conn) // welcome

	if err := conn.WriteJSON(envelope{Type: "shout"}); err != nil {
		t.Fatalf("sending message: %v", err)
	}
	errEnvelope := readEnvelope(t, conn)
	if errEnvelope.Type != "error" {
		t.Fatalf("expected error envelope, got %+v", errEnvelope)
	}
}

func TestHubJoinRequiresGroupID(t *testing.T) {
	conn := dialHub(t, NewHub())
	readEnvelope(t, conn) // welcome

	if err := conn.WriteJSON(envelope{Type: "join_group"}); err != nil {
		t.Fatalf("sending join: %v", err)
	}
	errEnvelope := readEnvelope(t, conn)
	if errEnvelope.Type != "error" {
		t.Fatalf("expected error envelope, got %+v", errEnvelope)
	}
}
