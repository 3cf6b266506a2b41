// Package messaging defines the persisted chat message record and the
// store the engine writes turns through.
package messaging

import (
	"context"
	"time"
)

// MessageKind mirrors the message types the chat surface can display.
type MessageKind string

const (
	KindText    MessageKind = "TEXT"
	KindImage   MessageKind = "IMAGE"
	KindAudio   MessageKind = "AUDIO"
	KindSticker MessageKind = "STICKER"
)

// Message is one durably recorded chat message.
type Message struct {
	ID             string      `json:"id"`
	GroupID        string      `json:"group_id"`
	PersonaID      string      `json:"character_id"`
	Content        string      `json:"content"`
	Kind           MessageKind `json:"message_type"`
	IsGenerated    bool        `json:"is_ai_generated"`
	ResponseTimeMs int64       `json:"response_time_ms"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Store persists messages and serves the bounded recent-message window.
//
// Save assigns the message ID and timestamp and returns the stored record.
// Recent returns at most limit messages for the group, oldest first.
// Implementations must be safe for concurrent use across group loops.
type Store interface {
	Save(ctx context.Context, msg Message) (Message, error)
	Recent(ctx context.Context, groupID string, limit int) ([]Message, error)
}
