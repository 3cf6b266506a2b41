// Package personas defines the simulated character descriptor and the
// source the engine reads group membership from.
package personas

import (
	"context"
	"time"
)

// Persona is a simulated character eligible to speak in a group.
type Persona struct {
	ID                string
	Name              string
	PersonalityTraits string
	SystemPrompt      string
	AvatarURL         string
	SpeakingStyle     string
	Background        string
	IsActive          bool
}

// Group identifies the chat group a conversation runs in.
type Group struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MemberSource reports the current, ordered membership of a group.
//
// The engine reads it once per turn, so membership changes between turns
// are picked up without restarting the conversation.
type MemberSource interface {
	MembersOf(ctx context.Context, groupID string) ([]Persona, error)
}
