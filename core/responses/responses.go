// Package responses holds the data contract between the conversation
// engine and generation backends: the per-turn context snapshot sent out
// and the response that comes back.
package responses

import (
	"strings"
	"time"

	"github.com/bakchodai/banter-core/core/messaging"
	"github.com/bakchodai/banter-core/core/moods"
	"github.com/bakchodai/banter-core/core/personas"
)

// Response is a single generated (or fallback) contribution to a group
// conversation, together with generation metadata.
type Response struct {
	Content        string
	Kind           messaging.MessageKind
	Confidence     float64
	ModelUsed      string
	ResponseTimeMs int64
	GeneratedAt    time.Time
	Metadata       map[string]any
	IsInterruption bool
	Reasoning      string
}

// Valid reports whether the response carries displayable content.
func (r Response) Valid() bool {
	return strings.TrimSpace(r.Content) != ""
}

// TruncatedContent returns the content capped to max runes, for logging.
func (r Response) TruncatedContent(max int) string {
	runes := []rune(r.Content)
	if len(runes) <= max {
		return r.Content
	}
	return string(runes[:max]) + "..."
}

// Context is the immutable per-turn snapshot handed to a backend. It is
// built fresh for every turn and never mutated afterwards.
type Context struct {
	Group          personas.Group
	CurrentPersona personas.Persona
	// RecentMessages is the bounded context window, oldest first.
	RecentMessages []messaging.Message
	// ActivePersonas is the full membership as read at the start of the turn.
	ActivePersonas []personas.Persona
	StartTime      time.Time
	// CurrentTopic is empty when no topic has been established.
	CurrentTopic string
	Mood         moods.Mood
	// AdditionalContext is forwarded to the backend uninterpreted.
	AdditionalContext map[string]any
}
