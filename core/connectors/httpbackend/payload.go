package httpbackend

import (
	"time"

	"github.com/bakchodai/banter-core/core/responses"
	"github.com/jinzhu/copier"
)

// Wire types for the generation backend protocol. Field names are fixed by
// the backend contract, keep them in sync with its API.

type requestBody struct {
	Group             groupPayload     `json:"group"`
	CurrentCharacter  personaPayload   `json:"current_character"`
	RecentMessages    []messagePayload `json:"recent_messages"`
	ActiveCharacters  []personaPayload `json:"active_characters"`
	AdditionalContext map[string]any   `json:"additional_context"`
	ConversationStart time.Time        `json:"conversation_start_time"`
	CurrentTopic      *string          `json:"current_topic"`
	Mood              string           `json:"mood"`
}

type groupPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type personaPayload struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	PersonalityTraits string `json:"personality_traits"`
	SystemPrompt      string `json:"system_prompt"`
	AvatarURL         string `json:"avatar_url"`
	SpeakingStyle     string `json:"speaking_style"`
	Background        string `json:"background"`
	IsActive          bool   `json:"is_active"`
}

type messagePayload struct {
	ID             string    `json:"id"`
	GroupID        string    `json:"group_id"`
	CharacterID    string    `json:"character_id"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"`
	IsAIGenerated  bool      `json:"is_ai_generated"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

type responseBody struct {
	Content        string  `json:"content"`
	MessageType    string  `json:"message_type"`
	Confidence     float64 `json:"confidence"`
	ModelUsed      string  `json:"model_used"`
	ResponseTimeMs int64   `json:"response_time_ms"`
	GeneratedAt    string  `json:"generated_at"`
	IsInterruption bool    `json:"is_interruption"`
	Reasoning      string  `json:"reasoning"`
}

func toRequestBody(turnCtx *responses.Context) (requestBody, error) {
	body := requestBody{
		AdditionalContext: turnCtx.AdditionalContext,
		ConversationStart: turnCtx.StartTime,
		Mood:              string(turnCtx.Mood),
	}
	if turnCtx.CurrentTopic != "" {
		topic := turnCtx.CurrentTopic
		body.CurrentTopic = &topic
	}

	if err := copier.Copy(&body.Group, turnCtx.Group); err != nil {
		return requestBody{}, err
	}
	if err := copier.Copy(&body.CurrentCharacter, turnCtx.CurrentPersona); err != nil {
		return requestBody{}, err
	}
	if err := copier.Copy(&body.ActiveCharacters, turnCtx.ActivePersonas); err != nil {
		return requestBody{}, err
	}

	body.RecentMessages = make([]messagePayload, 0, len(turnCtx.RecentMessages))
	for _, msg := range turnCtx.RecentMessages {
		body.RecentMessages = append(body.RecentMessages, messagePayload{
			ID:             msg.ID,
			GroupID:        msg.GroupID,
			CharacterID:    msg.PersonaID,
			Content:        msg.Content,
			MessageType:    string(msg.Kind),
			IsAIGenerated:  msg.IsGenerated,
			ResponseTimeMs: msg.ResponseTimeMs,
			Timestamp:      msg.Timestamp,
		})
	}

	return body, nil
}

// parseGeneratedAt tolerates backends that send timestamps without a zone
// offset. An unparsable value falls back to the receive time.
func parseGeneratedAt(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}
