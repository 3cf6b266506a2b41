package dialogue

import (
	"context"
	"time"

	"github.com/bakchodai/banter-core/core/messaging"
	"github.com/bakchodai/banter-core/core/moods"
	"github.com/bakchodai/banter-core/core/personas"
	"github.com/bakchodai/banter-core/core/responses"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// maxRecentMessages bounds the context window sent to backends.
const maxRecentMessages = 20

// processTurn runs one full turn for the group: select speaker, build
// context, obtain a response, persist it, update mood and reschedule.
// It is always invoked through the scheduler; within one group the next
// turn never starts before this one has completed.
func (e *Engine) processTurn(ctx context.Context, groupID string) {
	ctx, span := tracer.Start(ctx, "process conversation turn")
	defer span.End()
	span.SetAttributes(attribute.String("turn.group_id", groupID))

	state := e.lookup(groupID)
	if state == nil || !state.isActive() {
		logger.DebugContext(ctx, "no active conversation for group", "group_id", groupID)
		return
	}
	state.clearPendingTurn()

	// No panic may escape a scheduled turn task; it ends this group's
	// loop only, other groups keep running.
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "turn processing panicked, stopping conversation",
				"group_id", groupID, "panic", r)
			span.SetStatus(codes.Error, "turn processing panicked")
			e.remove(groupID, state)
		}
	}()

	snapshot := state.snapshot()

	members, err := e.members.MembersOf(ctx, groupID)
	if err != nil {
		span.RecordError(err)
		logger.ErrorContext(ctx, "failed to read group membership, stopping conversation",
			"group_id", groupID, "error", err)
		e.remove(groupID, state)
		return
	}
	if len(members) == 0 {
		logger.WarnContext(ctx, "group has no personas left, stopping conversation",
			"group_id", groupID)
		e.remove(groupID, state)
		return
	}

	// Round-robin over the membership as it is now; a shrunk member list
	// wraps on the current size instead of failing.
	speaker := members[snapshot.TurnNumber%len(members)]
	span.SetAttributes(
		attribute.Int("turn.number", snapshot.TurnNumber),
		attribute.String("turn.speaker", speaker.Name),
	)
	logger.InfoContext(ctx, "processing conversation turn",
		"group_id", groupID, "turn", snapshot.TurnNumber, "speaker", speaker.Name)

	turnCtx := e.buildContext(ctx, snapshot, speaker, members)

	// The chain never fails; every turn yields a displayable response.
	response := e.chain.Generate(ctx, turnCtx)

	saved, err := e.store.Save(ctx, messaging.Message{
		GroupID:        groupID,
		PersonaID:      speaker.ID,
		Content:        response.Content,
		Kind:           response.Kind,
		IsGenerated:    true,
		ResponseTimeMs: response.ResponseTimeMs,
	})
	if err != nil {
		// Persistence failures are terminal for this group's loop only.
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist message")
		logger.ErrorContext(ctx, "failed to persist message, stopping conversation",
			"group_id", groupID, "error", err)
		e.remove(groupID, state)
		return
	}
	logger.InfoContext(ctx, "saved generated message",
		"group_id", groupID, "message_id", saved.ID, "speaker", speaker.Name,
		"content", response.TruncatedContent(50))

	if e.broadcaster != nil {
		e.broadcaster.BroadcastMessage(ctx, groupID, saved)
	}

	mood := e.classifier.Classify(response.Content)
	state.completeTurn(mood)

	e.scheduleNextTurn(ctx, groupID, state, mood)
}

// buildContext assembles the immutable snapshot handed to the connector
// chain for this turn.
func (e *Engine) buildContext(ctx context.Context, snapshot StateSnapshot, speaker personas.Persona, members []personas.Persona) *responses.Context {
	recent, err := e.store.Recent(ctx, snapshot.Group.ID, maxRecentMessages)
	if err != nil {
		// A failed window read is transient; the turn proceeds without
		// history rather than dying.
		logger.WarnContext(ctx, "failed to read recent messages",
			"group_id", snapshot.Group.ID, "error", err)
		recent = nil
	}

	activePersonas := make([]personas.Persona, len(members))
	copy(activePersonas, members)

	return &responses.Context{
		Group:          snapshot.Group,
		CurrentPersona: speaker,
		RecentMessages: recent,
		ActivePersonas: activePersonas,
		StartTime:      snapshot.StartTime,
		CurrentTopic:   snapshot.CurrentTopic,
		Mood:           snapshot.Mood,
		AdditionalContext: map[string]any{
			"turnNumber":           snapshot.TurnNumber,
			"characterCount":       len(members),
			"conversationDuration": int64(time.Since(snapshot.StartTime).Minutes()),
		},
	}
}

// scheduleNextTurn arms the timer for the group's next turn, unless the
// conversation was stopped while this turn was in flight. The check and
// the arming happen under the engine lock so a racing Stop either sees
// the timer and cancels it, or wins and the timer is never armed.
func (e *Engine) scheduleNextTurn(ctx context.Context, groupID string, state *conversationState, mood moods.Mood) {
	delay := e.nextDelay(mood)

	e.mu.Lock()
	if e.states[groupID] != state {
		e.mu.Unlock()
		logger.InfoContext(ctx, "conversation no longer registered, not rescheduling",
			"group_id", groupID)
		return
	}

	timer := e.scheduler.After(delay, func() {
		e.processTurn(e.baseContext, groupID)
	})
	if !state.armPendingTurn(timer) {
		timer.Stop()
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	logger.InfoContext(ctx, "scheduled next turn",
		"group_id", groupID, "delay_ms", delay.Milliseconds(), "mood", string(mood))
}
