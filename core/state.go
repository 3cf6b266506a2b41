package dialogue

import (
	"sync"
	"time"

	"github.com/bakchodai/banter-core/core/moods"
	"github.com/bakchodai/banter-core/core/personas"
)

// conversationState is the per-group mutable state. It is created on
// Start, removed on Stop or on an unrecoverable persistence failure, and
// mutated only by that group's turn loop; readers get copies via snapshot.
type conversationState struct {
	mu sync.Mutex

	group     personas.Group
	startTime time.Time

	turnNumber      int
	active          bool
	lastMessageTime time.Time
	currentTopic    string
	mood            moods.Mood

	// pendingTurn is the timer armed for the next turn, nil while a turn
	// is in flight. Stop cancels it so a stopped conversation can never
	// be resurrected by a stale reschedule.
	pendingTurn Timer
}

func newConversationState(group personas.Group) *conversationState {
	now := time.Now()
	return &conversationState{
		group:           group,
		startTime:       now,
		active:          true,
		lastMessageTime: now,
		mood:            moods.Casual,
	}
}

// StateSnapshot is a point-in-time view of one group's conversation.
type StateSnapshot struct {
	Group           personas.Group
	StartTime       time.Time
	TurnNumber      int
	Active          bool
	LastMessageTime time.Time
	CurrentTopic    string
	Mood            moods.Mood
}

func (s *conversationState) snapshot() StateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StateSnapshot{
		Group:           s.group,
		StartTime:       s.startTime,
		TurnNumber:      s.turnNumber,
		Active:          s.active,
		LastMessageTime: s.lastMessageTime,
		CurrentTopic:    s.currentTopic,
		Mood:            s.mood,
	}
}

func (s *conversationState) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// completeTurn records the outcome of a finished turn: the turn number
// advances, the last-message time moves and the mood is replaced.
func (s *conversationState) completeTurn(mood moods.Mood) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turnNumber++
	s.lastMessageTime = time.Now()
	s.mood = mood
}

// deactivate marks the state stopped and cancels any pending turn.
func (s *conversationState) deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	if s.pendingTurn != nil {
		s.pendingTurn.Stop()
		s.pendingTurn = nil
	}
}

// armPendingTurn stores the timer for the next turn if the state is still
// active, and reports whether it was stored. A false return means the
// conversation stopped in the meantime and the caller must cancel the
// timer itself.
func (s *conversationState) armPendingTurn(timer Timer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}
	s.pendingTurn = timer
	return true
}

// clearPendingTurn is called at the start of a fired turn.
func (s *conversationState) clearPendingTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingTurn = nil
}
