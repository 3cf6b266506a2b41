// Package dialogue drives simulated multi-persona conversations inside
// chat groups: it owns per-group conversation state, selects the next
// speaking persona, obtains a response through the connector chain and
// paces turns so the conversation reads organically.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/bakchodai/banter-core/core/connectors"
	"github.com/bakchodai/banter-core/core/messaging"
	"github.com/bakchodai/banter-core/core/moods"
	"github.com/bakchodai/banter-core/core/personas"
)

var (
	// ErrEmptyGroup is returned by Start for a group without personas.
	ErrEmptyGroup = errors.New("group has no personas")
	// ErrAlreadyActive is returned by Start when a conversation is
	// already running for the group.
	ErrAlreadyActive = errors.New("conversation already active")
)

// Broadcaster is the downstream notification sink for viewers. Calls are
// fire-and-forget; implementations log their own failures.
type Broadcaster interface {
	BroadcastMessage(ctx context.Context, groupID string, msg messaging.Message)
	BroadcastStatus(ctx context.Context, groupID string, active bool)
}

// Engine is the conversation registry and turn scheduler. It is the only
// component exposed to callers; storage, membership and viewer fan-out
// are collaborators injected at construction.
type Engine struct {
	store   messaging.Store
	members personas.MemberSource

	chain       *connectors.Chain
	broadcaster Broadcaster
	classifier  moods.Classifier
	scheduler   TaskScheduler

	randMu sync.Mutex
	rand   *rand.Rand

	mu     sync.RWMutex
	states map[string]*conversationState

	baseContext context.Context
}

// New creates an engine over the given message store and member source.
// Without WithConnectors the engine still runs, every turn then yields a
// fallback response.
func New(store messaging.Store, members personas.MemberSource, opts ...EngineOption) *Engine {
	e := &Engine{
		store:       store,
		members:     members,
		chain:       connectors.NewChain(nil),
		classifier:  moods.KeywordClassifier{},
		scheduler:   goScheduler{},
		rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
		states:      map[string]*conversationState{},
		baseContext: context.Background(),
	}

	for _, opt := range opts {
		opt(e)
	}

	logger.Info("initialized conversation engine",
		"connectors", len(e.chain.Connectors()))
	return e
}

// Start begins a conversation in the group and returns without waiting
// for the first turn. The first turn is submitted asynchronously.
func (e *Engine) Start(ctx context.Context, group personas.Group) error {
	members, err := e.members.MembersOf(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("reading group membership: %w", err)
	}
	if len(members) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyGroup, group.ID)
	}

	state := newConversationState(group)
	e.mu.Lock()
	if _, exists := e.states[group.ID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyActive, group.ID)
	}
	e.states[group.ID] = state
	e.mu.Unlock()

	logger.InfoContext(ctx, "starting conversation", "group_id", group.ID, "group", group.Name)
	e.broadcastStatus(group.ID, true)

	e.scheduler.Submit(func() {
		e.processTurn(e.baseContext, group.ID)
	})
	return nil
}

// Stop ends the group's conversation. Stopping an unknown or already
// stopped group is a no-op. An in-flight turn is allowed to finish; it
// observes the removed state and does not reschedule.
func (e *Engine) Stop(ctx context.Context, groupID string) {
	e.mu.Lock()
	state := e.states[groupID]
	delete(e.states, groupID)
	if state != nil {
		state.deactivate()
	}
	e.mu.Unlock()

	if state == nil {
		return
	}

	logger.InfoContext(ctx, "stopped conversation", "group_id", groupID)
	e.broadcastStatus(groupID, false)
}

// IsActive reports whether a conversation is running for the group.
func (e *Engine) IsActive(groupID string) bool {
	e.mu.RLock()
	state := e.states[groupID]
	e.mu.RUnlock()
	return state != nil && state.isActive()
}

// State returns a snapshot of the group's conversation state.
func (e *Engine) State(groupID string) (StateSnapshot, bool) {
	e.mu.RLock()
	state := e.states[groupID]
	e.mu.RUnlock()
	if state == nil {
		return StateSnapshot{}, false
	}
	return state.snapshot(), true
}

// lookup returns the registered state for the group, or nil.
func (e *Engine) lookup(groupID string) *conversationState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.states[groupID]
}

// remove unregisters the state if it is still the registered one, used on
// terminal turn failures. Lock order is always engine before state.
func (e *Engine) remove(groupID string, state *conversationState) {
	e.mu.Lock()
	if e.states[groupID] == state {
		delete(e.states, groupID)
	}
	state.deactivate()
	e.mu.Unlock()

	e.broadcastStatus(groupID, false)
}

func (e *Engine) broadcastStatus(groupID string, active bool) {
	if e.broadcaster == nil {
		return
	}
	e.broadcaster.BroadcastStatus(e.baseContext, groupID, active)
}
