package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store keeping per-group message history.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: map[string][]Message{}}
}

func (s *MemoryStore) Save(_ context.Context, msg Message) (Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()
	s.messages[msg.GroupID] = append(s.messages[msg.GroupID], msg)
	return msg, nil
}

func (s *MemoryStore) Recent(_ context.Context, groupID string, limit int) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.messages[groupID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	recent := make([]Message, len(history))
	copy(recent, history)
	return recent, nil
}

// Count reports how many messages are stored for a group.
func (s *MemoryStore) Count(groupID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[groupID])
}
