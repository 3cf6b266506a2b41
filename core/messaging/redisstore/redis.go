// Package redisstore provides a Redis-backed messaging.Store for
// deployments where message history must outlive the process.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bakchodai/banter-core/core/messaging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for per-group message lists
	messageKeyPrefix = "messages:"
	// maxHistory bounds the stored history per group; the recent window
	// only ever needs the tail of the list.
	maxHistory = 500
)

// Store implements messaging.Store over a Redis list per group.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Redis-backed message store. A non-positive ttl keeps
// history indefinitely (up to maxHistory entries per group).
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Save implements messaging.Store.
// Assigns the message ID and timestamp, appends it to the group's list and
// trims the list to the retained history size.
func (s *Store) Save(ctx context.Context, msg messaging.Message) (messaging.Message, error) {
	msg.ID = uuid.NewString()
	msg.Timestamp = time.Now()

	val, err := json.Marshal(msg)
	if err != nil {
		return messaging.Message{}, fmt.Errorf("error marshalling message: %w", err)
	}

	key := s.key(msg.GroupID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, val)
	pipe.LTrim(ctx, key, -maxHistory, -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return messaging.Message{}, fmt.Errorf("error persisting message: %w", err)
	}

	return msg, nil
}

// Recent implements messaging.Store.
// Returns the tail of the group's list, oldest first. A missing key is an
// empty history, not an error.
func (s *Store) Recent(ctx context.Context, groupID string, limit int) ([]messaging.Message, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}

	vals, err := s.client.LRange(ctx, s.key(groupID), start, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading recent messages: %w", err)
	}

	recent := make([]messaging.Message, 0, len(vals))
	for _, val := range vals {
		var msg messaging.Message
		if err := json.Unmarshal([]byte(val), &msg); err != nil {
			return nil, fmt.Errorf("error unmarshalling message: %w", err)
		}
		recent = append(recent, msg)
	}
	return recent, nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

// key constructs the Redis key for a group's message list.
func (s *Store) key(groupID string) string {
	return messageKeyPrefix + groupID
}
