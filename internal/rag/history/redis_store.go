package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"empchat/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// Role of a chat history entry.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat session.
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisStore keeps per-session chat history in a Redis list, newest entry
// last. Sessions expire after the configured TTL of inactivity.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewRedisStore creates a new RedisStore. A non-positive ttl disables
// expiration.
func NewRedisStore(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, log: log}
}

// Append adds a message to the end of the session's history and refreshes
// the session TTL.
func (s *RedisStore) Append(ctx context.Context, sessionID string, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	key := sessionKey(sessionID)
	if err := s.client.RPush(ctx, key, data).Err(); err != nil {
		s.log.Error(fmt.Sprintf("Failed to append chat message for session %s: %v", sessionID, err))
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			s.log.Warn(fmt.Sprintf("Failed to refresh TTL for session %s: %v", sessionID, err))
		}
	}
	return nil
}

// Recent returns up to limit most recent messages of the session in
// chronological order. A missing session yields an empty slice.
func (s *RedisStore) Recent(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	raw, err := s.client.LRange(ctx, sessionKey(sessionID), int64(-limit), -1).Result()
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to read chat history for session %s: %v", sessionID, err))
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			s.log.Warn(fmt.Sprintf("Skipping malformed chat history entry in session %s: %v", sessionID, err))
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Clear deletes the session's history.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}

func sessionKey(sessionID string) string {
	return "chat:history:" + sessionID
}
