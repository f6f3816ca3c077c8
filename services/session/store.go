// Package session provides the per-user dialogue state store consumed by the
// dialogue engine. The engine only relies on last-write-wins get/set/delete
// with TTL; whether the backing is Redis or the in-process fallback is
// invisible to it.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"medibot/models"

	"github.com/go-redis/redis/v8"
)

const sessionKeyPrefix = "chat_session:"

// Store is the session persistence contract. Load returns (nil, nil) when no
// session exists for the user.
type Store interface {
	Load(ctx context.Context, userID string) (*models.Session, error)
	Save(ctx context.Context, userID string, s *models.Session) error
	Delete(ctx context.Context, userID string) error
}

// RedisStore keeps sessions in Redis, JSON-marshalled with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a Redis-backed store with the given TTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, userID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+userID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, userID string, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+userID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, sessionKeyPrefix+userID).Err()
}
