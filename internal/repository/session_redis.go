package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/servicedesk/servicedesk/internal/model"
)

const redisSessionPrefix = "session:"

// redisSessionRepository keeps sessions in Redis with a TTL matching the
// session expiry, so expired records vanish without a sweeper.
type redisSessionRepository struct {
	client *redis.Client
}

func NewRedisSessionRepository(client *redis.Client) SessionRepository {
	return &redisSessionRepository{client: client}
}

func (r *redisSessionRepository) key(id string) string {
	return redisSessionPrefix + id
}

func (r *redisSessionRepository) Create(ctx context.Context, session *model.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session expires_at must be in the future")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return r.client.Set(ctx, r.key(session.ID), data, ttl).Err()
}

func (r *redisSessionRepository) ByID(ctx context.Context, id string) (*model.Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	session := &model.Session{}
	err = json.Unmarshal([]byte(val), session)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return session, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// DeleteExpired is a no-op: Redis evicts sessions via key TTL.
func (r *redisSessionRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	return nil
}
