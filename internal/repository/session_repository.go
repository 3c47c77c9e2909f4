package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionRepository keeps the set of live login sessions in Redis.
// Key format:
//
//	session:<session_id>      -> user id, expires with the token
//	user_sessions:<user_id>   -> set of session ids
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func (r *SessionRepository) Create(ctx context.Context, sessionID string, userID uuid.UUID, ttl time.Duration) error {
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sessionID), userID.String(), ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), sessionID)
	pipe.Expire(ctx, userSessionsKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Lookup returns the user bound to sessionID, or uuid.Nil and false if the
// session does not exist or has expired.
func (r *SessionRepository) Lookup(ctx context.Context, sessionID string) (uuid.UUID, bool, error) {
	val, err := r.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("lookup session: %w", err)
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("lookup session: %w", err)
	}
	return userID, true, nil
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID string, userID uuid.UUID) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID))
	pipe.SRem(ctx, userSessionsKey(userID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteAll revokes every session of the user and returns how many live
// sessions were removed.
func (r *SessionRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	ids, err := r.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, sessionKey(id))
	}

	pipe := r.client.TxPipeline()
	var removed *redis.IntCmd
	if len(keys) > 0 {
		removed = pipe.Del(ctx, keys...)
	}
	pipe.Del(ctx, userSessionsKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}

	if removed == nil {
		return 0, nil
	}
	return removed.Val(), nil
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func userSessionsKey(userID uuid.UUID) string {
	return "user_sessions:" + userID.String()
}
