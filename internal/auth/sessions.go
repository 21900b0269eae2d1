package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore tracks live session ids in Redis so that deactivating a user
// revokes their sessions immediately. The store is optional: with a nil
// client every session the token manager signed is considered live, and
// revocation falls back to token expiry.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore over an optional Redis client
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    12 * time.Hour,
	}
}

func sessionKey(jti string) string {
	return "session:" + jti
}

func userSessionsKey(userID string) string {
	return "user_sessions:" + userID
}

// Save records a freshly issued session
func (s *SessionStore) Save(ctx context.Context, jti, userID string) error {
	if s.client == nil {
		return nil
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(jti), userID, s.ttl)
	pipe.SAdd(ctx, userSessionsKey(userID), jti)
	pipe.Expire(ctx, userSessionsKey(userID), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Valid reports whether a session id is still live
func (s *SessionStore) Valid(ctx context.Context, jti string) bool {
	if s.client == nil {
		return true
	}
	n, err := s.client.Exists(ctx, sessionKey(jti)).Result()
	if err != nil {
		// Redis being down should not lock every user out
		return true
	}
	return n > 0
}

// Revoke removes a single session (logout)
func (s *SessionStore) Revoke(ctx context.Context, jti, userID string) error {
	if s.client == nil {
		return nil
	}
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(jti))
	pipe.SRem(ctx, userSessionsKey(userID), jti)
	_, err := pipe.Exec(ctx)
	return err
}

// RevokeUser removes every live session of a user (deactivation)
func (s *SessionStore) RevokeUser(ctx context.Context, userID string) error {
	if s.client == nil {
		return nil
	}
	jtis, err := s.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, jti := range jtis {
		pipe.Del(ctx, sessionKey(jti))
	}
	pipe.Del(ctx, userSessionsKey(userID))
	_, err = pipe.Exec(ctx)
	return err
}
