package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	revokedTokenPrefix = "auth:revoked:"
	loginFailurePrefix = "auth:failures:"
)

// SessionRepository keeps short-lived authentication state in Redis: revoked
// token ids and failed login counters. With a nil client every call is a no-op.
type SessionRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, logger *zap.Logger) *SessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		logger.Warn("redis disabled; token revocation and login throttling are inactive")
	}
	return &SessionRepository{client: client, logger: logger}
}

// RevokeToken marks the token id as revoked until ttl elapses.
func (r *SessionRepository) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if r.client == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	key := revokedTokenPrefix + jti
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// IsRevoked reports whether the token id has been revoked.
func (r *SessionRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r.client == nil || jti == "" {
		return false, nil
	}
	key := revokedTokenPrefix + jti
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// RegisterLoginFailure increments the failure counter for email and returns the
// new count. The counter expires window after the first failure.
func (r *SessionRepository) RegisterLoginFailure(ctx context.Context, email string, window time.Duration) (int, error) {
	if r.client == nil {
		return 0, nil
	}
	key := failureKey(email)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", key, err)
	}
	return int(incr.Val()), nil
}

// LoginFailures returns the current failure count for email.
func (r *SessionRepository) LoginFailures(ctx context.Context, email string) (int, error) {
	if r.client == nil {
		return 0, nil
	}
	key := failureKey(email)
	n, err := r.client.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get %s: %w", key, err)
	}
	return n, nil
}

// ResetLoginFailures clears the failure counter for email.
func (r *SessionRepository) ResetLoginFailures(ctx context.Context, email string) error {
	if r.client == nil {
		return nil
	}
	key := failureKey(email)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *SessionRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func failureKey(email string) string {
	return loginFailurePrefix + strings.ToLower(strings.TrimSpace(email))
}
