// Package redisstore keeps the short-lived auth state the API shares
// between instances: login attempt counters and revoked token ids.
package redisstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "ratelimit:login:" // ratelimit:login:<ip>
	revokedPrefix   = "revoked:jti:"     // revoked:jti:<token id>
)

// allowScript increments the counter and opens the window on the first
// hit in one step, so a counter can never outlive its window.
var allowScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Store wraps a redis client. A nil *Store is valid and behaves as if
// every request is allowed and no token is revoked.
type Store struct {
	client *redis.Client
}

// Connect dials redis and pings it. addr is either host:port or a
// redis:// URL.
func Connect(ctx context.Context, addr, password string) (*Store, error) {
	opts := &redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if password != "" {
			parsed.Password = password
		}
		opts = parsed
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return New(client), nil
}

// New wraps an existing client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Allow counts one attempt for key inside a fixed window and reports
// whether it is within max. remaining never goes below zero.
func (s *Store) Allow(ctx context.Context, key string, max int, window time.Duration) (allowed bool, remaining int, err error) {
	if s == nil || s.client == nil {
		return true, max, nil
	}

	count, err := allowScript.Run(ctx, s.client, []string{rateLimitPrefix + key}, window.Milliseconds()).Int64()
	if err != nil {
		return true, max, err
	}

	remaining = max - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return int(count) <= max, remaining, nil
}

// Reset clears the attempt counter for key.
func (s *Store) Reset(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, rateLimitPrefix+key).Err()
}

// Revoke marks a token id as unusable until it would have expired anyway.
func (s *Store) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if s == nil || s.client == nil {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err()
}

// IsRevoked reports whether Revoke was called for tokenID.
func (s *Store) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s == nil || s.client == nil {
		return false, nil
	}
	n, err := s.client.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
