// Package cache stores login responses in Redis so repeated logins within a
// short window skip password verification and token issuance.
package cache

import (
	"context" // context bounds each Redis round trip
	"errors"  // errors matches redis.Nil
	"time"    // time expresses entry lifetimes

	"github.com/redis/go-redis/v9" // go-redis client shared with the rate limiter
)

// SessionCache is a thin key/value wrapper around a Redis client.  A nil
// client is allowed: Get always misses and Put is a no-op, which is how the
// service behaves when Redis was unreachable at startup.
type SessionCache struct {
	rdb    *redis.Client
	prefix string
}

// NewSessionCache builds a SessionCache whose keys are "<prefix>:<key>".
func NewSessionCache(rdb *redis.Client, prefix string) *SessionCache {
	if prefix == "" {
		prefix = "session"
	}
	return &SessionCache{rdb: rdb, prefix: prefix}
}

// Enabled reports whether a Redis client is configured.
func (s *SessionCache) Enabled() bool { return s != nil && s.rdb != nil }

func (s *SessionCache) key(k string) string { return s.prefix + ":" + k }

// Get returns the stored value and whether it was found.  A missing key is
// not an error.
func (s *SessionCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !s.Enabled() {
		return nil, false, nil
	}
	b, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Put stores value under key for ttl.  A non-positive ttl stores nothing.
func (s *SessionCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !s.Enabled() || ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, s.key(key), value, ttl).Err()
}
