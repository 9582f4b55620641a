// Package session keeps server-side login sessions so logout is real even
// though the cookie itself is a signed token.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/arenignacio/venus-bugtracker/pkg/cache"
)

var ErrNoSession = errors.New("session not found")

type Store interface {
	// Create opens a session for the user and returns its id.
	Create(ctx context.Context, userID string) (string, error)
	// Lookup returns the user id owning a live session.
	Lookup(ctx context.Context, sid string) (string, error)
	Revoke(ctx context.Context, sid string) error
}

const keyPrefix = "venus:session:"

// RedisStore keeps sessions as expiring Redis keys.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore parses the URL and verifies connectivity.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func (s *RedisStore) Create(ctx context.Context, userID string) (string, error) {
	sid := uuid.NewString()
	if err := s.rdb.Set(ctx, keyPrefix+sid, userID, s.ttl).Err(); err != nil {
		return "", err
	}
	return sid, nil
}

func (s *RedisStore) Lookup(ctx context.Context, sid string) (string, error) {
	uid, err := s.rdb.Get(ctx, keyPrefix+sid).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	return uid, err
}

func (s *RedisStore) Revoke(ctx context.Context, sid string) error {
	return s.rdb.Del(ctx, keyPrefix+sid).Err()
}

func (s *RedisStore) Ping(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }

func (s *RedisStore) Close() error { return s.rdb.Close() }

// MemoryStore keeps sessions in process. Sessions do not survive a restart.
type MemoryStore struct {
	c   *cache.Cache[string]
	ttl time.Duration
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New[string](), ttl: ttl}
}

func (s *MemoryStore) Create(_ context.Context, userID string) (string, error) {
	sid := uuid.NewString()
	s.c.Set(keyPrefix+sid, userID, s.ttl)
	return sid, nil
}

func (s *MemoryStore) Lookup(_ context.Context, sid string) (string, error) {
	uid, ok := s.c.Get(keyPrefix + sid)
	if !ok {
		return "", ErrNoSession
	}
	return uid, nil
}

func (s *MemoryStore) Revoke(_ context.Context, sid string) error {
	s.c.Delete(keyPrefix + sid)
	return nil
}

// Sweep drops expired sessions; main runs it on a ticker.
func (s *MemoryStore) Sweep() int { return s.c.Sweep() }
