package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// blobTTL keeps abandoned state from accumulating in Redis. Active state is
// rewritten on every mutation, so a long TTL is safe.
const blobTTL = 30 * 24 * time.Hour

// RedisStore persists blobs in Redis with an in-memory fallback so trade
// management keeps working through a Redis outage.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	logger    zerolog.Logger
	fallback  map[string][]byte
	mu        sync.RWMutex
	available atomic.Bool
}

// NewRedisStore creates a RedisStore and probes connectivity once. A failed
// probe is not fatal; the store starts in fallback mode and retries on use.
func NewRedisStore(client *redis.Client, prefix string, logger zerolog.Logger) *RedisStore {
	s := &RedisStore{
		client:   client,
		prefix:   prefix,
		logger:   logger,
		fallback: make(map[string][]byte),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, starting in fallback mode")
	} else {
		s.available.Store(true)
	}
	return s
}

func (s *RedisStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err == nil {
		s.available.Store(true)
		return value, nil
	}
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}

	s.available.Store(false)
	s.logger.Warn().Err(err).Str("key", key).Msg("redis get failed, serving fallback cache")

	s.mu.RLock()
	defer s.mu.RUnlock()
	cached, ok := s.fallback[key]
	if !ok {
		return nil, ErrNotFound
	}
	return cached, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.fallback[key] = stored
	s.mu.Unlock()

	if err := s.client.Set(ctx, s.key(key), value, blobTTL).Err(); err != nil {
		s.available.Store(false)
		s.logger.Warn().Err(err).Str("key", key).Msg("redis set failed, kept in fallback cache")
		return nil
	}
	s.available.Store(true)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.fallback, key)
	s.mu.Unlock()

	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		s.available.Store(false)
		s.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
		return nil
	}
	s.available.Store(true)
	return nil
}

// Available reports whether the last Redis operation succeeded.
func (s *RedisStore) Available() bool {
	return s.available.Load()
}
