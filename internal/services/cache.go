package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned when a key is absent, expired past the
// caller's maxAge, or stored in an unreadable form. Corruption is a miss,
// never a fatal error.
var ErrCacheMiss = errors.New("cache miss")

// Store is the raw key-value backend behind ScoreCache. Production uses
// redis so cached scores survive restarts; tests inject MemoryStore.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// CacheEntry is the stored envelope: the payload plus when and where it
// came from.
type CacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch-ms
	Source    string          `json:"source"`
}

// CacheHit describes a successful read.
type CacheHit struct {
	Age    time.Duration
	Source string
}

// ScoreCache keeps the single most-recent result per logical key. Writes
// overwrite; reads honor a caller-supplied maxAge, where maxAge == 0
// means "ignore age entirely" and is reserved for the last-resort
// fallback path.
type ScoreCache struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time
}

// NewScoreCache creates a cache over the given backend.
func NewScoreCache(store Store, logger *logrus.Logger) *ScoreCache {
	return &ScoreCache{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Set stores value under key, stamping it with the current time and the
// source that produced it.
func (c *ScoreCache) Set(ctx context.Context, key string, value interface{}, source string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	entry := CacheEntry{
		Data:      data,
		Timestamp: c.now().UnixMilli(),
		Source:    source,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := c.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Get reads key into dest if a stored entry exists and is younger than
// maxAge. maxAge == 0 disables the age check. Returns ErrCacheMiss on an
// absent, expired, or corrupt entry.
func (c *ScoreCache) Get(ctx context.Context, key string, maxAge time.Duration, dest interface{}) (*CacheHit, error) {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.WithField("key", key).Warn("Discarding corrupt cache entry")
		return nil, ErrCacheMiss
	}

	age := c.now().Sub(time.UnixMilli(entry.Timestamp))
	if maxAge > 0 && age > maxAge {
		return nil, ErrCacheMiss
	}

	if err := json.Unmarshal(entry.Data, dest); err != nil {
		c.logger.WithField("key", key).Warn("Discarding cache entry with unreadable payload")
		return nil, ErrCacheMiss
	}

	return &CacheHit{Age: age, Source: entry.Source}, nil
}

// Delete drops a key.
func (c *ScoreCache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Cache key generators
func LeaderboardCacheKey() string {
	return "leaderboardData"
}

func TournamentStateCacheKey() string {
	return "tournamentState"
}

// RedisStore backs ScoreCache with redis. Entries are written without a
// redis TTL: age-based expiry is the cache's job, and the last-resort
// read path needs arbitrarily old data to still be there.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemoryStore is the in-process backend used in tests and when no redis
// is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make([]byte, len(value))
	copy(data, value)
	s.entries[key] = data
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
