package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ColasDroin/SpeedStats-V2-public/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// scanCount is the COUNT hint of the SCAN calls issued by Purge.
const scanCount = 200

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// Manager stores raw response bodies in Redis under CacheKey strings.
type Manager struct {
	redis  redis.UniversalClient
	ttl    time.Duration
	logger zerolog.Logger
}

// NewManager creates a cache manager. A non-positive ttl falls back to
// DefaultTTL.
func NewManager(redisClient redis.UniversalClient, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		redis:  redisClient,
		ttl:    ttl,
		logger: logging.NewLogger("cache"),
	}
}

// TTL returns the lifetime given to stored entries.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Get returns the entry stored under key, or ErrCacheMiss. An entry found
// past its expiry is deleted and reported as a miss.
func (m *Manager) Get(ctx context.Context, key CacheKey) (*CacheEntry, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}
	if err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.IsExpired() {
		_ = m.Delete(ctx, key)
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.Inc()
	m.logger.Debug().
		Str("key", key.String()).
		Dur("age", entry.Age()).
		Msg("Cache hit")
	return &entry, nil
}

// Set writes entry under key with a Redis TTL matching its expiry. Expired
// entries are silently dropped.
func (m *Manager) Set(ctx context.Context, key CacheKey, entry *CacheEntry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	ttl := entry.TTL()
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheStoredBytes.Add(float64(len(entry.Data)))
	return nil
}

// Store caches a response body under key for the manager's TTL.
func (m *Manager) Store(ctx context.Context, key CacheKey, data []byte) error {
	return m.Set(ctx, key, NewEntry(key.Endpoint, data, m.ttl))
}

// Delete removes the entry stored under key.
func (m *Manager) Delete(ctx context.Context, key CacheKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Purge removes every entry cached for the given endpoint of an API
// version, whatever its parameters, and returns how many were removed.
func (m *Manager) Purge(ctx context.Context, version int, endpoint string) (int, error) {
	base := CacheKey{Version: version, Endpoint: endpoint}.String()

	var keys []string
	iter := m.redis.Scan(ctx, 0, globEscaper.Replace(base)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		// The glob also matches longer endpoint names sharing the prefix.
		if k := iter.Val(); k == base || strings.HasPrefix(k, base+":") {
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		CacheErrors.WithLabelValues("purge").Inc()
		return 0, fmt.Errorf("redis scan: %w", err)
	}

	removed := 0
	for start := 0; start < len(keys); start += scanCount {
		end := min(start+scanCount, len(keys))
		n, err := m.redis.Del(ctx, keys[start:end]...).Result()
		if err != nil {
			CacheErrors.WithLabelValues("purge").Inc()
			return removed, fmt.Errorf("redis del: %w", err)
		}
		removed += int(n)
	}

	CachePurged.Add(float64(removed))
	m.logger.Debug().
		Int("version", version).
		Str("endpoint", endpoint).
		Int("removed", removed).
		Msg("Purged cached endpoint")
	return removed, nil
}
