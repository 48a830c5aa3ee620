package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"marketfeed/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Entry is a cached lookup; Found=false records a known-unknown postal code
type Entry struct {
	Point Point `json:"point"`
	Found bool  `json:"found"`
}

// Cache stores lookups; implementations swallow their own failures
type Cache interface {
	Get(ctx context.Context, zip string) (Entry, bool)
	Set(ctx context.Context, zip string, e Entry, ttl time.Duration)
}

// kv is the slice of *redis.Client the cache needs
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache keeps entries under geo:zip:<zip> as JSON
type RedisCache struct {
	c kv
}

// NewRedisCache wraps a redis client
func NewRedisCache(c kv) *RedisCache { return &RedisCache{c: c} }

func redisKey(zip string) string { return "geo:zip:" + zip }

// Get returns a cached entry; misses and redis failures both read as a miss
func (r *RedisCache) Get(ctx context.Context, zip string) (Entry, bool) {
	raw, err := r.c.Get(ctx, redisKey(zip)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.C(ctx).Warn().Err(err).Str("zip", zip).Msg("geocode cache get failed")
		}
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false
	}
	return e, true
}

// Set stores an entry with ttl
func (r *RedisCache) Set(ctx context.Context, zip string, e Entry, ttl time.Duration) {
	b, _ := json.Marshal(e)
	if err := r.c.Set(ctx, redisKey(zip), b, ttl).Err(); err != nil {
		logger.C(ctx).Warn().Err(err).Str("zip", zip).Msg("geocode cache set failed")
	}
}

type memEntry struct {
	e   Entry
	exp time.Time
}

// MemCache is the in-process fallback used when redis is disabled
type MemCache struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now func() time.Time
}

// NewMemCache returns an empty MemCache
func NewMemCache() *MemCache {
	return &MemCache{m: map[string]memEntry{}, now: time.Now}
}

// Get returns an unexpired entry
func (c *MemCache) Get(_ context.Context, zip string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	me, ok := c.m[zip]
	if !ok {
		return Entry{}, false
	}
	if c.now().After(me.exp) {
		delete(c.m, zip)
		return Entry{}, false
	}
	return me.e, true
}

// Set stores an entry with ttl
func (c *MemCache) Set(_ context.Context, zip string, e Entry, ttl time.Duration) {
	c.mu.Lock()
	c.m[zip] = memEntry{e: e, exp: c.now().Add(ttl)}
	c.mu.Unlock()
}
