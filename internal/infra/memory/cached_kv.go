package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"quizwise-service/internal/storage"
	"golang.org/x/sync/singleflight"
)

// CachedKV is a read-through cache in front of a slower storage.KV (Redis, Postgres).
// Writes go to the backend first and then refresh the cached copy; concurrent
// misses for the same key share one backend read.
type CachedKV struct {
	backend storage.KV
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedValue
	// gen counts writes per key; a read that started before a write must not
	// cache its result
	gen map[string]uint64
}

type cachedValue struct {
	value     string
	found     bool
	expiresAt time.Time
}

type lookup struct {
	value string
	found bool
}

func NewCachedKV(backend storage.KV, ttl time.Duration) *CachedKV {
	return &CachedKV{
		backend: backend,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedValue),
		gen:     make(map[string]uint64),
	}
}

func (c *CachedKV) Get(ctx context.Context, key string) (string, bool, error) {
	if entry, ok := c.fresh(key); ok {
		return entry.value, entry.found, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		if entry, ok := c.fresh(key); ok {
			return lookup{value: entry.value, found: entry.found}, nil
		}

		gen := c.generation(key)
		value, found, err := c.backend.Get(ctx, key)
		if err != nil {
			return lookup{}, err
		}
		c.storeAt(key, value, found, gen)
		return lookup{value: value, found: found}, nil
	})
	if err != nil {
		return "", false, err
	}
	l := result.(lookup)
	return l.value, l.found, nil
}

func (c *CachedKV) Set(ctx context.Context, key, value string) error {
	err := c.backend.Set(ctx, key, value)
	// later reads must not join a flight that began before this write
	c.sf.Forget(key)

	c.mu.Lock()
	c.gen[key]++
	gen := c.gen[key]
	if err != nil {
		delete(c.cache, key)
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.storeAt(key, value, true, gen)
	return nil
}

// Keys always asks the backend; other writers may have added keys.
func (c *CachedKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	return c.backend.Keys(ctx, prefix)
}

func (c *CachedKV) fresh(key string) (cachedValue, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[key]
	if !ok || !entry.expiresAt.After(now) {
		return cachedValue{}, false
	}
	return entry, true
}

func (c *CachedKV) generation(key string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen[key]
}

// storeAt caches value unless a write newer than gen has landed.
func (c *CachedKV) storeAt(key, value string, found bool, gen uint64) {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[key] != gen {
		return
	}
	c.cache[key] = cachedValue{
		value:     value,
		found:     found,
		expiresAt: c.clock().Add(ttl),
	}
}

func (c *CachedKV) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
