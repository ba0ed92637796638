package cache

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/propdeck/pkg/debug"
	"github.com/vanderheijden86/propdeck/pkg/metrics"
	"github.com/vanderheijden86/propdeck/pkg/model"
)

// DefaultTTL is how long a cached record set stays valid.
const DefaultTTL = 15 * time.Minute

// envelope is the persisted value layout: the record set plus the store
// timestamp, keyed by data-source identifier.
type envelope struct {
	Data      []model.Record `json:"data"`
	Timestamp int64          `json:"timestamp"`
}

// Option configures a RemoteDataCache.
type Option func(*RemoteDataCache)

// WithTTL overrides the entry time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(c *RemoteDataCache) { c.ttl = ttl }
}

// WithPersistent attaches a persistent tier. A nil store leaves the cache
// memory-only, which is also the degraded mode when the sqlite backend
// failed to open.
func WithPersistent(store Store) Option {
	return func(c *RemoteDataCache) { c.persistent = store }
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(c *RemoteDataCache) { c.now = now }
}

// RemoteDataCache fronts record-set fetches with a memory tier and an
// optional persistent tier. An entry is valid while now-timestamp < TTL;
// expired entries are treated as misses, not deleted eagerly.
//
// Concurrent loads for the same key are coalesced: a caller arriving while a
// fetch is in flight shares its result instead of issuing a duplicate
// request.
type RemoteDataCache struct {
	ttl        time.Duration
	memory     *MemoryStore
	persistent Store
	group      singleflight.Group
	now        func() time.Time
}

// New builds a cache with an empty memory tier.
func New(opts ...Option) *RemoteDataCache {
	c := &RemoteDataCache{
		ttl:    DefaultTTL,
		memory: NewMemoryStore(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *RemoteDataCache) TTL() time.Duration { return c.ttl }

// Get returns the cached record set for key, ok=false on miss or expiry.
// The memory tier is consulted first; a persistent hit is promoted into
// memory.
func (c *RemoteDataCache) Get(key string) ([]model.Record, bool) {
	if recs, ok := c.fromStore(c.memory, key); ok {
		metrics.MemoryCache.Hit()
		return recs, true
	}
	metrics.MemoryCache.Miss()
	if c.persistent == nil {
		return nil, false
	}
	recs, ok := c.fromStore(c.persistent, key)
	if !ok {
		metrics.PersistentCache.Miss()
		return nil, false
	}
	metrics.PersistentCache.Hit()
	c.storeInto(c.memory, key, recs)
	return recs, true
}

// Set stores the record set under key in both tiers.
func (c *RemoteDataCache) Set(key string, recs []model.Record) {
	c.storeInto(c.memory, key, recs)
	if c.persistent != nil {
		c.storeInto(c.persistent, key, recs)
	}
}

// Invalidate drops key from both tiers.
func (c *RemoteDataCache) Invalidate(key string) {
	_ = c.memory.Delete(key)
	if c.persistent != nil {
		if err := c.persistent.Delete(key); err != nil {
			debug.Log("cache invalidate %q: %v", key, err)
		}
	}
}

// Load returns the cached record set for key, fetching on a miss. fetch runs
// at most once per key at a time; coalesced callers get the same result.
// With force, the cache is bypassed (and overwritten) outright.
func (c *RemoteDataCache) Load(ctx context.Context, key string, force bool, fetch func(ctx context.Context) (FetchResult, error)) (FetchResult, error) {
	if !force {
		if recs, ok := c.Get(key); ok {
			return FetchResult{Records: recs, Complete: true}, nil
		}
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight lock: the winner of a concurrent race
		// has usually populated the cache by the time the loser gets here.
		if !force {
			if recs, ok := c.Get(key); ok {
				return FetchResult{Records: recs, Complete: true}, nil
			}
		}
		res, err := fetch(ctx)
		if err != nil {
			return FetchResult{}, err
		}
		// Only complete sets are cached; a partial result is served for this
		// load but the next one retries the fetch.
		if res.Complete && len(res.Records) > 0 {
			c.Set(key, res.Records)
		}
		return res, nil
	})
	if err != nil {
		return FetchResult{}, err
	}
	return v.(FetchResult), nil
}

func (c *RemoteDataCache) fromStore(store Store, key string) ([]model.Record, bool) {
	payload, ok, err := store.Get(key)
	if err != nil {
		debug.Log("cache read %q: %v", key, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		debug.Log("cache decode %q: %v", key, err)
		return nil, false
	}
	age := c.now().Sub(time.UnixMilli(env.Timestamp))
	if age >= c.ttl {
		return nil, false
	}
	return env.Data, true
}

func (c *RemoteDataCache) storeInto(store Store, key string, recs []model.Record) {
	payload, err := json.Marshal(envelope{Data: recs, Timestamp: c.now().UnixMilli()})
	if err != nil {
		debug.Log("cache encode %q: %v", key, err)
		return
	}
	if err := store.Set(key, payload); err != nil {
		debug.Log("cache write %q: %v", key, err)
	}
}
