package respcache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mindmate/respcache/api"
	"github.com/mindmate/respcache/engine"
	"github.com/mindmate/respcache/eviction"
	"github.com/mindmate/respcache/refresh"
	"github.com/mindmate/respcache/shard"
	"github.com/mindmate/respcache/types"
	"golang.org/x/sync/singleflight"
)

var _ api.Cache = (*TTLCache)(nil)

/*
TTLCache is the main cache implementation.
This struct is the orchestrator that connects:
- shards
- expiration
- the optional capacity bound
- the background sweep
- read-through loading
- metrics

There is no package-level instance. The application constructs one and
shares it.
*/
type TTLCache struct {
	// shards are the actual storage units. Each shard is an independent mini-cache.
	shards []*shard.Shard

	// engine contains the "rules" of the cache: clock, TTL, expiration, metrics, logging.
	engine *engine.CacheEngine

	// selector decides which shard a key should go to.
	selector shard.Selector

	cfg Config

	// sf prevents several queries from loading the same key at the same time.
	sf singleflight.Group

	revalidator *refresh.Revalidator
	sweeper     *sweeper

	sweeps    atomic.Uint64
	swept     atomic.Uint64
	lastSweep atomic.Int64

	closeOnce sync.Once
}

// Stats is a point-in-time diagnostic snapshot.
type Stats struct {
	Entries              int           `json:"entries"`
	Shards               int           `json:"shards"`
	MaxEntries           int           `json:"max_entries"`
	Eviction             string        `json:"eviction"`
	DefaultTTL           time.Duration `json:"default_ttl"`
	SweepInterval        time.Duration `json:"sweep_interval"`
	Sweeps               uint64        `json:"sweeps"`
	Swept                uint64        `json:"swept"`
	LastSweep            time.Time     `json:"last_sweep,omitempty"`
	PendingRevalidations int           `json:"pending_revalidations"`
}

/*
New builds a cache and starts its background sweep.

STEPS:
------
1. Fill in defaults
2. Create the shards, each with its own eviction policy when bounded
3. Start the revalidation workers
4. Start the sweeper, unless SweepInterval is negative
*/
func New(cfg Config) *TTLCache {
	cfg = cfg.withDefaults()

	perShard := 0
	if cfg.MaxEntries > 0 {
		perShard = (cfg.MaxEntries + cfg.Shards - 1) / cfg.Shards
	}

	s := make([]*shard.Shard, cfg.Shards)
	for i := range s {
		var ev eviction.Policy
		if perShard > 0 {
			p, err := eviction.NewEvictionPolicy(cfg.Eviction)
			if err != nil {
				cfg.Logger.Warn("unknown eviction policy, using lru", "eviction", cfg.Eviction)
				p, _ = eviction.NewEvictionPolicy(eviction.LRU)
			}
			ev = p
		}
		s[i] = shard.NewShard(perShard, ev)
	}

	c := &TTLCache{
		shards:      s,
		engine:      engine.NewCacheEngine(cfg.Expiration, cfg.Clock, cfg.DefaultTTL, cfg.Metrics, cfg.Logger),
		selector:    shard.HashSelector{},
		cfg:         cfg,
		revalidator: refresh.NewRevalidator(cfg.RevalidateWorkers, cfg.RevalidateQueue),
	}

	if cfg.SweepInterval > 0 {
		c.sweeper = startSweeper(c, cfg.SweepInterval)
	}
	return c
}

func (c *TTLCache) shardFor(key string) *shard.Shard {
	return c.selector.Select(key, c.shards)
}

/*
Get retrieves a value from the cache.

BEHAVIOR:
---------
- Absent key: (nil, false)
- Expired key: removed on the spot, then (nil, false)
- Live key: the stored value, exactly as it was written
*/
func (c *TTLCache) Get(key string) (any, bool) {
	sh := c.shardFor(key)
	now := c.engine.Now()

	sh.Mu.Lock()
	ent, ok := sh.Store.Get(key)
	expired := ok && c.engine.IsExpired(ent, now)
	if expired {
		sh.Remove(key)
	} else if ok {
		c.engine.OnRead(ent, now)
		if sh.Eviction != nil {
			sh.Eviction.OnGet(key)
		}
	}
	var v any
	if ok && !expired {
		v = ent.Value
	}
	sh.Mu.Unlock()

	switch {
	case expired:
		c.engine.Metrics.Expire()
		c.engine.Metrics.Miss()
		return nil, false
	case !ok:
		c.engine.Metrics.Miss()
		return nil, false
	}
	c.engine.Metrics.Hit()
	return v, true
}

// Set stores value under key with the default TTL.
func (c *TTLCache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.engine.DefaultTTL)
}

/*
SetWithTTL stores value under key for ttl.
A write fully replaces whatever was there, including its timestamp and TTL.
Zero and negative TTLs are accepted and the entry is simply dead on arrival.
*/
func (c *TTLCache) SetWithTTL(key string, value any, ttl time.Duration) {
	sh := c.shardFor(key)
	now := c.engine.Now()
	ent := c.engine.NewEntry(key, value, ttl, now)

	sh.Mu.Lock()
	expired, evicted := c.makeRoom(sh, key, now)
	sh.Store.Put(key, ent)
	if sh.Eviction != nil {
		sh.Eviction.OnPut(key)
	}
	sh.Mu.Unlock()

	for i := 0; i < expired; i++ {
		c.engine.Metrics.Expire()
	}
	for i := 0; i < evicted; i++ {
		c.engine.Metrics.Eviction()
	}
}

/*
makeRoom frees one slot in a full bounded shard before a new key is inserted.
Caller holds sh.Mu.

1. Replacing an existing key never needs room
2. Expired entries in the shard go first
3. If the shard is still full, the eviction policy picks a victim
*/
func (c *TTLCache) makeRoom(sh *shard.Shard, key string, now time.Time) (expired, evicted int) {
	if !sh.Bounded() {
		return 0, 0
	}
	if _, exists := sh.Store.Get(key); exists {
		return 0, 0
	}
	if sh.Store.Len() < sh.Capacity {
		return 0, 0
	}

	sh.Store.Range(func(k string, ent *types.CacheEntry) bool {
		if c.engine.IsExpired(ent, now) {
			sh.Remove(k)
			expired++
		}
		return true
	})

	for sh.Store.Len() >= sh.Capacity {
		victim := sh.Eviction.Evict()
		if victim == "" {
			break
		}
		sh.Store.Delete(victim)
		evicted++
	}
	return expired, evicted
}

// Has reports whether key is present and live. It has exactly Get's side effects.
func (c *TTLCache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

/*
Delete removes a key from the cache immediately.
Removing a key that does not exist is safe.
*/
func (c *TTLCache) Delete(key string) {
	sh := c.shardFor(key)

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	sh.Remove(key)
}

// Clear removes every entry.
func (c *TTLCache) Clear() {
	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.Reset()
		sh.Mu.Unlock()
	}
}

/*
Size returns how many entries are physically stored, including entries that
have expired but were not yet swept. It is a diagnostic, not a count of live keys.
*/
func (c *TTLCache) Size() int {
	n := 0
	for _, sh := range c.shards {
		sh.Mu.Lock()
		n += sh.Store.Len()
		sh.Mu.Unlock()
	}
	return n
}

/*
SweepExpired removes every entry that is expired at the instant of the call
and returns how many it removed. Live entries are never touched.
*/
func (c *TTLCache) SweepExpired() int {
	now := c.engine.Now()
	removed := 0

	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.Store.Range(func(k string, ent *types.CacheEntry) bool {
			if c.engine.IsExpired(ent, now) {
				sh.Remove(k)
				removed++
			}
			return true
		})
		sh.Mu.Unlock()
	}

	c.sweeps.Add(1)
	c.swept.Add(uint64(removed))
	c.lastSweep.Store(now.UnixNano())
	c.engine.Metrics.Swept(removed)
	return removed
}

/*
Invalidate removes keys matching pattern and returns how many were removed.
A pattern ending in "*" matches every key with that prefix; anything else is an
exact key. Expired entries count too, since they are physically removed.
*/
func (c *TTLCache) Invalidate(pattern string) int {
	prefix, ok := strings.CutSuffix(pattern, "*")
	if !ok {
		sh := c.shardFor(pattern)
		sh.Mu.Lock()
		defer sh.Mu.Unlock()
		if _, exists := sh.Store.Get(pattern); !exists {
			return 0
		}
		sh.Remove(pattern)
		return 1
	}

	removed := 0
	for _, sh := range c.shards {
		sh.Mu.Lock()
		sh.Store.Range(func(k string, _ *types.CacheEntry) bool {
			if strings.HasPrefix(k, prefix) {
				sh.Remove(k)
				removed++
			}
			return true
		})
		sh.Mu.Unlock()
	}
	return removed
}

/*
TTL returns the remaining time-to-live for a key.

RETURN VALUES:
--------------
>= 0 : Duration remaining before expiration
-2   : Key does not exist or is already expired
*/
func (c *TTLCache) TTL(key string) time.Duration {
	sh := c.shardFor(key)
	now := c.engine.Now()

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	ent, ok := sh.Store.Get(key)
	if !ok {
		return -2
	}
	if c.engine.IsExpired(ent, now) {
		sh.Remove(key)
		return -2
	}
	return c.engine.Remaining(ent, now)
}

/*
Expire gives a live key a new TTL counted from now.
Returns false, and changes nothing, when the key is absent or expired.
*/
func (c *TTLCache) Expire(key string, ttl time.Duration) bool {
	sh := c.shardFor(key)
	now := c.engine.Now()

	sh.Mu.Lock()
	defer sh.Mu.Unlock()

	ent, ok := sh.Store.Get(key)
	if !ok {
		return false
	}
	if c.engine.IsExpired(ent, now) {
		sh.Remove(key)
		return false
	}
	ent.TTL = ttl
	c.engine.Expiration.OnWrite(ent, now)
	return true
}

// Stats returns a snapshot of the cache's size, configuration and sweep history.
func (c *TTLCache) Stats() Stats {
	st := Stats{
		Entries:              c.Size(),
		Shards:               len(c.shards),
		MaxEntries:           c.cfg.MaxEntries,
		DefaultTTL:           c.cfg.DefaultTTL,
		SweepInterval:        c.cfg.SweepInterval,
		Sweeps:               c.sweeps.Load(),
		Swept:                c.swept.Load(),
		PendingRevalidations: c.revalidator.Pending(),
	}
	if c.cfg.MaxEntries > 0 {
		st.Eviction = string(c.cfg.Eviction)
	}
	if ns := c.lastSweep.Load(); ns != 0 {
		st.LastSweep = time.Unix(0, ns).UTC()
	}
	return st
}

/*
Close stops background work: the sweeper and the revalidation workers.
The cache itself keeps working afterwards; only the goroutines are gone.
Calling Close more than once is safe.
*/
func (c *TTLCache) Close() {
	c.closeOnce.Do(func() {
		if c.sweeper != nil {
			c.sweeper.stop()
		}
		c.revalidator.Close()
		c.engine.Logger.Info("cache closed", "entries", c.Size())
	})
}
