package engine

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mindmate/respcache/expiration"
	"github.com/mindmate/respcache/types"
)

/*
CacheEngine is the "brain" of the cache system.
It is responsible for the "behavior" of the cache, NOT storage.
This acts as the policy layer.

It decides:
- When data is expired
- How entries are stamped on reads/writes
- What time it is
- How metrics are recorded

It does NOT:
- Store data
- Handle sharding
- Handle locking
- Decide eviction order
*/
type CacheEngine struct {

	// Expiration controls when a cache entry should be considered "too old".
	Expiration expiration.Strategy

	// Clock is the single source of "now" for the whole cache.
	// Tests swap in clockwork.NewFakeClock() to simulate time.
	Clock clockwork.Clock

	// DefaultTTL applies to writes that do not name a TTL.
	DefaultTTL time.Duration

	// Metrics is how we keep track of what the cache is doing.
	Metrics types.Metrics

	Logger *slog.Logger
}

/*
NewCacheEngine creates a CacheEngine. Nil collaborators are replaced with
working defaults so the cache never has to nil-check them on the hot path.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	clock clockwork.Clock,
	defaultTTL time.Duration,
	metrics types.Metrics,
	logger *slog.Logger,
) *CacheEngine {
	if exp == nil {
		exp = expiration.ExpireAfterWrite{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CacheEngine{
		Expiration: exp,
		Clock:      clock,
		DefaultTTL: defaultTTL,
		Metrics:    metrics,
		Logger:     logger,
	}
}

// Now reads the engine clock.
func (e *CacheEngine) Now() time.Time {
	return e.Clock.Now()
}

/*
IsExpired checks whether a cache entry is expired at now.
Callers pass now explicitly so one sweep judges every entry against the same instant.
*/
func (e *CacheEngine) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return e.Expiration.IsExpired(ent, now)
}

// Remaining is the lifetime left on ent at now; negative once expired.
func (e *CacheEngine) Remaining(ent *types.CacheEntry, now time.Time) time.Duration {
	return e.Expiration.Remaining(ent, now)
}

/*
OnRead is called every time the cache successfully returns a value.
Sliding expiration strategies push the entry's deadline here.
*/
func (e *CacheEngine) OnRead(ent *types.CacheEntry, now time.Time) {
	e.Expiration.OnAccess(ent, now)
}

/*
NewEntry builds a freshly stamped entry. A write always produces a new entry,
so replacing a key never leaks the old timestamps into the new one.
*/
func (e *CacheEngine) NewEntry(key string, value any, ttl time.Duration, now time.Time) *types.CacheEntry {
	ent := &types.CacheEntry{
		Key:   key,
		Value: value,
		TTL:   ttl,
	}
	e.Expiration.OnWrite(ent, now)
	return ent
}
