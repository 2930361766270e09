package respcache

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mindmate/respcache/eviction"
	"github.com/mindmate/respcache/expiration"
	"github.com/mindmate/respcache/types"
)

const (
	// DefaultTTL is how long an entry lives when the writer does not say otherwise.
	DefaultTTL = 5 * time.Minute

	// DefaultSweepInterval is how often expired entries are reclaimed in the background.
	DefaultSweepInterval = 5 * time.Minute

	DefaultShards            = 16
	DefaultRevalidateWorkers = 4
	DefaultRevalidateQueue   = 64

	// MaxShards caps Config.Shards.
	MaxShards = 1 << 16
)

/*
Config controls how a TTLCache is built.
Zero values are replaced by the defaults above, so Config{} is a usable,
unbounded cache with five minute entries and a five minute sweep.
*/
type Config struct {
	DefaultTTL time.Duration

	// SweepInterval is the background sweep period. Negative disables the sweeper.
	SweepInterval time.Duration

	// Shards is rounded up to a power of two, at most MaxShards.
	Shards int

	// MaxEntries bounds the cache. 0 means unbounded.
	MaxEntries int

	// Eviction picks the victim when a bounded shard is full.
	Eviction eviction.PolicyType

	Expiration expiration.Strategy

	// RevalidateWorkers and RevalidateQueue size the stale-while-revalidate pool.
	RevalidateWorkers int
	RevalidateQueue   int

	Clock   clockwork.Clock
	Logger  *slog.Logger
	Metrics types.Metrics
}

// DefaultConfig returns a Config with every default spelled out.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.DefaultTTL == 0 {
		c.DefaultTTL = DefaultTTL
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.Shards <= 0 {
		c.Shards = DefaultShards
	}
	if c.Shards > MaxShards {
		c.Shards = MaxShards
	}
	c.Shards = nextPowerOfTwo(c.Shards)
	if c.MaxEntries < 0 {
		c.MaxEntries = 0
	}
	if c.Eviction == "" {
		c.Eviction = eviction.LRU
	}
	if c.Expiration == nil {
		c.Expiration = expiration.ExpireAfterWrite{}
	}
	if c.RevalidateWorkers <= 0 {
		c.RevalidateWorkers = DefaultRevalidateWorkers
	}
	if c.RevalidateQueue <= 0 {
		c.RevalidateQueue = DefaultRevalidateQueue
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Metrics == nil {
		c.Metrics = types.NoopMetrics{}
	}
	return c
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
