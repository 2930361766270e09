package types

import "time"

// This file defines how the cache reports what it is doing.

/*
Metrics is the set of events the cache emits.
The cache calls these methods inline on its hot paths, so implementations must be cheap
and must never block.
*/
type Metrics interface {

	// Hit is called when a read finds a live entry.
	Hit()

	// Miss is called when a read finds nothing, or finds an expired entry.
	Miss()

	// Eviction is called when a bounded shard drops a live key to make room.
	Eviction()

	// Expire is called when an expired entry is removed outside a sweep.
	Expire()

	// Refresh is called when a revalidation or a forced refresh is started.
	Refresh()

	// Swept is called after every sweep with the number of entries it removed.
	Swept(n int)

	// Loaded is called when a read-through load settles. err is nil on success.
	Loaded(d time.Duration, err error)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

It lets the cache call metrics unconditionally instead of
sprinkling nil checks over every code path.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()                        {}
func (NoopMetrics) Miss()                       {}
func (NoopMetrics) Eviction()                   {}
func (NoopMetrics) Expire()                     {}
func (NoopMetrics) Refresh()                    {}
func (NoopMetrics) Swept(int)                   {}
func (NoopMetrics) Loaded(time.Duration, error) {}
