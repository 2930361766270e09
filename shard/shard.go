package shard

import (
	"sync"

	"github.com/mindmate/respcache/eviction"
)

/*
This file defines what a "Shard" is. A shard is a small, independent piece of the cache.
Instead of one map behind one lock, keys are spread over many shards, each with:
- its own slice of the data
- its own lock
- its own eviction bookkeeping, when the cache is bounded

Operations on different shards never contend.
*/

type Shard struct {

	// Mu guards Store and Eviction. Every cache primitive holds it for its whole
	// duration, which is what makes each primitive atomic with respect to the others.
	Mu sync.Mutex

	// Store holds the key → entry data for this shard.
	Store Store

	// Eviction is nil for an unbounded cache.
	Eviction eviction.Policy

	// Capacity is the most entries this shard may hold; 0 means unbounded.
	Capacity int
}

// NewShard builds a shard. ev may be nil when capacity is 0.
func NewShard(capacity int, ev eviction.Policy) *Shard {
	return &Shard{
		Store:    NewMapStore(),
		Eviction: ev,
		Capacity: capacity,
	}
}

// Bounded reports whether this shard enforces a capacity.
func (s *Shard) Bounded() bool {
	return s.Capacity > 0 && s.Eviction != nil
}

// Remove deletes key from the store and the eviction bookkeeping. Caller holds Mu.
func (s *Shard) Remove(key string) {
	s.Store.Delete(key)
	if s.Eviction != nil {
		s.Eviction.Remove(key)
	}
}

// Reset empties the shard. Caller holds Mu.
func (s *Shard) Reset() {
	s.Store.Reset()
	if s.Eviction != nil {
		s.Eviction.Reset()
	}
}
