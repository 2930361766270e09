// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/mindmate/respcache/types"
)

/*
Strategy is the interface that all expiration rules must follow. The cache never does
TTL arithmetic itself; it asks the strategy, so every read path (Get, Has, TTL, sweep)
agrees on what "expired" means.
*/
type Strategy interface {

	// Remaining returns how long the entry stays live at now. A negative result means expired.
	Remaining(*types.CacheEntry, time.Time) time.Duration

	// IsExpired reports whether the entry is logically absent at now.
	IsExpired(*types.CacheEntry, time.Time) bool

	// OnAccess is called whenever a live entry is read.
	OnAccess(*types.CacheEntry, time.Time)

	// OnWrite is called whenever an entry is created or replaced.
	OnWrite(*types.CacheEntry, time.Time)
}

// Kind names a built-in strategy. Used by configuration.
type Kind string

const (
	// Write expires an entry TTL after it was stored.
	Write Kind = "write"

	// Access expires an entry TTL after it was last read.
	Access Kind = "access"
)

// New returns the built-in strategy for k, or false if k is unknown.
func New(k Kind) (Strategy, bool) {
	switch k {
	case Write, "":
		return ExpireAfterWrite{}, true
	case Access:
		return ExpireAfterAccess{}, true
	default:
		return nil, false
	}
}
