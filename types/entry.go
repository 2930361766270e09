package types

import "time"

// CacheEntry is one stored value plus the bookkeeping expiration needs.
// Entries are only mutated while the owning shard is locked.
type CacheEntry struct {
	Key   string
	Value any

	// StoredAt is stamped from the cache clock on every write.
	StoredAt time.Time

	// TTL is measured from StoredAt (or LastAccessedAt for sliding expiration).
	// Zero and negative values are legal.
	TTL time.Duration

	LastAccessedAt time.Time
}

