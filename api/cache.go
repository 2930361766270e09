package api

import (
	"time"
)

/*
Cache defines the PUBLIC API of the TTL cache.
This is a contract that guarantees certain behaviors, without exposing internals.
Sharding, locking, expiration arithmetic and the background sweep are hidden
behind this interface.

None of these methods can fail. A cache that cannot answer behaves as a miss.
*/
type Cache interface {

	/*
		Get retrieves the value associated with the given key.

		BEHAVIOR:
		-------------------
		1. If the key exists and is NOT expired:
		   - Return the stored value and true (cache hit)

		2. If the key does NOT exist or is expired:
		   - Return nil and false (cache miss)
		   - An expired entry is removed as a side effect
	*/
	Get(key string) (any, bool)

	/*
		Set stores a key-value pair with the cache's default TTL.
		Any previous entry for the key is fully replaced.
	*/
	Set(key string, value any)

	/*
		SetWithTTL stores a key-value pair with an explicit time-to-live (TTL).

		TTL (Time-To-Live):
		-------------------
		- Counted from the moment of this write
		- After TTL has elapsed, the key reads as absent
		- Zero or negative TTLs are legal; the entry is expired almost at once
	*/
	SetWithTTL(key string, value any, ttl time.Duration)

	// Has reports whether Get would hit.
	Has(key string) bool

	/*
		Delete removes a key from the cache immediately.
		This operation is idempotent: removing a non-existing key is safe.
	*/
	Delete(key string)

	// Clear removes every entry.
	Clear()

	// Size counts stored entries, expired-but-unswept ones included.
	Size() int

	/*
		SweepExpired removes every expired entry and returns how many were removed.
		It never changes the result of a read.
	*/
	SweepExpired() int

	/*
		Expire sets a new TTL, counted from now, on a live key.

		BEHAVIOR:
		---------
		- If the key exists and is live: updates it and returns true
		- Otherwise: does nothing and returns false
	*/
	Expire(key string, ttl time.Duration) bool

	/*
		TTL returns the remaining time-to-live for a key.

		RETURN VALUES:
		--------------
		>= 0  : Duration remaining before expiration
		-2    : Key does not exist or is already expired
	*/
	TTL(key string) time.Duration

	/*
		Close stops background goroutines (sweeper, revalidation workers).

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close()
}
