package eviction

import (
	"strings"

	"github.com/pkg/errors"
)

/*
This file defines how a bounded shard decides what to drop when it runs out of room.
Eviction only matters when the cache is configured with MaxEntries; an unbounded cache
never consults a policy.
*/

/*
Policy is the interface that all eviction strategies must follow.

Policies are not safe for concurrent use. Each shard owns its own instance and only
calls it while holding the shard lock.
*/
type Policy interface {

	// OnGet is called whenever a live key is read.
	//
	// LRU moves the key to the front, LFU bumps its counter,
	// FIFO ignores reads.
	OnGet(string)

	// OnPut is called whenever a key is stored, including replacements.
	OnPut(string)

	// Remove is called when a key leaves the shard for any reason other than Evict:
	// delete, lazy expiry, sweep.
	Remove(string)

	// Evict picks a victim, forgets it, and returns it.
	// It returns "" when nothing is tracked.
	Evict() string

	// Reset forgets every key. Called by Clear.
	Reset()
}

// PolicyType is a simple identifier for supported eviction strategies.
type PolicyType string

const (
	// LRU (Least Recently Used): evicts the key that has not been read or written for the longest time.
	LRU PolicyType = "lru"

	// LFU (Least Frequently Used): evicts the key with the fewest accesses.
	LFU PolicyType = "lfu"

	// FIFO (First In First Out): evicts the oldest inserted key, regardless of access.
	FIFO PolicyType = "fifo"
)

// ParsePolicyType accepts any casing of the known policy names.
func ParsePolicyType(s string) (PolicyType, error) {
	t := PolicyType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case LRU, LFU, FIFO:
		return t, nil
	case "":
		return LRU, nil
	default:
		return "", errors.Errorf("unknown eviction policy %q", s)
	}
}

// NewEvictionPolicy is a small factory function.
// Given a PolicyType, it creates the correct eviction policy.
func NewEvictionPolicy(t PolicyType) (Policy, error) {
	switch t {
	case LRU, "":
		return newLRU(), nil
	case LFU:
		return newLFU(), nil
	case FIFO:
		return newFIFO(), nil
	default:
		return nil, errors.Errorf("unknown eviction policy %q", t)
	}
}
