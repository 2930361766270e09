package shard

import "github.com/mindmate/respcache/types"

/*
This file defines how entries are physically held inside a shard.

Every shard operation already runs under the shard mutex (reads can lazily delete, so
they write too), which makes a plain map the right structure: no copy-on-write, no
atomics, O(1) deletes for sweeps.
*/

// Store is the interface used by a shard to hold cache entries.
// Implementations are not safe for concurrent use; the shard lock serialises access.
type Store interface {

	// Get retrieves an entry by key, expired or not.
	Get(string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry.
	Put(string, *types.CacheEntry)

	// Delete removes an entry. Deleting a missing key is a no-op.
	Delete(string)

	// Len returns how many entries are physically stored.
	Len() int

	// Range calls fn for every entry until fn returns false.
	// fn may delete the entry it was handed.
	Range(fn func(key string, ent *types.CacheEntry) bool)

	// Reset drops every entry.
	Reset()
}

type mapStore struct {
	data map[string]*types.CacheEntry
}

// NewMapStore returns an empty map-backed Store.
func NewMapStore() Store {
	return &mapStore{data: make(map[string]*types.CacheEntry)}
}

func (s *mapStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.data[key]
	return ent, ok
}

func (s *mapStore) Put(key string, ent *types.CacheEntry) {
	s.data[key] = ent
}

func (s *mapStore) Delete(key string) {
	delete(s.data, key)
}

func (s *mapStore) Len() int {
	return len(s.data)
}

// Range relies on Go's guarantee that deleting the current key during a map range is safe.
func (s *mapStore) Range(fn func(string, *types.CacheEntry) bool) {
	for k, ent := range s.data {
		if !fn(k, ent) {
			return
		}
	}
}

func (s *mapStore) Reset() {
	s.data = make(map[string]*types.CacheEntry)
}
