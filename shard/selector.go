package shard

import "hash/fnv"

/*
This file decides HOW a cache key is assigned to a shard.
If every request went to the same shard, that shard's lock would become the bottleneck.
*/

/*
Selector is the interface that decides which shard should handle a given key.
A selector must be deterministic: the same key always maps to the same shard,
otherwise reads would miss writes.
*/
type Selector interface {
	Select(string, []*Shard) *Shard
}

// HashSelector spreads keys with FNV-1a. When the shard count is a power of two
// the modulo becomes a mask.
type HashSelector struct{}

// hash converts a string key into a number. FNV is a fast, non-cryptographic hash commonly used in systems like this.
func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Select chooses the shard for a given key.
func (HashSelector) Select(key string, shards []*Shard) *Shard {
	n := uint32(len(shards))
	h := hash(key)
	if n&(n-1) == 0 {
		return shards[h&(n-1)]
	}
	return shards[h%n]
}
