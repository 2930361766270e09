package expiration

import (
	"time"

	"github.com/mindmate/respcache/types"
)

/*
ExpireAfterWrite is the default strategy: an entry lives for exactly its TTL after the
write that stored it. Reads never extend it.

The comparison is strict (elapsed > TTL). A zero TTL therefore survives a read at the
very instant of the write and expires as soon as any time has passed; a negative TTL is
already expired. Neither case is special-cased.
*/
type ExpireAfterWrite struct{}

func (ExpireAfterWrite) Remaining(ent *types.CacheEntry, now time.Time) time.Duration {
	return ent.TTL - now.Sub(ent.StoredAt)
}

func (s ExpireAfterWrite) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return s.Remaining(ent, now) < 0
}

func (ExpireAfterWrite) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
}

func (ExpireAfterWrite) OnWrite(ent *types.CacheEntry, now time.Time) {
	ent.StoredAt = now
	ent.LastAccessedAt = now
}
