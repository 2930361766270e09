package expiration

import (
	"time"

	"github.com/mindmate/respcache/types"
)

/*
ExpireAfterAccess implements "expire after access", also called a sliding TTL.
Every successful read pushes the deadline forward. As long as the data keeps
getting used, it stays alive. If nobody touches it for TTL, it expires.
*/
type ExpireAfterAccess struct{}

// Remaining measures from the last access instead of the write.
func (ExpireAfterAccess) Remaining(ent *types.CacheEntry, now time.Time) time.Duration {
	return ent.TTL - now.Sub(ent.LastAccessedAt)
}

// IsExpired checks whether the entry is expired at this moment.
func (s ExpireAfterAccess) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return s.Remaining(ent, now) < 0
}

/*
OnAccess is called every time the cache successfully returns a value. This is the key part of "expire after access":
the entry's clock restarts at now. The entry's own TTL is kept, so keys stored with a
custom TTL keep sliding by that amount.
*/
func (ExpireAfterAccess) OnAccess(ent *types.CacheEntry, now time.Time) {
	ent.LastAccessedAt = now
}

// OnWrite records the write as both the store time and the first access.
func (ExpireAfterAccess) OnWrite(ent *types.CacheEntry, now time.Time) {
	ent.StoredAt = now
	ent.LastAccessedAt = now
}
