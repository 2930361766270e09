package expiration

import (
	"testing"
	"time"

	"github.com/mindmate/respcache/types"
	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestExpireAfterWrite(t *testing.T) {
	s := ExpireAfterWrite{}
	ent := &types.CacheEntry{TTL: time.Second}
	s.OnWrite(ent, epoch)

	tests := []struct {
		name    string
		at      time.Duration
		expired bool
	}{
		{name: "at write", at: 0},
		{name: "half way", at: 500 * time.Millisecond},
		{name: "exactly ttl", at: time.Second},
		{name: "just past ttl", at: time.Second + time.Nanosecond, expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, s.IsExpired(ent, epoch.Add(tt.at)))
		})
	}
}

func TestExpireAfterWriteIgnoresReads(t *testing.T) {
	s := ExpireAfterWrite{}
	ent := &types.CacheEntry{TTL: time.Second}
	s.OnWrite(ent, epoch)

	s.OnAccess(ent, epoch.Add(900*time.Millisecond))
	assert.True(t, s.IsExpired(ent, epoch.Add(1500*time.Millisecond)))
}

func TestZeroAndNegativeTTL(t *testing.T) {
	s := ExpireAfterWrite{}

	zero := &types.CacheEntry{TTL: 0}
	s.OnWrite(zero, epoch)
	assert.False(t, s.IsExpired(zero, epoch))
	assert.True(t, s.IsExpired(zero, epoch.Add(time.Nanosecond)))

	neg := &types.CacheEntry{TTL: -time.Second}
	s.OnWrite(neg, epoch)
	assert.True(t, s.IsExpired(neg, epoch))
}

func TestExpireAfterAccessSlides(t *testing.T) {
	s := ExpireAfterAccess{}
	ent := &types.CacheEntry{TTL: time.Second}
	s.OnWrite(ent, epoch)

	now := epoch
	for i := 0; i < 3; i++ {
		now = now.Add(900 * time.Millisecond)
		assert.False(t, s.IsExpired(ent, now))
		s.OnAccess(ent, now)
	}
	assert.Equal(t, time.Second, s.Remaining(ent, now))
	assert.True(t, s.IsExpired(ent, now.Add(2*time.Second)))
}

func TestNew(t *testing.T) {
	s, ok := New("")
	assert.True(t, ok)
	assert.IsType(t, ExpireAfterWrite{}, s)

	s, ok = New(Access)
	assert.True(t, ok)
	assert.IsType(t, ExpireAfterAccess{}, s)

	_, ok = New("never")
	assert.False(t, ok)
}
