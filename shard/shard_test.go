package shard

import (
	"fmt"
	"testing"

	"github.com/mindmate/respcache/eviction"
	"github.com/mindmate/respcache/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSelectorIsDeterministic(t *testing.T) {
	for _, n := range []int{1, 3, 8, 16} {
		t.Run(fmt.Sprintf("shards=%d", n), func(t *testing.T) {
			shards := make([]*Shard, n)
			for i := range shards {
				shards[i] = NewShard(0, nil)
			}

			sel := HashSelector{}
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("user:%d", i)
				assert.Same(t, sel.Select(key, shards), sel.Select(key, shards))
			}
		})
	}
}

func TestHashSelectorSpreadsKeys(t *testing.T) {
	shards := make([]*Shard, 8)
	for i := range shards {
		shards[i] = NewShard(0, nil)
	}

	used := map[*Shard]bool{}
	for i := 0; i < 1000; i++ {
		used[HashSelector{}.Select(fmt.Sprintf("key-%d", i), shards)] = true
	}
	assert.Len(t, used, 8)
}

func TestMapStoreRangeDelete(t *testing.T) {
	s := NewMapStore()
	for i := 0; i < 10; i++ {
		k := fmt.Sprintf("k%d", i)
		s.Put(k, &types.CacheEntry{Key: k, Value: i})
	}

	s.Range(func(k string, ent *types.CacheEntry) bool {
		if ent.Value.(int)%2 == 0 {
			s.Delete(k)
		}
		return true
	})
	assert.Equal(t, 5, s.Len())

	_, ok := s.Get("k2")
	assert.False(t, ok)
	ent, ok := s.Get("k3")
	require.True(t, ok)
	assert.Equal(t, 3, ent.Value)

	s.Reset()
	assert.Equal(t, 0, s.Len())
}

func TestShardRemoveUpdatesEviction(t *testing.T) {
	p, err := eviction.NewEvictionPolicy(eviction.FIFO)
	require.NoError(t, err)
	sh := NewShard(2, p)
	require.True(t, sh.Bounded())

	sh.Store.Put("a", &types.CacheEntry{Key: "a"})
	sh.Eviction.OnPut("a")
	sh.Store.Put("b", &types.CacheEntry{Key: "b"})
	sh.Eviction.OnPut("b")

	sh.Remove("a")
	assert.Equal(t, 1, sh.Store.Len())
	assert.Equal(t, "b", sh.Eviction.Evict())

	assert.False(t, NewShard(0, nil).Bounded())
}
