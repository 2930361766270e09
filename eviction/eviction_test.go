package eviction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicyType(t *testing.T) {
	tests := []struct {
		in      string
		want    PolicyType
		wantErr bool
	}{
		{in: "lru", want: LRU},
		{in: "LFU", want: LFU},
		{in: " fifo ", want: FIFO},
		{in: "", want: LRU},
		{in: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicyType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEvictionPolicyUnknown(t *testing.T) {
	_, err := NewEvictionPolicy("mru")
	assert.Error(t, err)
}

func TestLRU(t *testing.T) {
	p := newLRU()
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")
	p.OnGet("a")

	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestLRUReplacementCountsAsUse(t *testing.T) {
	p := newLRU()
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("a")

	assert.Equal(t, "b", p.Evict())
}

func TestFIFO(t *testing.T) {
	p := newFIFO()
	p.OnPut("a")
	p.OnPut("b")
	p.OnGet("a")
	p.OnPut("a")

	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestLFU(t *testing.T) {
	p := newLFU()
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")
	p.OnGet("a")
	p.OnGet("a")
	p.OnGet("c")

	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestLFURepairsMinFrequencyAfterRemove(t *testing.T) {
	p := newLFU()
	p.OnPut("a")
	p.OnPut("b")
	p.OnGet("b")
	p.OnGet("b")
	p.Remove("a")

	assert.Equal(t, "b", p.Evict())
}

func TestRemoveAndReset(t *testing.T) {
	for _, typ := range []PolicyType{LRU, LFU, FIFO} {
		t.Run(string(typ), func(t *testing.T) {
			p, err := NewEvictionPolicy(typ)
			require.NoError(t, err)

			p.OnPut("a")
			p.OnPut("b")
			p.Remove("a")
			p.Remove("missing")
			assert.Equal(t, "b", p.Evict())

			p.OnPut("c")
			p.Reset()
			assert.Equal(t, "", p.Evict())
		})
	}
}
