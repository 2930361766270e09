// This file implements LFU eviction.

package eviction

// lfu groups keys into frequency buckets. Ties inside the lowest bucket are broken
// arbitrarily.
type lfu struct {
	// freq is the access count per tracked key.
	freq map[string]int

	// buckets groups keys by access count.
	buckets map[int]map[string]struct{}

	// minFreq is the smallest non-empty bucket. It may be stale after Remove;
	// Evict repairs it before use.
	minFreq int
}

func newLFU() *lfu {
	return &lfu{
		freq:    make(map[string]int),
		buckets: make(map[int]map[string]struct{}),
	}
}

func (l *lfu) OnGet(k string) {
	n, ok := l.freq[k]
	if !ok {
		return
	}
	l.unlink(k, n)
	if n == l.minFreq && l.buckets[n] == nil {
		l.minFreq = n + 1
	}
	l.link(k, n+1)
}

// OnPut starts new keys at frequency 1. A replacement counts as an access.
func (l *lfu) OnPut(k string) {
	if _, ok := l.freq[k]; ok {
		l.OnGet(k)
		return
	}
	l.link(k, 1)
	l.minFreq = 1
}

func (l *lfu) Evict() string {
	if len(l.freq) == 0 {
		return ""
	}
	if l.buckets[l.minFreq] == nil {
		l.minFreq = l.lowest()
	}
	for k := range l.buckets[l.minFreq] {
		l.unlink(k, l.minFreq)
		delete(l.freq, k)
		return k
	}
	return ""
}

func (l *lfu) Remove(k string) {
	n, ok := l.freq[k]
	if !ok {
		return
	}
	l.unlink(k, n)
	delete(l.freq, k)
}

func (l *lfu) Reset() {
	l.freq = make(map[string]int)
	l.buckets = make(map[int]map[string]struct{})
	l.minFreq = 0
}

func (l *lfu) link(k string, n int) {
	l.freq[k] = n
	b := l.buckets[n]
	if b == nil {
		b = make(map[string]struct{})
		l.buckets[n] = b
	}
	b[k] = struct{}{}
}

// unlink drops k from bucket n and deletes the bucket once empty.
func (l *lfu) unlink(k string, n int) {
	delete(l.buckets[n], k)
	if len(l.buckets[n]) == 0 {
		delete(l.buckets, n)
	}
}

// lowest scans for the smallest bucket. Only needed after removals emptied minFreq.
func (l *lfu) lowest() int {
	low := 0
	for n := range l.buckets {
		if low == 0 || n < low {
			low = n
		}
	}
	return low
}
