// This file implements FIFO eviction.

package eviction

import "container/list"

type fifo struct {
	// queue keeps keys in insertion order. The front is the oldest key.
	queue *list.List

	// nodes lets Remove find a key without scanning the queue.
	nodes map[string]*list.Element
}

func newFIFO() *fifo {
	return &fifo{
		queue: list.New(),
		nodes: make(map[string]*list.Element),
	}
}

// OnGet is a no-op: FIFO ignores reads completely.
func (f *fifo) OnGet(string) {}

// OnPut only cares about the first insertion. Replacing a tracked key keeps its place in line.
func (f *fifo) OnPut(k string) {
	if _, ok := f.nodes[k]; ok {
		return
	}
	f.nodes[k] = f.queue.PushBack(k)
}

// Evict returns the oldest key.
func (f *fifo) Evict() string {
	el := f.queue.Front()
	if el == nil {
		return ""
	}
	k := f.queue.Remove(el).(string)
	delete(f.nodes, k)
	return k
}

func (f *fifo) Remove(k string) {
	if el, ok := f.nodes[k]; ok {
		f.queue.Remove(el)
		delete(f.nodes, k)
	}
}

func (f *fifo) Reset() {
	f.queue.Init()
	f.nodes = make(map[string]*list.Element)
}
