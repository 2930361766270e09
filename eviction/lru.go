// This file implements LRU eviction.

package eviction

import "container/list"

// lru keeps keys in a doubly-linked list, most recently used at the front.
type lru struct {
	// nodes maps keys to their list element for O(1) moves.
	nodes map[string]*list.Element
	order *list.List
}

func newLRU() *lru {
	return &lru{
		nodes: make(map[string]*list.Element),
		order: list.New(),
	}
}

// OnGet marks the key as most recently used.
func (l *lru) OnGet(k string) {
	if el, ok := l.nodes[k]; ok {
		l.order.MoveToFront(el)
	}
}

// OnPut tracks a new key at the front, or refreshes an existing one.
// A replaced value counts as a use.
func (l *lru) OnPut(k string) {
	if el, ok := l.nodes[k]; ok {
		l.order.MoveToFront(el)
		return
	}
	l.nodes[k] = l.order.PushFront(k)
}

// Evict removes the least recently used key, which always sits at the back.
func (l *lru) Evict() string {
	el := l.order.Back()
	if el == nil {
		return ""
	}
	k := l.order.Remove(el).(string)
	delete(l.nodes, k)
	return k
}

func (l *lru) Remove(k string) {
	if el, ok := l.nodes[k]; ok {
		l.order.Remove(el)
		delete(l.nodes, k)
	}
}

func (l *lru) Reset() {
	l.nodes = make(map[string]*list.Element)
	l.order.Init()
}
