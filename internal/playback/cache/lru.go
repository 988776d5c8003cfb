package cache

import "container/list"

// lru is a strict least-recently-used map with a fixed capacity.
// Not safe for concurrent use; the owning Cache serializes access.
type lru[K comparable, V any] struct {
	capacity int
	order    *list.List
	entries  map[K]*list.Element
	onEvict  func(K, V)
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

func newLRU[K comparable, V any](capacity int, onEvict func(K, V)) *lru[K, V] {
	return &lru[K, V]{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[K]*list.Element),
		onEvict:  onEvict,
	}
}

// Get returns the value for key and promotes it to most recently used.
func (l *lru[K, V]) Get(key K) (V, bool) {
	if elem, ok := l.entries[key]; ok {
		l.order.MoveToFront(elem)
		return elem.Value.(*lruEntry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Contains reports presence without promoting recency.
func (l *lru[K, V]) Contains(key K) bool {
	_, ok := l.entries[key]
	return ok
}

// Put inserts or replaces key, evicting the least recently used entry
// when at capacity.
func (l *lru[K, V]) Put(key K, value V) {
	if elem, ok := l.entries[key]; ok {
		elem.Value.(*lruEntry[K, V]).value = value
		l.order.MoveToFront(elem)
		return
	}

	for l.capacity > 0 && l.order.Len() >= l.capacity {
		l.evictOldest()
	}

	l.entries[key] = l.order.PushFront(&lruEntry[K, V]{key: key, value: value})
}

func (l *lru[K, V]) evictOldest() {
	elem := l.order.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*lruEntry[K, V])
	l.order.Remove(elem)
	delete(l.entries, entry.key)
	if l.onEvict != nil {
		l.onEvict(entry.key, entry.value)
	}
}

// Remove deletes key without invoking the eviction callback.
func (l *lru[K, V]) Remove(key K) {
	if elem, ok := l.entries[key]; ok {
		l.order.Remove(elem)
		delete(l.entries, key)
	}
}

func (l *lru[K, V]) Len() int {
	return l.order.Len()
}

func (l *lru[K, V]) Clear() {
	l.order.Init()
	l.entries = make(map[K]*list.Element)
}
