// Package lru provides a fixed capacity replacement list shared by the cache
// and the TLB.
package lru

import "log"

type way[K comparable] struct {
	key        K
	valid      bool
	prev, next int
}

// List keeps a fixed number of ways ordered from least to most recently
// visited. A new List is full of invalid ways, so Evict always has a victim.
type List[K comparable] struct {
	ways       []way[K]
	index      map[K]int
	head, tail int
	numValid   int
}

// New creates a List with capacity ways.
func New[K comparable](capacity int) *List[K] {
	if capacity <= 0 {
		log.Panicf("lru capacity must be positive, got %d", capacity)
	}

	l := &List[K]{
		ways:  make([]way[K], capacity),
		index: make(map[K]int, capacity),
		head:  0,
		tail:  capacity - 1,
	}

	for i := range l.ways {
		l.ways[i].prev = i - 1
		l.ways[i].next = i + 1
	}

	l.ways[capacity-1].next = -1

	return l
}

// Capacity returns the number of ways.
func (l *List[K]) Capacity() int {
	return len(l.ways)
}

// Len returns the number of valid ways.
func (l *List[K]) Len() int {
	return l.numValid
}

// Lookup finds the way holding key.
func (l *List[K]) Lookup(key K) (wayID int, found bool) {
	wayID, found = l.index[key]
	return wayID, found
}

// Contains tells if key is held by a valid way.
func (l *List[K]) Contains(key K) bool {
	_, found := l.index[key]
	return found
}

// Visit makes the way the most recently used one.
func (l *List[K]) Visit(wayID int) {
	if wayID == l.tail {
		return
	}

	l.unlink(wayID)
	l.pushBack(wayID)
}

// Evict invalidates the least recently used way and returns it together
// with the key it held, if it was valid.
func (l *List[K]) Evict() (wayID int, key K, valid bool) {
	wayID = l.head
	w := &l.ways[wayID]

	key, valid = w.key, w.valid
	if valid {
		delete(l.index, key)
		w.valid = false
		l.numValid--
	}

	return wayID, key, valid
}

// Update stores key into the way and makes it the most recently used one.
func (l *List[K]) Update(wayID int, key K) {
	if _, dup := l.index[key]; dup {
		log.Panicf("lru key %v is already present", key)
	}

	w := &l.ways[wayID]
	if w.valid {
		delete(l.index, w.key)
		l.numValid--
	}

	w.key = key
	w.valid = true
	l.index[key] = wayID
	l.numValid++

	l.Visit(wayID)
}

// Insert evicts the least recently used way and stores key into it. It
// returns the evicted key, if the victim was valid.
func (l *List[K]) Insert(key K) (evicted K, wasValid bool) {
	wayID, evicted, wasValid := l.Evict()
	l.Update(wayID, key)

	return evicted, wasValid
}

// Touch visits the way holding key. It returns false if key is absent.
func (l *List[K]) Touch(key K) bool {
	wayID, found := l.index[key]
	if !found {
		return false
	}

	l.Visit(wayID)

	return true
}

// Keys returns the valid keys from least to most recently used.
func (l *List[K]) Keys() []K {
	keys := make([]K, 0, l.numValid)
	for i := l.head; i != -1; i = l.ways[i].next {
		if l.ways[i].valid {
			keys = append(keys, l.ways[i].key)
		}
	}

	return keys
}

func (l *List[K]) unlink(wayID int) {
	w := &l.ways[wayID]

	if w.prev != -1 {
		l.ways[w.prev].next = w.next
	} else {
		l.head = w.next
	}

	if w.next != -1 {
		l.ways[w.next].prev = w.prev
	} else {
		l.tail = w.prev
	}

	w.prev, w.next = -1, -1
}

func (l *List[K]) pushBack(wayID int) {
	w := &l.ways[wayID]
	w.prev = l.tail
	w.next = -1

	if l.tail != -1 {
		l.ways[l.tail].next = wayID
	} else {
		l.head = wayID
	}

	l.tail = wayID
}
