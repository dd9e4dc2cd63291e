// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"
	"sync"
)

// LastAccessCache keeps the most recently accessed elements: the list
// runs head (most recent) to tail (least recent), Get moves the hit
// to the front, and a push at capacity evicts the tail. A push is
// always accepted unless replacement is disallowed while the cache is
// full — capacity is enforced by eviction, not rejection.
type LastAccessCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	list     *arena[K, V]
	index    map[K]int
	onLeave  OnLeave[K, V]
}

// NewLastAccessCache creates a last-access cache holding at most
// capacity elements.
func NewLastAccessCache[K comparable, V any](capacity int, onLeave OnLeave[K, V]) (*LastAccessCache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	return &LastAccessCache[K, V]{
		capacity: capacity,
		list:     newArena[K, V](capacity),
		index:    make(map[K]int, capacity),
		onLeave:  onLeave,
	}, nil
}

// Has implements Cache.
func (c *LastAccessCache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[key]
	return ok
}

// Get implements Cache. A hit moves the element to the front.
func (c *LastAccessCache[K, V]) Get(key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.index[key]
	if !ok {
		var zero V
		return zero, ErrNotCached
	}
	c.list.moveToFront(slot)
	return c.list.nodes[slot].value, nil
}

// Push implements Cache.
func (c *LastAccessCache[K, V]) Push(key K, value V, allowReplacement bool) bool {
	var departed []departure[K, V]
	c.mu.Lock()
	if slot, ok := c.index[key]; ok {
		// Repeated push: overwrite in place. Position is kept and
		// the old value does not count as a departure.
		c.list.nodes[slot].value = value
		c.mu.Unlock()
		return true
	}
	if c.list.len() >= c.capacity {
		if !allowReplacement {
			c.mu.Unlock()
			return false
		}
		tail := c.list.tail
		victim := c.list.nodes[tail]
		c.list.detach(tail)
		c.list.release(tail)
		delete(c.index, victim.key)
		departed = append(departed, departure[K, V]{victim.key, victim.value})
	}
	slot := c.list.alloc(key, value)
	c.list.prepend(slot)
	c.index[key] = slot
	c.mu.Unlock()

	fire(c.onLeave, departed)
	return true
}

// Remove implements Cache.
func (c *LastAccessCache[K, V]) Remove(key K) error {
	c.mu.Lock()
	slot, ok := c.index[key]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("remove: %w", ErrNotCached)
	}
	n := c.list.nodes[slot]
	c.list.detach(slot)
	c.list.release(slot)
	delete(c.index, key)
	c.mu.Unlock()

	fire(c.onLeave, []departure[K, V]{{n.key, n.value}})
	return nil
}

// Clear implements Cache.
func (c *LastAccessCache[K, V]) Clear() {
	var departed []departure[K, V]
	c.mu.Lock()
	for slot := c.list.head; slot != nilSlot; slot = c.list.nodes[slot].next {
		n := c.list.nodes[slot]
		departed = append(departed, departure[K, V]{n.key, n.value})
	}
	c.list = newArena[K, V](c.capacity)
	c.index = make(map[K]int, c.capacity)
	c.mu.Unlock()

	fire(c.onLeave, departed)
}

// Len implements Cache.
func (c *LastAccessCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.len()
}
