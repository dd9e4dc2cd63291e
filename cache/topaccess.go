// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"fmt"
	"sync"
)

// TopAccessCache keeps the most frequently accessed elements. Every
// Get and Push increments the key's access counter; when the counter
// passes the immediate predecessor's, the element swaps one position
// toward the head. One local swap per access keeps list maintenance
// O(1) while the list stays approximately frequency-ordered.
//
// Admission is deliberately strict: a new key enters only when there
// is free capacity, or when its accumulated access count already
// exceeds the current tail's and replacement is allowed. A first push
// of a cold key is therefore rejected outright — its counter is
// retained, so repeated offers eventually admit it. Counters survive
// until Clear.
type TopAccessCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	list     *arena[K, V]
	index    map[K]int
	counts   map[K]uint64
	onLeave  OnLeave[K, V]
}

// NewTopAccessCache creates a top-access cache holding at most
// capacity elements.
func NewTopAccessCache[K comparable, V any](capacity int, onLeave OnLeave[K, V]) (*TopAccessCache[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	return &TopAccessCache[K, V]{
		capacity: capacity,
		list:     newArena[K, V](capacity),
		index:    make(map[K]int, capacity),
		counts:   make(map[K]uint64),
		onLeave:  onLeave,
	}, nil
}

// bubble moves a resident slot one position toward the head if its
// access count now exceeds its predecessor's.
func (c *TopAccessCache[K, V]) bubble(slot int) {
	prev := c.list.nodes[slot].prev
	if prev == nilSlot {
		return
	}
	if c.counts[c.list.nodes[slot].key] > c.counts[c.list.nodes[prev].key] {
		c.list.swapWithPrev(slot)
	}
}

// Has implements Cache. It does not touch access counters.
func (c *TopAccessCache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[key]
	return ok
}

// Get implements Cache.
func (c *TopAccessCache[K, V]) Get(key K) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	slot, ok := c.index[key]
	if !ok {
		var zero V
		return zero, ErrNotCached
	}
	c.counts[key]++
	c.bubble(slot)
	return c.list.nodes[slot].value, nil
}

// Push implements Cache.
func (c *TopAccessCache[K, V]) Push(key K, value V, allowReplacement bool) bool {
	var departed []departure[K, V]
	c.mu.Lock()
	c.counts[key]++
	if slot, ok := c.index[key]; ok {
		c.list.nodes[slot].value = value
		c.bubble(slot)
		c.mu.Unlock()
		return true
	}
	if c.list.len() < c.capacity {
		slot := c.list.alloc(key, value)
		c.list.append(slot)
		c.index[key] = slot
		c.bubble(slot)
		c.mu.Unlock()
		return true
	}
	tail := c.list.tail
	tailKey := c.list.nodes[tail].key
	if !allowReplacement || c.counts[key] <= c.counts[tailKey] {
		// Rejected: the counter increment above is kept, so the key
		// accumulates frequency across offers.
		c.mu.Unlock()
		return false
	}
	victim := c.list.nodes[tail]
	c.list.detach(tail)
	c.list.release(tail)
	delete(c.index, tailKey)
	departed = append(departed, departure[K, V]{victim.key, victim.value})

	slot := c.list.alloc(key, value)
	c.list.append(slot)
	c.index[key] = slot
	c.bubble(slot)
	c.mu.Unlock()

	fire(c.onLeave, departed)
	return true
}

// Remove implements Cache. The key's access counter is retained.
func (c *TopAccessCache[K, V]) Remove(key K) error {
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

// Clear implements Cache. All access counters are reset.
func (c *TopAccessCache[K, V]) Clear() {
	var departed []departure[K, V]
	c.mu.Lock()
	for slot := c.list.head; slot != nilSlot; slot = c.list.nodes[slot].next {
		n := c.list.nodes[slot]
		departed = append(departed, departure[K, V]{n.key, n.value})
	}
	c.list = newArena[K, V](c.capacity)
	c.index = make(map[K]int, c.capacity)
	c.counts = make(map[K]uint64)
	c.mu.Unlock()

	fire(c.onLeave, departed)
}

// Len implements Cache.
func (c *TopAccessCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.len()
}
