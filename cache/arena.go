// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package cache

// nilSlot marks the absence of a node.
const nilSlot = -1

// node is one element of the intrusive list. Nodes are addressed by
// their index in the arena's slot array; released slots are recycled
// through a free list. Slot indices are stable for the lifetime of a
// node, which is what lets the hash index hold them safely.
type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next int
}

// arena is a doubly-linked list over a slot array, ordered head
// (most interesting) to tail (eviction candidate). All pointer
// surgery is centralized here.
type arena[K comparable, V any] struct {
	nodes []node[K, V]
	free  []int
	head  int
	tail  int
	count int
}

func newArena[K comparable, V any](capacityHint int) *arena[K, V] {
	return &arena[K, V]{
		nodes: make([]node[K, V], 0, capacityHint),
		head:  nilSlot,
		tail:  nilSlot,
	}
}

func (a *arena[K, V]) len() int { return a.count }

// alloc creates a detached node and returns its slot.
func (a *arena[K, V]) alloc(key K, value V) int {
	var slot int
	if n := len(a.free); n > 0 {
		slot = a.free[n-1]
		a.free = a.free[:n-1]
		a.nodes[slot] = node[K, V]{key: key, value: value, prev: nilSlot, next: nilSlot}
	} else {
		slot = len(a.nodes)
		a.nodes = append(a.nodes, node[K, V]{key: key, value: value, prev: nilSlot, next: nilSlot})
	}
	return slot
}

// release returns a detached slot to the free list, dropping value
// references.
func (a *arena[K, V]) release(slot int) {
	var zero node[K, V]
	zero.prev, zero.next = nilSlot, nilSlot
	a.nodes[slot] = zero
	a.free = append(a.free, slot)
}

// prepend links a detached slot in at the head.
func (a *arena[K, V]) prepend(slot int) {
	a.nodes[slot].prev = nilSlot
	a.nodes[slot].next = a.head
	if a.head != nilSlot {
		a.nodes[a.head].prev = slot
	}
	a.head = slot
	if a.tail == nilSlot {
		a.tail = slot
	}
	a.count++
}

// append links a detached slot in at the tail.
func (a *arena[K, V]) append(slot int) {
	a.nodes[slot].next = nilSlot
	a.nodes[slot].prev = a.tail
	if a.tail != nilSlot {
		a.nodes[a.tail].next = slot
	}
	a.tail = slot
	if a.head == nilSlot {
		a.head = slot
	}
	a.count++
}

// detach unlinks a slot, leaving its contents intact.
func (a *arena[K, V]) detach(slot int) {
	n := a.nodes[slot]
	if n.prev != nilSlot {
		a.nodes[n.prev].next = n.next
	} else {
		a.head = n.next
	}
	if n.next != nilSlot {
		a.nodes[n.next].prev = n.prev
	} else {
		a.tail = n.prev
	}
	a.nodes[slot].prev = nilSlot
	a.nodes[slot].next = nilSlot
	a.count--
}

// moveToFront is detach+prepend for a linked slot.
func (a *arena[K, V]) moveToFront(slot int) {
	if a.head == slot {
		return
	}
	a.detach(slot)
	a.prepend(slot)
}

// swapWithPrev exchanges a slot with its predecessor, moving it one
// position toward the head.
func (a *arena[K, V]) swapWithPrev(slot int) {
	prev := a.nodes[slot].prev
	if prev == nilSlot {
		return
	}
	a.detach(slot)
	// After detach, prev's prev link is unchanged; relink slot just
	// before prev.
	before := a.nodes[prev].prev
	if before == nilSlot {
		a.prepend(slot)
		return
	}
	a.nodes[slot].prev = before
	a.nodes[slot].next = prev
	a.nodes[before].next = slot
	a.nodes[prev].prev = slot
	a.count++
}
