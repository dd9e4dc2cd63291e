// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"errors"
	"fmt"
)

// HybridCache composes a TopAccessCache for frequently reused
// elements with a LastAccessCache as admission buffer: approximate
// LFU with an LRU fallback. Lookups try the top cache first. A hit in
// the last cache offers the element to the top cache; once accepted
// there it is removed from the last cache, so an element is resident
// in at most one half. Pushes try the top cache first and fall
// through to the last cache on rejection, which means one-off
// elements churn through the last cache without displacing hot items.
type HybridCache[K comparable, V any] struct {
	top     Cache[K, V]
	last    Cache[K, V]
	onLeave OnLeave[K, V]
}

// NewHybridCache creates a hybrid cache from the two halves'
// capacities.
func NewHybridCache[K comparable, V any](topCapacity, lastCapacity int, onLeave OnLeave[K, V]) (*HybridCache[K, V], error) {
	h := &HybridCache[K, V]{onLeave: onLeave}
	top, err := NewTopAccessCache[K, V](topCapacity, h.leaveTop)
	if err != nil {
		return nil, fmt.Errorf("top half: %w", err)
	}
	last, err := NewLastAccessCache[K, V](lastCapacity, h.leaveLast)
	if err != nil {
		return nil, fmt.Errorf("last half: %w", err)
	}
	h.top = top
	h.last = last
	return h, nil
}

// leaveTop forwards departures from the top half. An element leaving
// the top half is leaving the hybrid: residency is exclusive.
func (h *HybridCache[K, V]) leaveTop(key K, value V) {
	if h.onLeave != nil {
		h.onLeave(key, value)
	}
}

// leaveLast forwards departures from the last half unless the element
// was just promoted into the top half, in which case it has not left
// the hybrid at all. Sub-cache callbacks run outside the sub-cache
// mutex, so the residency check cannot deadlock.
func (h *HybridCache[K, V]) leaveLast(key K, value V) {
	if h.top.Has(key) {
		return
	}
	if h.onLeave != nil {
		h.onLeave(key, value)
	}
}

// Has implements Cache.
func (h *HybridCache[K, V]) Has(key K) bool {
	return h.top.Has(key) || h.last.Has(key)
}

// Get implements Cache. A last-half hit offers the element to the
// top half; promotion removes it from the last half.
func (h *HybridCache[K, V]) Get(key K) (V, error) {
	if v, err := h.top.Get(key); err == nil {
		return v, nil
	}
	v, err := h.last.Get(key)
	if err != nil {
		var zero V
		return zero, err
	}
	if h.top.Push(key, v, true) {
		// Promotion, not a departure: leaveLast sees the key in the
		// top half and stays quiet.
		if err := h.last.Remove(key); err != nil && !errors.Is(err, ErrNotCached) {
			var zero V
			return zero, err
		}
	}
	return v, nil
}

// Push implements Cache.
func (h *HybridCache[K, V]) Push(key K, value V, allowReplacement bool) bool {
	if h.top.Push(key, value, allowReplacement) {
		if h.last.Has(key) {
			_ = h.last.Remove(key)
		}
		return true
	}
	return h.last.Push(key, value, allowReplacement)
}

// Remove implements Cache.
func (h *HybridCache[K, V]) Remove(key K) error {
	err := h.top.Remove(key)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotCached) {
		return err
	}
	return h.last.Remove(key)
}

// Clear implements Cache.
func (h *HybridCache[K, V]) Clear() {
	h.top.Clear()
	h.last.Clear()
}

// Len implements Cache.
func (h *HybridCache[K, V]) Len() int {
	return h.top.Len() + h.last.Len()
}
