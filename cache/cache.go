// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package cache

import "errors"

// ErrNotCached is returned by Get and Remove for a key that is not
// resident.
var ErrNotCached = errors.New("key is not cached")

// OnLeave is invoked exactly once for each element that leaves a
// cache, whether displaced by capacity pressure or removed
// explicitly (including Clear). It is never invoked for elements
// still resident, and always runs outside the cache's mutex.
type OnLeave[K comparable, V any] func(key K, value V)

// Cache is a bounded key/value cache. Implementations differ only in
// their admission and eviction policy.
type Cache[K comparable, V any] interface {
	// Has reports whether key is resident, without perturbing the
	// eviction order.
	Has(key K) bool

	// Get returns the cached value, or ErrNotCached.
	Get(key K) (V, error)

	// Push offers a value to the cache and reports whether the
	// element ended up cached. allowReplacement permits displacing
	// a resident element to make room; pushing a key that is
	// already resident updates its value in place and never counts
	// as replacement.
	Push(key K, value V, allowReplacement bool) bool

	// Remove evicts a key explicitly, firing the eviction callback.
	// Returns ErrNotCached if the key is not resident.
	Remove(key K) error

	// Clear evicts every resident element, firing the eviction
	// callback for each.
	Clear()

	// Len returns the number of resident elements.
	Len() int
}

// departure records an element leaving the cache while the mutex is
// held; the callback fires after release.
type departure[K comparable, V any] struct {
	key   K
	value V
}

func fire[K comparable, V any](onLeave OnLeave[K, V], departed []departure[K, V]) {
	if onLeave == nil {
		return
	}
	for _, d := range departed {
		onLeave(d.key, d.value)
	}
}
