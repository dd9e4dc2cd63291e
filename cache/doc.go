// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package cache provides bounded key/value caches with pluggable
// eviction policies, used to keep parsed clusters and directory
// entries keyed by file offset.
//
// Three policies are provided: LastAccessCache (recency, classic
// LRU), TopAccessCache (approximate frequency ordering with
// lowest-frequency eviction) and HybridCache (a TopAccessCache for
// hot items with a LastAccessCache as admission buffer). All share an
// arena-backed intrusive doubly-linked list: nodes live in a slot
// array addressed by stable integer indices, so the hash index stores
// indices rather than pointers and every structural operation is
// O(1).
//
// Each cache serializes its own operations behind one mutex; the
// OnLeave eviction callback always runs outside that mutex, so it may
// safely re-enter the cache.
package cache
