// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package pointerlist implements the archive's pointer lists: flat
// arrays of integer pointers (file offsets or record ids), optionally
// kept sorted by a key computed on demand from each pointer.
//
// Keys are never stored. The ordered list resolves a pointer to its
// sort key through a caller-supplied function, typically "read the
// record at this offset and return its URL" — so a binary search
// costs O(log N) comparisons but each comparison may cost a random
// read and a decompression. Callers doing many lookups should lean on
// the caches upstream rather than on this package.
package pointerlist
