// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package allocator tracks reusable byte ranges in a growing archive
// file. The write path allocates space for new or replaced clusters
// and returns the extents of deleted ones; the allocator keeps the
// free set fully coalesced so the file can be grown and shrunk in
// place without accumulating fragmentation at the growth point.
package allocator
