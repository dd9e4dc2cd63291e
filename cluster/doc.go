// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package cluster reads and writes ZIM clusters: compressed
// containers of randomly addressable blobs.
//
// On disk a cluster is one header byte — the low nibble selects the
// compression type, bit 4 selects 8-byte instead of 4-byte offsets —
// followed by a compressed region holding N+1 little-endian blob-end
// offsets and then the concatenated blob bodies. The first offset
// equals (N+1) times the offset width, which is how the reader learns
// N: offsets must be read in order on first access.
//
// Three access strategies trade CPU for RAM. Direct re-reads
// everything from the codec per access; Offsets parses the offset
// table once and decompresses blob content on demand; Materialized
// decompresses the whole cluster body once and serves memory slices.
// All three share the parsing code and the reader-recycling
// optimization: a cluster keeps at most one live decompression
// reader and reuses it whenever the requested decompressed offset is
// not behind it, which turns the common monotonically-increasing
// blob access pattern into a single pass over the stream.
package cluster
