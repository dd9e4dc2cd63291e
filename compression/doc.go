// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package compression maps ZIM cluster compression codes to codec
// implementations and provides the streaming decompression reader the
// cluster layer is built on.
//
// Codecs are looked up through an explicit Registry rather than any
// process-wide registration state, so embedders can restrict or
// extend the codec set per archive. The default registry carries the
// codecs the ZIM format defines: none, zlib, bzip2, xz (LZMA2) and
// zstd.
//
// Every codec's decompressor accounts for its compressed input
// exactly: InputOffset reports the compressed bytes consumed once the
// stream has been fully read, with no over-read into whatever follows
// the stream in the file. This is what lets the cluster layer compute
// a compressed cluster's on-disk extent without an external size.
package compression
