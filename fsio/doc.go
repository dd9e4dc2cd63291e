// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

// Package fsio provides shared access to a single archive file handle.
//
// A ZIM archive is one file read by many components (cluster readers,
// the directory entry path, the write path). The OS file position is
// shared mutable state, so every seek/read sequence must be atomic
// with respect to other users of the handle. File wraps the handle
// behind one coarse mutex; Session represents holding that mutex for
// a sequence of operations, and Cursor gives independent readers a
// stable position without holding the lock between reads.
package fsio
