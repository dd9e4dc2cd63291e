// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package fsio

import (
	"io"
)

// Cursor is an independent sequential reader over a File. Each Read
// acquires the file lock, seeks to the cursor's own position, reads,
// and releases — so any number of cursors (and explicit sessions) can
// interleave without corrupting each other's position. A Cursor never
// reads backwards on its own; callers reposition with SeekTo.
type Cursor struct {
	file   *File
	offset int64
}

// Cursor returns a reader positioned at the given absolute offset.
func (f *File) Cursor(offset int64) *Cursor {
	return &Cursor{file: f, offset: offset}
}

// Read implements io.Reader at the cursor's tracked position.
func (c *Cursor) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	session := c.file.Acquire()
	defer session.Release()
	if _, err := session.Seek(c.offset, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := session.Read(p)
	c.offset += int64(n)
	return n, err
}

// Offset returns the absolute file offset of the next Read.
func (c *Cursor) Offset() int64 { return c.offset }

// SeekTo repositions the cursor to an absolute file offset.
func (c *Cursor) SeekTo(offset int64) { c.offset = offset }
