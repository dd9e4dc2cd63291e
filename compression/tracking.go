// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"bufio"
	"io"
)

// trackedReader feeds a decompressor from a buffered source while
// keeping exact accounting of how many bytes the decompressor has
// actually consumed: bytes pulled from the source minus whatever
// still sits unread in the buffer. It implements io.ByteReader so the
// flate family reads bit-level input without over-reading past the
// end of its stream.
type trackedReader struct {
	src    *bufio.Reader
	pulled int64
}

func newTrackedReader(src io.Reader) *trackedReader {
	t := &trackedReader{}
	t.src = bufio.NewReader(&pullCounter{src: src, n: &t.pulled})
	return t
}

func (t *trackedReader) Read(p []byte) (int, error) {
	return t.src.Read(p)
}

func (t *trackedReader) ReadByte() (byte, error) {
	return t.src.ReadByte()
}

// Consumed returns the number of source bytes consumed through this
// reader so far.
func (t *trackedReader) Consumed() int64 {
	return t.pulled - int64(t.src.Buffered())
}

// pullCounter counts bytes drawn from the raw source into the buffer.
type pullCounter struct {
	src io.Reader
	n   *int64
}

func (c *pullCounter) Read(p []byte) (int, error) {
	n, err := c.src.Read(p)
	*c.n += int64(n)
	return n, err
}

// bufferedCompressor adapts the write-side Go compression packages
// (io.WriteCloser into a buffer) to the incremental Compressor
// contract: Compress drains whatever output the codec has produced so
// far, Flush closes the codec stream and drains the rest.
type bufferedCompressor struct {
	buf    sliceBuffer
	w      io.WriteCloser
	closed bool
}

// sliceBuffer is a minimal append-only buffer with destructive drain.
type sliceBuffer struct {
	data []byte
}

func (b *sliceBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *sliceBuffer) drain() []byte {
	out := b.data
	b.data = nil
	return out
}

func (c *bufferedCompressor) Compress(p []byte) ([]byte, error) {
	if c.closed {
		return nil, io.ErrClosedPipe
	}
	if _, err := c.w.Write(p); err != nil {
		return nil, err
	}
	return c.buf.drain(), nil
}

func (c *bufferedCompressor) Flush() ([]byte, error) {
	if c.closed {
		return nil, io.ErrClosedPipe
	}
	c.closed = true
	if err := c.w.Close(); err != nil {
		return nil, err
	}
	return c.buf.drain(), nil
}
