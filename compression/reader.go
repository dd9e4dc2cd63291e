// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"errors"
	"fmt"
	"io"
)

// Reader is the streaming decompression reader the cluster layer
// drives. It tracks the decompressed position, supports forward-only
// skipping, and — once the stream has been fully read — reports the
// exact number of compressed bytes the stream occupied.
//
// A Reader is single-cursor state: it is not safe for concurrent use.
type Reader struct {
	dec Decompressor
	pos int64
	eof bool
}

// NewReader wraps a decompressor positioned at the start of its
// stream.
func NewReader(dec Decompressor) *Reader {
	return &Reader{dec: dec}
}

// Read implements io.Reader over the decompressed stream.
func (r *Reader) Read(p []byte) (int, error) {
	if r.eof {
		return 0, io.EOF
	}
	n, err := r.dec.Read(p)
	r.pos += int64(n)
	switch {
	case err == io.EOF:
		r.eof = true
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return n, fmt.Errorf("%w: %v", ErrTruncated, err)
	default:
		return n, err
	}
}

// ReadN reads up to n decompressed bytes, looping until n bytes are
// collected or the stream ends. The result is short only at end of
// stream; a source that runs dry mid-stream is a truncation error.
// The buffer grows with the bytes actually produced, so a request
// sized from a hostile length field costs only what the stream
// delivers before it ends.
func (r *Reader) ReadN(n int) ([]byte, error) {
	const chunkSize = 32 * 1024
	var scratch [chunkSize]byte
	buf := make([]byte, 0, min(n, chunkSize))
	for len(buf) < n {
		want := n - len(buf)
		if want > chunkSize {
			want = chunkSize
		}
		read, err := r.Read(scratch[:want])
		buf = append(buf, scratch[:read]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// Skip consumes and discards n decompressed bytes. Skipping past the
// end of the stream is a truncation-class error: the caller asked for
// a decompressed offset that does not exist.
func (r *Reader) Skip(n int64) error {
	if n < 0 {
		return ErrBackwardSeek
	}
	const scratchSize = 32 * 1024
	var scratch [scratchSize]byte
	for n > 0 {
		chunk := int64(scratchSize)
		if chunk > n {
			chunk = n
		}
		read, err := r.Read(scratch[:chunk])
		n -= int64(read)
		if err == io.EOF {
			if n > 0 {
				return fmt.Errorf("%w: skip ran past end of stream", ErrTruncated)
			}
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SkipTo positions the reader at an absolute decompressed offset.
// Streams are forward-only: an offset behind the current position
// returns ErrBackwardSeek.
func (r *Reader) SkipTo(offset int64) error {
	if offset < r.pos {
		return fmt.Errorf("%w: at %d, requested %d", ErrBackwardSeek, r.pos, offset)
	}
	return r.Skip(offset - r.pos)
}

// Offset returns the number of decompressed bytes produced so far —
// the absolute decompressed position of the next Read.
func (r *Reader) Offset() int64 { return r.pos }

// EOF reports whether the end of the stream has been reached.
func (r *Reader) EOF() bool { return r.eof }

// CompressedSize returns the exact number of compressed bytes the
// stream occupied in the source. Valid only once the stream has been
// read to its end; before that it returns ErrNotFinished.
func (r *Reader) CompressedSize() (int64, error) {
	if !r.eof {
		return 0, ErrNotFinished
	}
	return r.dec.InputOffset(), nil
}

// Release returns any resources held by the underlying decompressor.
// The reader must not be used afterwards.
func (r *Reader) Release() {
	Release(r.dec)
}

// Chunks returns a lazy, non-restartable sequence of decompressed
// chunks, each at most chunkSize bytes. A negative total reads to the
// end of the stream; otherwise exactly total bytes are produced, and
// a stream ending early surfaces ErrTruncated.
func (r *Reader) Chunks(total int64, chunkSize int) *ChunkIterator {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	return &ChunkIterator{reader: r, remaining: total, chunkSize: chunkSize}
}

// ChunkIterator produces successive decompressed chunks. Next returns
// io.EOF after the final chunk.
type ChunkIterator struct {
	reader    *Reader
	remaining int64 // negative: unbounded
	chunkSize int
	done      bool
	err       error
}

// Next returns the next chunk, or io.EOF when the sequence is
// exhausted. The returned slice is owned by the caller.
func (it *ChunkIterator) Next() ([]byte, error) {
	if it.err != nil {
		return nil, it.err
	}
	if it.done || it.remaining == 0 {
		it.done = true
		return nil, io.EOF
	}
	size := int64(it.chunkSize)
	if it.remaining > 0 && size > it.remaining {
		size = it.remaining
	}
	chunk, err := it.reader.ReadN(int(size))
	if err != nil {
		it.err = err
		return nil, err
	}
	if int64(len(chunk)) < size {
		// Short read means the stream ended. Fine for an unbounded
		// iteration; fatal when the caller asked for exact bytes.
		it.done = true
		if it.remaining > 0 {
			it.err = fmt.Errorf("%w: chunk read ran past end of stream", ErrTruncated)
		}
		if len(chunk) == 0 {
			if it.err != nil {
				return nil, it.err
			}
			return nil, io.EOF
		}
		return chunk, nil
	}
	if it.remaining > 0 {
		it.remaining -= int64(len(chunk))
	}
	return chunk, nil
}
