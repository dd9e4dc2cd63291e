// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"io"
)

// zstd frame structure, per RFC 8878. The walker only needs the parts
// that determine byte counts: the frame header layout and the 3-byte
// block headers carrying each block's payload size.

type zstdFrameState uint8

const (
	zstdStateMagic zstdFrameState = iota
	zstdStateBlockHeader
	zstdStateDone
)

// zstdFrameReader serves exactly one zstd frame (preceded by any
// number of skippable frames) from src, then reports io.EOF. All
// bytes pass through unmodified; the walker parses just enough
// framing to know where the frame ends. consumed counts every byte
// drawn from src and equals the encoded frame size once the walker
// is done.
type zstdFrameReader struct {
	src      io.Reader
	state    zstdFrameState
	pending  []byte // structural bytes read from src, not yet served
	payload  int64  // passthrough bytes left in the current segment
	after    zstdFrameState
	checksum bool // frame carries a 4-byte content checksum
	consumed int64
	err      error
}

func newZstdFrameReader(src io.Reader) *zstdFrameReader {
	return &zstdFrameReader{src: src}
}

func (w *zstdFrameReader) Read(p []byte) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if len(p) == 0 {
		// A zero-length read must not touch src: the payload branch
		// would spin on (0, nil) reads forever.
		return 0, nil
	}
	for {
		if len(w.pending) > 0 {
			n := copy(p, w.pending)
			w.pending = w.pending[n:]
			return n, nil
		}
		if w.payload > 0 {
			limit := int64(len(p))
			if limit > w.payload {
				limit = w.payload
			}
			n, err := w.src.Read(p[:limit])
			w.consumed += int64(n)
			w.payload -= int64(n)
			if err == io.EOF && w.payload > 0 {
				err = io.ErrUnexpectedEOF
			}
			if err != nil && err != io.EOF {
				w.err = err
			}
			if n > 0 {
				return n, nil
			}
			if err != nil {
				return 0, err
			}
			continue
		}
		if w.state == zstdStateDone {
			return 0, io.EOF
		}
		if err := w.advance(); err != nil {
			w.err = err
			return 0, err
		}
	}
}

// advance reads the next structural element from src into pending and
// updates the walker state.
func (w *zstdFrameReader) advance() error {
	switch w.state {
	case zstdStateMagic:
		magic, err := w.structural(4)
		if err != nil {
			return err
		}
		switch {
		case magic[0] == 0x28 && magic[1] == 0xB5 && magic[2] == 0x2F && magic[3] == 0xFD:
			return w.readFrameHeader()
		case magic[0]&0xF0 == 0x50 && magic[1] == 0x2A && magic[2] == 0x4D && magic[3] == 0x18:
			// Skippable frame: 4-byte size, then opaque payload,
			// then the walk restarts looking for the data frame.
			size, err := w.structural(4)
			if err != nil {
				return err
			}
			w.payload = int64(size[0]) | int64(size[1])<<8 | int64(size[2])<<16 | int64(size[3])<<24
			w.state = zstdStateMagic
			return nil
		default:
			return fmt.Errorf("zstd framing: bad magic %x", magic)
		}

	case zstdStateBlockHeader:
		hdr, err := w.structural(3)
		if err != nil {
			return err
		}
		raw := uint32(hdr[0]) | uint32(hdr[1])<<8 | uint32(hdr[2])<<16
		lastBlock := raw&1 != 0
		blockType := (raw >> 1) & 3
		blockSize := int64(raw >> 3)
		switch blockType {
		case 0, 2: // raw, compressed
			w.payload = blockSize
		case 1: // RLE: one byte repeated blockSize times
			w.payload = 1
		default:
			return fmt.Errorf("zstd framing: reserved block type")
		}
		if !lastBlock {
			w.state = zstdStateBlockHeader
			return nil
		}
		if w.checksum {
			// Pull the checksum now so that consumed covers the
			// full frame even if the decoder stops reading early.
			if _, err := w.structural(4); err != nil {
				return err
			}
		}
		w.state = zstdStateDone
		return nil
	}
	return fmt.Errorf("zstd framing: bad state %d", w.state)
}

// readFrameHeader parses the data frame header following the magic.
func (w *zstdFrameReader) readFrameHeader() error {
	desc, err := w.structural(1)
	if err != nil {
		return err
	}
	descriptor := desc[0]
	if descriptor&0x08 != 0 {
		return fmt.Errorf("zstd framing: reserved frame header bit set")
	}
	singleSegment := descriptor&0x20 != 0
	w.checksum = descriptor&0x04 != 0

	extra := 0
	if !singleSegment {
		extra++ // window descriptor
	}
	switch descriptor & 0x03 { // dictionary ID field
	case 1:
		extra++
	case 2:
		extra += 2
	case 3:
		extra += 4
	}
	switch descriptor >> 6 { // frame content size field
	case 0:
		if singleSegment {
			extra++
		}
	case 1:
		extra += 2
	case 2:
		extra += 4
	case 3:
		extra += 8
	}
	if extra > 0 {
		if _, err := w.structural(extra); err != nil {
			return err
		}
	}
	w.state = zstdStateBlockHeader
	return nil
}

// structural reads exactly n bytes from src, appends them to pending
// (they are still served to the consumer) and returns them.
func (w *zstdFrameReader) structural(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(w.src, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	w.consumed += int64(n)
	w.pending = append(w.pending, buf...)
	return buf, nil
}
