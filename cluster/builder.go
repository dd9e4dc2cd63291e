// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/zimlib/zimstore/compression"
)

// Builder assembles one cluster: blobs are accumulated in memory and
// WriteTo emits the header byte followed by the offset table and blob
// bodies as a single compressed stream.
type Builder struct {
	registry *compression.Registry
	ctype    compression.Type
	opts     compression.Options
	blobs    [][]byte
	total    uint64
	extended bool
}

// NewBuilder creates a builder producing clusters of the given
// compression type.
func NewBuilder(registry *compression.Registry, ctype compression.Type) *Builder {
	return &Builder{registry: registry, ctype: ctype}
}

// SetOptions sets the compressor options used by WriteTo.
func (b *Builder) SetOptions(opts compression.Options) { b.opts = opts }

// ForceExtended makes WriteTo emit 8-byte offsets even when 4-byte
// offsets would fit. Mainly useful for tests and format tooling.
func (b *Builder) ForceExtended() { b.extended = true }

// AddBlob appends a blob and returns its blob number. The content is
// copied.
func (b *Builder) AddBlob(content []byte) int {
	blob := make([]byte, len(content))
	copy(blob, content)
	b.blobs = append(b.blobs, blob)
	b.total += uint64(len(blob))
	return len(b.blobs) - 1
}

// NumBlobs returns the number of blobs added so far.
func (b *Builder) NumBlobs() int { return len(b.blobs) }

// TotalBlobSize returns the decompressed size of all blob bodies.
func (b *Builder) TotalBlobSize() uint64 { return b.total }

// needsExtended reports whether any offset exceeds 32 bits with
// 4-byte entries.
func (b *Builder) needsExtended() bool {
	if b.extended {
		return true
	}
	end := uint64(len(b.blobs)+1)*4 + b.total
	return end > math.MaxUint32
}

// WriteTo writes the complete cluster and returns the number of
// bytes written (its on-disk extent, including the header byte).
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	codec, err := b.registry.Get(b.ctype)
	if err != nil {
		return 0, err
	}
	comp, err := codec.NewCompressor(b.opts)
	if err != nil {
		return 0, err
	}

	extended := b.needsExtended()
	width := uint64(4)
	if extended {
		width = 8
	}
	header := byte(b.ctype)
	if extended {
		header |= extendedFlag
	}

	var written int64
	if _, err := w.Write([]byte{header}); err != nil {
		return written, fmt.Errorf("write cluster header: %w", err)
	}
	written++

	emit := func(plain []byte) error {
		out, err := comp.Compress(plain)
		if err != nil {
			return fmt.Errorf("compress cluster: %w", err)
		}
		n, err := w.Write(out)
		written += int64(n)
		if err != nil {
			return fmt.Errorf("write cluster: %w", err)
		}
		return nil
	}

	// Offset table: N+1 entries, first is its own size in bytes.
	table := make([]byte, 0, (uint64(len(b.blobs))+1)*width)
	off := (uint64(len(b.blobs)) + 1) * width
	table = b.appendOffset(table, off, extended)
	for _, blob := range b.blobs {
		off += uint64(len(blob))
		table = b.appendOffset(table, off, extended)
	}
	if err := emit(table); err != nil {
		return written, err
	}
	for _, blob := range b.blobs {
		if err := emit(blob); err != nil {
			return written, err
		}
	}

	tail, err := comp.Flush()
	if err != nil {
		return written, fmt.Errorf("finish cluster compression: %w", err)
	}
	n, err := w.Write(tail)
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("write cluster: %w", err)
	}
	return written, nil
}

func (b *Builder) appendOffset(table []byte, off uint64, extended bool) []byte {
	if extended {
		return binary.LittleEndian.AppendUint64(table, off)
	}
	return binary.LittleEndian.AppendUint32(table, uint32(off))
}
