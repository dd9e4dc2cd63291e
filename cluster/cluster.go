// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/zimlib/zimstore/compression"
	"github.com/zimlib/zimstore/fsio"
)

const (
	// extendedFlag in the header byte selects 8-byte offsets.
	extendedFlag = 0x10
	// typeMask extracts the compression code from the header byte.
	typeMask = 0x0F
)

// Strategy selects what a cluster memoizes between accesses. The
// parsing algorithm is identical for all three.
type Strategy uint8

const (
	// StrategyDirect memoizes nothing: every access re-reads from
	// the codec, starting at the cluster start when it cannot reuse
	// the live reader. Lowest RAM, highest repeated-read CPU.
	StrategyDirect Strategy = iota

	// StrategyOffsets parses the offset table once and keeps it;
	// blob content is decompressed on demand per access.
	StrategyOffsets

	// StrategyMaterialized additionally decompresses the whole blob
	// region into memory on first content access; subsequent reads
	// are plain slices. Highest RAM, lowest CPU.
	StrategyMaterialized
)

// String returns the strategy's configuration name.
func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "direct"
	case StrategyOffsets:
		return "offsets"
	case StrategyMaterialized:
		return "materialized"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseStrategy parses a strategy from its configuration name.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "direct":
		return StrategyDirect, nil
	case "offsets":
		return StrategyOffsets, nil
	case "materialized":
		return StrategyMaterialized, nil
	default:
		return 0, fmt.Errorf("unknown cluster strategy: %q", name)
	}
}

var (
	// ErrUnbound is returned when a cluster is used before Bind.
	ErrUnbound = errors.New("cluster is not bound to a file")

	// ErrBlobIndex is returned for a blob number outside [0, N).
	ErrBlobIndex = errors.New("blob index out of range")

	// ErrOffsetTable is returned when the offset table is
	// malformed: a first offset that is not a positive multiple of
	// the pointer width, or offsets that decrease.
	ErrOffsetTable = errors.New("malformed cluster offset table")
)

// Cluster is one compressed blob container. A zero cluster is
// unbound; Bind attaches it to a file offset. All methods are safe
// for concurrent use, but the single decompression reader means
// concurrent reads serialize and may discard each other's stream
// position — callers wanting parallel reads should use separate
// Cluster values.
type Cluster struct {
	registry *compression.Registry
	strategy Strategy

	mu     sync.Mutex
	file   *fsio.File
	offset int64
	bound  bool

	headerRead bool
	ctype      compression.Type
	extended   bool

	// offsets is the parsed table (StrategyOffsets and up); body is
	// the decompressed blob region starting at offsets[0]
	// (StrategyMaterialized only).
	offsets []uint64
	body    []byte

	// rdr is the recycled decompression reader, nil when none is
	// live. Discarded on error rather than reused.
	rdr *compression.Reader
}

// New creates an unbound cluster using the given codec registry and
// access strategy.
func New(registry *compression.Registry, strategy Strategy) *Cluster {
	return &Cluster{registry: registry, strategy: strategy, offset: -1}
}

// Bind attaches the cluster to an absolute offset in a file. Binding
// resets any parsed state, so a cluster may be rebound after its
// on-disk location moved.
func (c *Cluster) Bind(file *fsio.File, offset int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discardReader()
	c.file = file
	c.offset = offset
	c.bound = true
	c.headerRead = false
	c.offsets = nil
	c.body = nil
}

// Offset returns the cluster's absolute file offset.
func (c *Cluster) Offset() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.bound {
		return 0, ErrUnbound
	}
	return c.offset, nil
}

// Strategy returns the access strategy the cluster was created with.
func (c *Cluster) Strategy() Strategy { return c.strategy }

// Compression returns the cluster's compression type, reading the
// header if necessary.
func (c *Cluster) Compression() (compression.Type, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureHeader(); err != nil {
		return 0, err
	}
	return c.ctype, nil
}

// Extended reports whether the offset table uses 8-byte entries.
func (c *Cluster) Extended() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureHeader(); err != nil {
		return false, err
	}
	return c.extended, nil
}

// ensureHeader reads and validates the one-byte cluster header.
// Caller holds c.mu.
func (c *Cluster) ensureHeader() error {
	if !c.bound {
		return ErrUnbound
	}
	if c.headerRead {
		return nil
	}
	var hdr [1]byte
	if _, err := io.ReadFull(c.file.Cursor(c.offset), hdr[:]); err != nil {
		return fmt.Errorf("cluster at offset %d: read header: %w", c.offset, err)
	}
	ctype := compression.Type(hdr[0] & typeMask)
	if _, err := c.registry.Get(ctype); err != nil {
		return fmt.Errorf("cluster at offset %d: %w", c.offset, err)
	}
	c.ctype = ctype
	c.extended = hdr[0]&extendedFlag != 0
	c.headerRead = true
	return nil
}

// pointerWidth returns the offset entry width in bytes. Caller holds
// c.mu with the header read.
func (c *Cluster) pointerWidth() int {
	if c.extended {
		return 8
	}
	return 4
}

// newReader starts a fresh decompression reader at the beginning of
// the compressed region. Caller holds c.mu with the header read.
func (c *Cluster) newReader() (*compression.Reader, error) {
	codec, err := c.registry.Get(c.ctype)
	if err != nil {
		return nil, fmt.Errorf("cluster at offset %d: %w", c.offset, err)
	}
	dec, err := codec.NewDecompressor(c.file.Cursor(c.offset + 1))
	if err != nil {
		return nil, fmt.Errorf("cluster at offset %d: start decompressor: %w", c.offset, err)
	}
	return compression.NewReader(dec), nil
}

// readerAt returns a decompression reader able to reach the given
// decompressed offset: the live reader when the target is not behind
// it, otherwise a fresh one from the cluster start. Caller holds
// c.mu with the header read.
func (c *Cluster) readerAt(target int64) (*compression.Reader, error) {
	if c.rdr != nil && target >= c.rdr.Offset() {
		return c.rdr, nil
	}
	c.discardReader()
	r, err := c.newReader()
	if err != nil {
		return nil, err
	}
	c.rdr = r
	return r, nil
}

// discardReader drops the live reader. Caller holds c.mu.
func (c *Cluster) discardReader() {
	if c.rdr != nil {
		c.rdr.Release()
		c.rdr = nil
	}
}

// decodeOffset reads one table entry. Caller holds c.mu.
func (c *Cluster) decodeOffset(buf []byte) uint64 {
	if c.extended {
		return binary.LittleEndian.Uint64(buf)
	}
	return uint64(binary.LittleEndian.Uint32(buf))
}

// readOffsets parses the offset table from the start of the stream
// through entry index last (inclusive); last < 0 reads the whole
// table. The table length is not known up front: the first entry is
// (N+1)*width and reveals N. Returns the entries read and the blob
// count N. Caller holds c.mu with the header read.
func (c *Cluster) readOffsets(last int) ([]uint64, int, error) {
	width := c.pointerWidth()
	r, err := c.readerAt(0)
	if err != nil {
		return nil, 0, err
	}
	if err := r.SkipTo(0); err != nil {
		return nil, 0, err
	}
	buf, err := r.ReadN(width)
	if err != nil {
		return nil, 0, err
	}
	if len(buf) < width {
		return nil, 0, fmt.Errorf("cluster at offset %d: offset table: %w", c.offset, compression.ErrTruncated)
	}
	first := c.decodeOffset(buf)
	if first == 0 || first%uint64(width) != 0 {
		return nil, 0, fmt.Errorf("%w: first offset %d is not a positive multiple of %d", ErrOffsetTable, first, width)
	}
	if first > math.MaxInt64 {
		return nil, 0, fmt.Errorf("%w: first offset %d does not fit in a file", ErrOffsetTable, first)
	}
	entries := int(first / uint64(width)) // N+1
	blobs := entries - 1
	if last < 0 || last > entries-1 {
		last = entries - 1
	}
	// The entry count comes from the file, so it only bounds the
	// pre-allocation: a hostile count runs the stream dry and fails as
	// a truncation long before memory is committed for it.
	offsets := make([]uint64, 1, min(last+1, 1024))
	offsets[0] = first
	prev := first
	for i := 1; i <= last; i++ {
		buf, err := r.ReadN(width)
		if err != nil {
			return nil, 0, err
		}
		if len(buf) < width {
			return nil, 0, fmt.Errorf("cluster at offset %d: offset table: %w", c.offset, compression.ErrTruncated)
		}
		v := c.decodeOffset(buf)
		if v < prev {
			return nil, 0, fmt.Errorf("%w: offset %d at index %d after %d", ErrOffsetTable, v, i, prev)
		}
		if v > math.MaxInt64 {
			return nil, 0, fmt.Errorf("%w: offset %d at index %d does not fit in a file", ErrOffsetTable, v, i)
		}
		offsets = append(offsets, v)
		prev = v
	}
	return offsets, blobs, nil
}

// blobBounds returns the decompressed byte range of blob i and
// ensures enough of the offset table is parsed to know it. Caller
// holds c.mu with the header read.
func (c *Cluster) blobBounds(i int) (start, end uint64, err error) {
	if i < 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrBlobIndex, i)
	}
	if c.strategy == StrategyDirect {
		offsets, blobs, err := c.readOffsets(i + 1)
		if err != nil {
			return 0, 0, err
		}
		if i >= blobs {
			return 0, 0, fmt.Errorf("%w: %d of %d", ErrBlobIndex, i, blobs)
		}
		return offsets[i], offsets[i+1], nil
	}
	if err := c.ensureOffsets(); err != nil {
		return 0, 0, err
	}
	if i >= len(c.offsets)-1 {
		return 0, 0, fmt.Errorf("%w: %d of %d", ErrBlobIndex, i, len(c.offsets)-1)
	}
	return c.offsets[i], c.offsets[i+1], nil
}

// ensureOffsets parses and memoizes the full offset table. Caller
// holds c.mu with the header read.
func (c *Cluster) ensureOffsets() error {
	if c.offsets != nil {
		return nil
	}
	offsets, _, err := c.readOffsets(-1)
	if err != nil {
		return err
	}
	c.offsets = offsets
	return nil
}

// ensureBody decompresses the blob region into memory. The body
// starts at offsets[0]; the table region is never needed again once
// parsed. Caller holds c.mu with the full offset table parsed.
func (c *Cluster) ensureBody() error {
	if c.body != nil {
		return nil
	}
	start := c.offsets[0]
	end := c.offsets[len(c.offsets)-1]
	r, err := c.readerAt(int64(start))
	if err != nil {
		return err
	}
	if err := r.SkipTo(int64(start)); err != nil {
		return err
	}
	body, err := r.ReadN(int(end - start))
	if err != nil {
		return err
	}
	if uint64(len(body)) < end-start {
		return fmt.Errorf("cluster at offset %d: body: %w", c.offset, compression.ErrTruncated)
	}
	c.body = body
	return nil
}

// totalDecompressed returns offsets[N], the decompressed size of the
// whole cluster. Caller holds c.mu with the header read.
func (c *Cluster) totalDecompressed() (uint64, error) {
	if c.strategy == StrategyDirect {
		offsets, _, err := c.readOffsets(-1)
		if err != nil {
			return 0, err
		}
		return offsets[len(offsets)-1], nil
	}
	if err := c.ensureOffsets(); err != nil {
		return 0, err
	}
	return c.offsets[len(c.offsets)-1], nil
}

// NumBlobs returns the number of blobs in the cluster.
func (c *Cluster) NumBlobs() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureHeader(); err != nil {
		return 0, err
	}
	if c.strategy == StrategyDirect {
		_, blobs, err := c.readOffsets(0)
		if err != nil {
			c.discardReader()
			return 0, err
		}
		return blobs, nil
	}
	if err := c.ensureOffsets(); err != nil {
		c.discardReader()
		return 0, err
	}
	return len(c.offsets) - 1, nil
}

// BlobSize returns the decompressed size of blob i.
func (c *Cluster) BlobSize(i int) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureHeader(); err != nil {
		return 0, err
	}
	start, end, err := c.blobBounds(i)
	if err != nil {
		c.discardReader()
		return 0, err
	}
	return end - start, nil
}

// TotalDecompressedSize returns the decompressed size of the whole
// cluster: offset table plus all blob bodies.
func (c *Cluster) TotalDecompressedSize() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureHeader(); err != nil {
		return 0, err
	}
	size, err := c.totalDecompressed()
	if err != nil {
		c.discardReader()
		return 0, err
	}
	return size, nil
}

// TotalCompressedSize returns the cluster's on-disk extent in bytes,
// including the header byte. It reads the compressed stream to its
// end; the codec reports the exact encoded size with no over-read.
// This is what the write path feeds to the space allocator when a
// cluster is deleted or replaced.
func (c *Cluster) TotalCompressedSize() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureHeader(); err != nil {
		return 0, err
	}
	if c.ctype == compression.None {
		// An uncompressed body has no framing: its stream would only
		// end at end of file. The encoded size equals the decoded
		// size, which the offset table states.
		size, err := c.totalDecompressed()
		if err != nil {
			c.discardReader()
			return 0, err
		}
		return int64(size) + 1, nil
	}
	r := c.rdr
	if r == nil {
		fresh, err := c.newReader()
		if err != nil {
			return 0, err
		}
		c.rdr = fresh
		r = fresh
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		c.discardReader()
		return 0, fmt.Errorf("cluster at offset %d: drain: %w", c.offset, err)
	}
	size, err := r.CompressedSize()
	if err != nil {
		c.discardReader()
		return 0, err
	}
	return size + 1, nil
}

// ReadBlob returns the full content of blob i.
func (c *Cluster) ReadBlob(i int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureHeader(); err != nil {
		return nil, err
	}
	start, end, err := c.blobBounds(i)
	if err != nil {
		c.discardReader()
		return nil, err
	}
	if c.strategy == StrategyMaterialized {
		if err := c.ensureBody(); err != nil {
			c.discardReader()
			return nil, err
		}
		base := c.offsets[0]
		out := make([]byte, end-start)
		copy(out, c.body[start-base:end-base])
		return out, nil
	}
	data, err := c.readRange(start, end)
	if err != nil {
		c.discardReader()
		return nil, err
	}
	return data, nil
}

// readRange reads the decompressed range [start, end) through the
// recycled reader. Caller holds c.mu with the header read.
func (c *Cluster) readRange(start, end uint64) ([]byte, error) {
	r, err := c.readerAt(int64(start))
	if err != nil {
		return nil, err
	}
	if err := r.SkipTo(int64(start)); err != nil {
		return nil, err
	}
	data, err := r.ReadN(int(end - start))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) < end-start {
		return nil, fmt.Errorf("cluster at offset %d: blob content: %w", c.offset, compression.ErrTruncated)
	}
	return data, nil
}

// BlobChunks lazily yields one blob's content in chunks. Next
// returns io.EOF after the final chunk. The iterator re-synchronizes
// with the cluster's reader on every call, so interleaved cluster
// operations cost extra decompression but never change the bytes
// produced.
type BlobChunks struct {
	cluster   *Cluster
	pos, end  uint64
	chunkSize int
	err       error
}

// BlobReader returns a lazy chunk iterator over blob i. chunkSize
// bounds each chunk; values <= 0 select a 32 KiB default.
func (c *Cluster) BlobReader(i int, chunkSize int) (*BlobChunks, error) {
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureHeader(); err != nil {
		return nil, err
	}
	start, end, err := c.blobBounds(i)
	if err != nil {
		c.discardReader()
		return nil, err
	}
	return &BlobChunks{cluster: c, pos: start, end: end, chunkSize: chunkSize}, nil
}

// Next returns the next chunk of the blob, or io.EOF when done.
func (it *BlobChunks) Next() ([]byte, error) {
	if it.err != nil {
		return nil, it.err
	}
	if it.pos >= it.end {
		it.err = io.EOF
		return nil, io.EOF
	}
	size := uint64(it.chunkSize)
	if size > it.end-it.pos {
		size = it.end - it.pos
	}

	c := it.cluster
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.strategy == StrategyMaterialized {
		if err := c.ensureBody(); err != nil {
			c.discardReader()
			it.err = err
			return nil, err
		}
		base := c.offsets[0]
		out := make([]byte, size)
		copy(out, c.body[it.pos-base:it.pos-base+size])
		it.pos += size
		return out, nil
	}
	data, err := c.readRange(it.pos, it.pos+size)
	if err != nil {
		c.discardReader()
		it.err = err
		return nil, err
	}
	it.pos += size
	return data, nil
}
