// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package allocator

import (
	"log/slog"
	"sort"
	"sync"
)

// Block is a free byte range. The free set is kept sorted by Start
// with no two blocks adjacent or overlapping.
type Block struct {
	Start  uint64
	Length uint64
}

// End returns the first byte past the block.
func (b Block) End() uint64 { return b.Start + b.Length }

// SpaceAllocator services allocation and free requests against a
// file whose end may grow. One mutex serializes everything: Allocate
// and MarkFree are linearizable.
type SpaceAllocator struct {
	mu      sync.Mutex
	blocks  []Block
	fileEnd uint64
	logger  *slog.Logger
}

// New creates an allocator for a file currently ending at fileEnd.
// A nil logger means slog.Default().
func New(fileEnd uint64, logger *slog.Logger) *SpaceAllocator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SpaceAllocator{fileEnd: fileEnd, logger: logger}
}

// Allocate reserves size bytes and returns the placement offset.
//
// Placement policy: the smallest free block that fits (best-fit), so
// large gaps survive for large requests. With no fitting block the
// file grows at its end — absorbing a free block that ends exactly at
// the current end first, so growth never strands a gap right before
// the growth point. A zero-size request reserves nothing and returns
// the current file end; it is legal but logged, since it usually
// means the caller computed a size wrong.
func (a *SpaceAllocator) Allocate(size uint64) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if size == 0 {
		a.logger.Warn("zero-size allocation requested", "file_end", a.fileEnd)
		return a.fileEnd
	}

	best := -1
	for i, b := range a.blocks {
		if b.Length >= size && (best < 0 || b.Length < a.blocks[best].Length) {
			best = i
		}
	}
	if best >= 0 {
		start := a.blocks[best].Start
		if a.blocks[best].Length == size {
			a.blocks = append(a.blocks[:best], a.blocks[best+1:]...)
		} else {
			a.blocks[best].Start += size
			a.blocks[best].Length -= size
		}
		return start
	}

	if n := len(a.blocks); n > 0 && a.blocks[n-1].End() == a.fileEnd {
		start := a.blocks[n-1].Start
		a.blocks = a.blocks[:n-1]
		a.fileEnd = start + size
		return start
	}

	start := a.fileEnd
	a.fileEnd += size
	return start
}

// MarkFree returns a byte range to the free pool, merging it with any
// touching or overlapping neighbors so the free set stays fully
// coalesced. Freeing a zero-length range is a no-op.
func (a *SpaceAllocator) MarkFree(start, length uint64) {
	if length == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	pos := sort.Search(len(a.blocks), func(i int) bool {
		return a.blocks[i].Start >= start
	})
	a.blocks = append(a.blocks, Block{})
	copy(a.blocks[pos+1:], a.blocks[pos:])
	a.blocks[pos] = Block{Start: start, Length: length}

	// Merge with the predecessor if it touches or overlaps.
	if pos > 0 && a.blocks[pos-1].End() >= a.blocks[pos].Start {
		prev := pos - 1
		end := a.blocks[pos].End()
		if a.blocks[prev].End() > end {
			end = a.blocks[prev].End()
		}
		a.blocks[prev].Length = end - a.blocks[prev].Start
		a.blocks = append(a.blocks[:pos], a.blocks[pos+1:]...)
		pos = prev
	}
	// Merge any number of following blocks the range now reaches.
	for pos+1 < len(a.blocks) && a.blocks[pos].End() >= a.blocks[pos+1].Start {
		end := a.blocks[pos+1].End()
		if a.blocks[pos].End() > end {
			end = a.blocks[pos].End()
		}
		a.blocks[pos].Length = end - a.blocks[pos].Start
		a.blocks = append(a.blocks[:pos+1], a.blocks[pos+2:]...)
	}

	if end := a.blocks[pos].End(); end > a.fileEnd {
		// The invariant is fileEnd >= the end of the last block; a
		// free past the end means the caller and the allocator
		// disagree about the file size.
		a.logger.Warn("freed range extends past file end",
			"range_end", end, "file_end", a.fileEnd)
		a.fileEnd = end
	}
}

// FileEnd returns the current end of the managed file.
func (a *SpaceAllocator) FileEnd() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fileEnd
}

// Blocks returns a snapshot of the free set, sorted by start.
func (a *SpaceAllocator) Blocks() []Block {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Block, len(a.blocks))
	copy(out, a.blocks)
	return out
}

// TotalFree returns the number of free bytes tracked.
func (a *SpaceAllocator) TotalFree() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var total uint64
	for _, b := range a.blocks {
		total += b.Length
	}
	return total
}
