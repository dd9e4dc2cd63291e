// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package pointerlist

import (
	"fmt"
)

// List is a plain pointer array in file order.
type List struct {
	ptrs []uint64
}

// NewList returns an empty list.
func NewList() *List {
	return &List{}
}

// FromPointers wraps an existing pointer slice. The list takes
// ownership of the slice.
func FromPointers(ptrs []uint64) *List {
	return &List{ptrs: ptrs}
}

// Len returns the number of pointers.
func (l *List) Len() int { return len(l.ptrs) }

// At returns the pointer at index i.
func (l *List) At(i int) (uint64, error) {
	if i < 0 || i >= len(l.ptrs) {
		return 0, fmt.Errorf("pointer index %d out of range [0, %d)", i, len(l.ptrs))
	}
	return l.ptrs[i], nil
}

// Append adds a pointer at the end.
func (l *List) Append(ptr uint64) {
	l.ptrs = append(l.ptrs, ptr)
}

// Pointers returns a copy of the pointers in [start, end).
func (l *List) Pointers(start, end int) ([]uint64, error) {
	if start < 0 || end > len(l.ptrs) || start > end {
		return nil, fmt.Errorf("pointer range [%d, %d) out of range [0, %d)", start, end, len(l.ptrs))
	}
	out := make([]uint64, end-start)
	copy(out, l.ptrs[start:end])
	return out, nil
}
