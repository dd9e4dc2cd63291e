// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package pointerlist

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get and Remove when no pointer
	// resolves to the requested key.
	ErrNotFound = errors.New("key not found in pointer list")

	// ErrUnsorted is returned by CheckSorted at the first order
	// violation.
	ErrUnsorted = errors.New("pointer list is not sorted")
)

// KeyFunc resolves a pointer to its sort key. It may perform I/O and
// may fail; failures abort the operation that needed the key.
type KeyFunc func(ptr uint64) ([]byte, error)

// Ordered is a pointer list kept sorted by the key function. Order is
// the caller's responsibility when loading an existing list
// (CheckSorted verifies it on demand); Add and Remove preserve it.
type Ordered struct {
	List
	keyOf KeyFunc
}

// NewOrdered returns an empty ordered list over the key function.
func NewOrdered(keyOf KeyFunc) *Ordered {
	return &Ordered{keyOf: keyOf}
}

// OrderedFromPointers wraps an existing pointer slice assumed to be
// sorted by the key function. Run CheckSorted to verify.
func OrderedFromPointers(keyOf KeyFunc, ptrs []uint64) *Ordered {
	return &Ordered{List: List{ptrs: ptrs}, keyOf: keyOf}
}

// BinarySearch returns the leftmost index at which key could be
// inserted while preserving order. The index may equal Len.
func (o *Ordered) BinarySearch(key []byte) (int, error) {
	lo, hi := 0, len(o.ptrs)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		midKey, err := o.keyOf(o.ptrs[mid])
		if err != nil {
			return 0, fmt.Errorf("resolve key of pointer %d: %w", o.ptrs[mid], err)
		}
		if bytes.Compare(midKey, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// FirstGreaterOrEqual returns the index of the first pointer whose
// key is >= key; equals Len when every key is smaller. Used to scope
// a namespace-prefixed range.
func (o *Ordered) FirstGreaterOrEqual(key []byte) (int, error) {
	return o.BinarySearch(key)
}

// Get returns the pointer whose key matches exactly, or ErrNotFound.
func (o *Ordered) Get(key []byte) (uint64, error) {
	i, err := o.BinarySearch(key)
	if err != nil {
		return 0, err
	}
	if i >= len(o.ptrs) {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	found, err := o.keyOf(o.ptrs[i])
	if err != nil {
		return 0, fmt.Errorf("resolve key of pointer %d: %w", o.ptrs[i], err)
	}
	if !bytes.Equal(found, key) {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return o.ptrs[i], nil
}

// Has reports whether a pointer resolves exactly to key.
func (o *Ordered) Has(key []byte) (bool, error) {
	_, err := o.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Add inserts a pointer at the position its key demands. The caller
// guarantees that the key function resolves ptr to key from now on.
func (o *Ordered) Add(key []byte, ptr uint64) error {
	i, err := o.BinarySearch(key)
	if err != nil {
		return err
	}
	o.ptrs = append(o.ptrs, 0)
	copy(o.ptrs[i+1:], o.ptrs[i:])
	o.ptrs[i] = ptr
	return nil
}

// Remove deletes the pointer whose key matches exactly.
func (o *Ordered) Remove(key []byte) error {
	i, err := o.BinarySearch(key)
	if err != nil {
		return err
	}
	if i >= len(o.ptrs) {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	found, err := o.keyOf(o.ptrs[i])
	if err != nil {
		return fmt.Errorf("resolve key of pointer %d: %w", o.ptrs[i], err)
	}
	if !bytes.Equal(found, key) {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	o.ptrs = append(o.ptrs[:i], o.ptrs[i+1:]...)
	return nil
}

// CheckSorted walks the list once and fails at the first order
// violation. It is a diagnostic: callers may violate order
// transiently while bulk-appending, so enforcement is explicit, not
// continuous.
func (o *Ordered) CheckSorted() error {
	if len(o.ptrs) < 2 {
		return nil
	}
	prev, err := o.keyOf(o.ptrs[0])
	if err != nil {
		return fmt.Errorf("resolve key of pointer %d: %w", o.ptrs[0], err)
	}
	for i := 1; i < len(o.ptrs); i++ {
		cur, err := o.keyOf(o.ptrs[i])
		if err != nil {
			return fmt.Errorf("resolve key of pointer %d: %w", o.ptrs[i], err)
		}
		if bytes.Compare(prev, cur) > 0 {
			return fmt.Errorf("%w: violation at index %d", ErrUnsorted, i)
		}
		prev = cur
	}
	return nil
}
