// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package pointerlist

import (
	"errors"
	"fmt"
	"testing"
)

// tableKeys resolves pointers through an in-memory key table, standing
// in for directory-entry reads.
func tableKeys(table map[uint64]string) KeyFunc {
	return func(ptr uint64) ([]byte, error) {
		k, ok := table[ptr]
		if !ok {
			return nil, fmt.Errorf("no entry at pointer %d", ptr)
		}
		return []byte(k), nil
	}
}

func TestListBounds(t *testing.T) {
	l := FromPointers([]uint64{10, 20, 30})
	if l.Len() != 3 {
		t.Fatalf("Len = %d, want 3", l.Len())
	}
	if p, err := l.At(1); err != nil || p != 20 {
		t.Errorf("At(1) = %d, %v; want 20, nil", p, err)
	}
	if _, err := l.At(3); err == nil {
		t.Error("At(3) past the end should fail")
	}
	if _, err := l.At(-1); err == nil {
		t.Error("At(-1) should fail")
	}
	ptrs, err := l.Pointers(1, 3)
	if err != nil {
		t.Fatalf("Pointers(1, 3): %v", err)
	}
	if len(ptrs) != 2 || ptrs[0] != 20 || ptrs[1] != 30 {
		t.Errorf("Pointers(1, 3) = %v, want [20 30]", ptrs)
	}
	if _, err := l.Pointers(2, 1); err == nil {
		t.Error("inverted range should fail")
	}
	// The returned slice is a copy.
	ptrs[0] = 999
	if p, _ := l.At(1); p != 20 {
		t.Error("mutating the Pointers result must not affect the list")
	}
}

func TestOrderedAddKeepsOrder(t *testing.T) {
	table := map[uint64]string{}
	o := NewOrdered(tableKeys(table))

	add := func(ptr uint64, key string) {
		t.Helper()
		table[ptr] = key
		if err := o.Add([]byte(key), ptr); err != nil {
			t.Fatalf("Add(%q): %v", key, err)
		}
	}
	add(100, "C/m")
	add(200, "A/a")
	add(300, "M/index")
	add(400, "A/b")

	if err := o.CheckSorted(); err != nil {
		t.Fatalf("CheckSorted after inserts: %v", err)
	}
	want := []uint64{200, 400, 100, 300} // A/a, A/b, C/m, M/index
	for i, w := range want {
		if p, _ := o.At(i); p != w {
			t.Errorf("At(%d) = %d, want %d", i, p, w)
		}
	}
}

func TestOrderedGetHasRemove(t *testing.T) {
	table := map[uint64]string{10: "A/a", 20: "A/b", 30: "C/m"}
	o := OrderedFromPointers(tableKeys(table), []uint64{10, 20, 30})

	if p, err := o.Get([]byte("A/b")); err != nil || p != 20 {
		t.Errorf("Get(A/b) = %d, %v; want 20, nil", p, err)
	}
	if _, err := o.Get([]byte("A/c")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get of absent key: got %v, want ErrNotFound", err)
	}
	// A key past every resident key lands at index Len.
	if _, err := o.Get([]byte("Z/z")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get past the end: got %v, want ErrNotFound", err)
	}
	if ok, err := o.Has([]byte("C/m")); err != nil || !ok {
		t.Errorf("Has(C/m) = %v, %v; want true, nil", ok, err)
	}
	if ok, err := o.Has([]byte("B/x")); err != nil || ok {
		t.Errorf("Has(B/x) = %v, %v; want false, nil", ok, err)
	}

	if err := o.Remove([]byte("A/a")); err != nil {
		t.Fatalf("Remove(A/a): %v", err)
	}
	if o.Len() != 2 {
		t.Errorf("Len after Remove = %d, want 2", o.Len())
	}
	if err := o.Remove([]byte("A/a")); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove: got %v, want ErrNotFound", err)
	}
	if err := o.CheckSorted(); err != nil {
		t.Fatalf("CheckSorted after Remove: %v", err)
	}
}

func TestOrderedBinarySearch(t *testing.T) {
	table := map[uint64]string{1: "b", 2: "d", 3: "d", 4: "f"}
	o := OrderedFromPointers(tableKeys(table), []uint64{1, 2, 3, 4})

	tests := []struct {
		key  string
		want int
	}{
		{"a", 0},
		{"b", 0},
		{"c", 1},
		{"d", 1}, // leftmost of the duplicate run
		{"e", 3},
		{"f", 3},
		{"g", 4}, // past the end
	}
	for _, tt := range tests {
		got, err := o.BinarySearch([]byte(tt.key))
		if err != nil {
			t.Fatalf("BinarySearch(%q): %v", tt.key, err)
		}
		if got != tt.want {
			t.Errorf("BinarySearch(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestOrderedFirstGreaterOrEqualScopesPrefix(t *testing.T) {
	table := map[uint64]string{
		1: "A/a", 2: "A/b", 3: "C/a", 4: "C/b", 5: "M/x",
	}
	o := OrderedFromPointers(tableKeys(table), []uint64{1, 2, 3, 4, 5})

	// Pointers for namespace C live in [lo, hi).
	lo, err := o.FirstGreaterOrEqual([]byte("C/"))
	if err != nil {
		t.Fatalf("FirstGreaterOrEqual(C/): %v", err)
	}
	hi, err := o.FirstGreaterOrEqual([]byte("C0")) // '0' follows '/' in ASCII
	if err != nil {
		t.Fatalf("FirstGreaterOrEqual(C0): %v", err)
	}
	if lo != 2 || hi != 4 {
		t.Errorf("namespace C range = [%d, %d), want [2, 4)", lo, hi)
	}
}

func TestOrderedCheckSorted(t *testing.T) {
	table := map[uint64]string{1: "a", 2: "c", 3: "b"}
	o := OrderedFromPointers(tableKeys(table), []uint64{1, 2, 3})
	if err := o.CheckSorted(); !errors.Is(err, ErrUnsorted) {
		t.Errorf("CheckSorted on unsorted list: got %v, want ErrUnsorted", err)
	}
	if err := OrderedFromPointers(tableKeys(table), nil).CheckSorted(); err != nil {
		t.Errorf("CheckSorted on empty list: %v", err)
	}
}

func TestOrderedKeyFuncFailurePropagates(t *testing.T) {
	// Pointer 2 resolves to nothing; every operation that must read its
	// key surfaces the failure instead of guessing.
	table := map[uint64]string{1: "a", 3: "c"}
	o := OrderedFromPointers(tableKeys(table), []uint64{1, 2, 3})

	if _, err := o.Get([]byte("b")); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get through a failing pointer: got %v, want resolve error", err)
	}
	if err := o.CheckSorted(); err == nil || errors.Is(err, ErrUnsorted) {
		t.Errorf("CheckSorted through a failing pointer: got %v, want resolve error", err)
	}
}
