// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package fsio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAdvisoryLocking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.zim")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	// Two readers share the lock.
	r1, err := Open(path)
	if err != nil {
		t.Fatalf("first reader: %v", err)
	}
	r2, err := Open(path)
	if err != nil {
		t.Fatalf("second reader: %v", err)
	}

	// A writer cannot join while readers hold the file.
	if _, err := OpenRW(path); !errors.Is(err, ErrLocked) {
		t.Errorf("OpenRW under shared locks: got %v, want ErrLocked", err)
	}

	r1.Close()
	r2.Close()

	// With the readers gone the writer takes the exclusive lock, and
	// now a reader is the one shut out.
	w, err := OpenRW(path)
	if err != nil {
		t.Fatalf("OpenRW after readers closed: %v", err)
	}
	if _, err := Open(path); !errors.Is(err, ErrLocked) {
		t.Errorf("Open under exclusive lock: got %v, want ErrLocked", err)
	}
	w.Close()

	r3, err := Open(path)
	if err != nil {
		t.Fatalf("Open after writer closed: %v", err)
	}
	r3.Close()
}
