// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package fsio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func createArchive(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zim")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "absent.zim")); err == nil {
		t.Error("Open of a missing file should fail")
	}
}

func TestSessionSeekReadWrite(t *testing.T) {
	path := createArchive(t, []byte("0123456789"))
	f, err := OpenRW(path)
	if err != nil {
		t.Fatalf("OpenRW: %v", err)
	}
	defer f.Close()

	s := f.Acquire()
	if _, err := s.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if pos, err := s.Tell(); err != nil || pos != 4 {
		t.Fatalf("Tell = %d, %v; want 4, nil", pos, err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf) != "456" {
		t.Errorf("read %q, want %q", buf, "456")
	}
	if _, err := s.Seek(0, io.SeekEnd); err != nil {
		t.Fatalf("Seek end: %v", err)
	}
	if _, err := s.Write([]byte("AB")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	s.Release()

	size, err := f.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 12 {
		t.Errorf("Size = %d, want 12", size)
	}
	if err := f.Truncate(10); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if size, _ := f.Size(); size != 10 {
		t.Errorf("Size after Truncate = %d, want 10", size)
	}
}

func TestCursorTracksOwnPosition(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	path := createArchive(t, data)
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	a := f.Cursor(0)
	b := f.Cursor(128)

	// Interleaved reads: each cursor continues from where it left off
	// no matter what the other did in between.
	bufA := make([]byte, 4)
	bufB := make([]byte, 4)
	for i := 0; i < 4; i++ {
		if _, err := io.ReadFull(a, bufA); err != nil {
			t.Fatalf("cursor a read %d: %v", i, err)
		}
		if _, err := io.ReadFull(b, bufB); err != nil {
			t.Fatalf("cursor b read %d: %v", i, err)
		}
		wantA := data[i*4 : i*4+4]
		wantB := data[128+i*4 : 128+i*4+4]
		if !bytes.Equal(bufA, wantA) {
			t.Fatalf("cursor a read %d = %v, want %v", i, bufA, wantA)
		}
		if !bytes.Equal(bufB, wantB) {
			t.Fatalf("cursor b read %d = %v, want %v", i, bufB, wantB)
		}
	}
	if a.Offset() != 16 || b.Offset() != 144 {
		t.Errorf("offsets = %d, %d; want 16, 144", a.Offset(), b.Offset())
	}

	a.SeekTo(250)
	rest, err := io.ReadAll(a)
	if err != nil {
		t.Fatalf("ReadAll after SeekTo: %v", err)
	}
	if !bytes.Equal(rest, data[250:]) {
		t.Errorf("tail read = %v, want %v", rest, data[250:])
	}
}

func TestCursorConcurrentReaders(t *testing.T) {
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i * 31)
	}
	path := createArchive(t, data)
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		start := int64(g * 8 * 1024)
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := f.Cursor(start)
			got := make([]byte, 8*1024)
			if _, err := io.ReadFull(c, got); err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(got, data[start:start+8*1024]) {
				errs <- io.ErrUnexpectedEOF
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent cursor read: %v", err)
	}
}
