// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package fsio

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// File is a shared archive file handle. All position-dependent access
// goes through Acquire (for explicit seek/read/write sequences) or
// Cursor (for independent sequential readers). The mutex serializes
// users of the underlying OS file position.
type File struct {
	mu     sync.Mutex
	handle *os.File
	path   string
	locked bool
}

// Open opens an existing archive file read-only and takes a shared
// advisory lock on it (other readers may open it concurrently, a
// writer may not).
func Open(path string) (*File, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := lockHandle(handle, false); err != nil {
		handle.Close()
		return nil, fmt.Errorf("lock archive %s: %w", path, err)
	}
	return &File{handle: handle, path: path, locked: true}, nil
}

// OpenRW opens an existing archive file for reading and writing and
// takes an exclusive advisory lock on it.
func OpenRW(path string) (*File, error) {
	handle, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := lockHandle(handle, true); err != nil {
		handle.Close()
		return nil, fmt.Errorf("lock archive %s: %w", path, err)
	}
	return &File{handle: handle, path: path, locked: true}, nil
}

// Create creates (or truncates) an archive file for reading and
// writing, with an exclusive advisory lock.
func Create(path string) (*File, error) {
	handle, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	if err := lockHandle(handle, true); err != nil {
		handle.Close()
		return nil, fmt.Errorf("lock archive %s: %w", path, err)
	}
	return &File{handle: handle, path: path, locked: true}, nil
}

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

// Size returns the current size of the file in bytes.
func (f *File) Size() (int64, error) {
	info, err := f.handle.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat archive: %w", err)
	}
	return info.Size(), nil
}

// Truncate resizes the file. Used by the write path when shrinking an
// archive in place.
func (f *File) Truncate(size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.handle.Truncate(size); err != nil {
		return fmt.Errorf("truncate archive: %w", err)
	}
	return nil
}

// Close releases the advisory lock and closes the handle. The file
// must not be used afterwards.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked {
		unlockHandle(f.handle)
		f.locked = false
	}
	return f.handle.Close()
}

// Acquire locks the file and returns a Session for an uninterrupted
// seek/read/write sequence. The caller must call Release when done.
func (f *File) Acquire() *Session {
	f.mu.Lock()
	return &Session{file: f}
}

// Session is a held file lock. Operations go straight to the
// underlying handle; no other goroutine can touch the file position
// until Release.
type Session struct {
	file *File
}

// Read reads from the current file position.
func (s *Session) Read(p []byte) (int, error) {
	return s.file.handle.Read(p)
}

// Write writes at the current file position.
func (s *Session) Write(p []byte) (int, error) {
	return s.file.handle.Write(p)
}

// Seek repositions the file.
func (s *Session) Seek(offset int64, whence int) (int64, error) {
	return s.file.handle.Seek(offset, whence)
}

// Tell returns the current file position.
func (s *Session) Tell() (int64, error) {
	return s.file.handle.Seek(0, io.SeekCurrent)
}

// Release unlocks the file. The session must not be used afterwards.
func (s *Session) Release() {
	s.file.mu.Unlock()
	s.file = nil
}
