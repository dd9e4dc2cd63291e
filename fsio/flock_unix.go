// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

//go:build darwin || linux

package fsio

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned when another process holds a conflicting
// advisory lock on the archive.
var ErrLocked = errors.New("archive is locked by another process")

// lockHandle takes a non-blocking advisory flock on the file.
// Readers take a shared lock, writers an exclusive one.
func lockHandle(handle *os.File, exclusive bool) error {
	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	err := unix.Flock(int(handle.Fd()), how|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return ErrLocked
	}
	return err
}

func unlockHandle(handle *os.File) {
	// Errors on unlock are ignored: the lock dies with the fd anyway.
	_ = unix.Flock(int(handle.Fd()), unix.LOCK_UN)
}
