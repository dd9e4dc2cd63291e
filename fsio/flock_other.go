// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !darwin && !linux

package fsio

import (
	"errors"
	"os"
)

// ErrLocked is returned when another process holds a conflicting
// advisory lock on the archive. Never returned on platforms without
// flock support.
var ErrLocked = errors.New("archive is locked by another process")

func lockHandle(handle *os.File, exclusive bool) error { return nil }

func unlockHandle(handle *os.File) {}
