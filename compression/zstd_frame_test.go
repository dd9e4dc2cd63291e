// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// zstdStream produces one complete zstd frame for the payload.
func zstdStream(t *testing.T, payload []byte) []byte {
	t.Helper()
	codec, err := DefaultRegistry().Get(Zstd)
	if err != nil {
		t.Fatalf("Get(zstd): %v", err)
	}
	return compress(t, codec, payload)
}

// skippableFrame wraps payload in a zstd skippable frame.
func skippableFrame(payload []byte) []byte {
	n := len(payload)
	frame := []byte{
		0x50, 0x2A, 0x4D, 0x18,
		byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24),
	}
	return append(frame, payload...)
}

func TestZstdFrameWalkerStopsAtFrameEnd(t *testing.T) {
	stream := zstdStream(t, testPayload(100_000))
	src := bytes.NewReader(append(append([]byte{}, stream...), "trailing archive bytes"...))
	w := newZstdFrameReader(src)
	served, err := io.ReadAll(w)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(served, stream) {
		t.Fatalf("walker served %d bytes, want the %d-byte frame verbatim", len(served), len(stream))
	}
	if w.consumed != int64(len(stream)) {
		t.Errorf("consumed = %d, want %d", w.consumed, len(stream))
	}
}

func TestZstdFrameWalkerSkippableFrames(t *testing.T) {
	// Skippable frames before the data frame belong to the stream:
	// they are served through and counted.
	frame := zstdStream(t, []byte("payload behind a skippable frame"))
	stream := append(skippableFrame([]byte("meta")), frame...)
	src := bytes.NewReader(append(append([]byte{}, stream...), 0xFF, 0xFF))

	w := newZstdFrameReader(src)
	served, err := io.ReadAll(w)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(served, stream) {
		t.Fatal("walker must serve skippable frames through unmodified")
	}
	if w.consumed != int64(len(stream)) {
		t.Errorf("consumed = %d, want %d", w.consumed, len(stream))
	}

	// The decoder path handles the same stream end to end.
	codec, err := DefaultRegistry().Get(Zstd)
	if err != nil {
		t.Fatalf("Get(zstd): %v", err)
	}
	dec, err := codec.NewDecompressor(bytes.NewReader(append(append([]byte{}, stream...), 0xFF)))
	if err != nil {
		t.Fatalf("NewDecompressor: %v", err)
	}
	r := NewReader(dec)
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll through decoder: %v", err)
	}
	if string(got) != "payload behind a skippable frame" {
		t.Errorf("decoded %q", got)
	}
	size, err := r.CompressedSize()
	if err != nil {
		t.Fatalf("CompressedSize: %v", err)
	}
	if size != int64(len(stream)) {
		t.Errorf("CompressedSize = %d, want %d", size, len(stream))
	}
	r.Release()
}

func TestZstdFrameWalkerTruncation(t *testing.T) {
	stream := zstdStream(t, testPayload(50_000))
	tests := []struct {
		name string
		cut  int
	}{
		{"mid magic", 2},
		{"mid frame header", 5},
		{"mid block payload", len(stream) / 2},
		{"one byte short", len(stream) - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newZstdFrameReader(bytes.NewReader(stream[:tt.cut]))
			_, err := io.ReadAll(w)
			if !errors.Is(err, io.ErrUnexpectedEOF) {
				t.Errorf("ReadAll of %d/%d bytes: got %v, want ErrUnexpectedEOF", tt.cut, len(stream), err)
			}
		})
	}
}

func TestZstdFrameWalkerZeroLengthRead(t *testing.T) {
	// io.Reader allows zero-length reads at any time; mid-payload the
	// walker must return immediately instead of spinning on empty
	// source reads.
	stream := zstdStream(t, testPayload(10_000))
	w := newZstdFrameReader(bytes.NewReader(stream))

	buf := make([]byte, 1)
	for w.payload == 0 {
		if _, err := w.Read(buf); err != nil {
			t.Fatalf("Read: %v", err)
		}
	}
	n, err := w.Read(nil)
	if n != 0 || err != nil {
		t.Fatalf("zero-length read = %d, %v; want 0, nil", n, err)
	}
	// The walker still serves the remainder of the frame normally.
	if _, err := io.ReadAll(w); err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if w.consumed != int64(len(stream)) {
		t.Errorf("consumed = %d, want %d", w.consumed, len(stream))
	}
}

func TestZstdFrameWalkerBadMagic(t *testing.T) {
	w := newZstdFrameReader(bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0}))
	if _, err := io.ReadAll(w); err == nil {
		t.Error("a stream with a bad magic should fail")
	}
}
