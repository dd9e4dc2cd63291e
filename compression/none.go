// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"io"
)

// noneCodec passes data through unchanged. The "stream" has no
// framing of its own: it ends where the source ends, and the encoded
// size equals the decoded size.
type noneCodec struct{}

func (noneCodec) Type() Type   { return None }
func (noneCodec) Name() string { return "none" }

func (noneCodec) NewCompressor(opts Options) (Compressor, error) {
	return &noneCompressor{}, nil
}

func (noneCodec) NewDecompressor(src io.Reader) (Decompressor, error) {
	return &noneDecompressor{src: src}, nil
}

type noneCompressor struct {
	closed bool
}

func (c *noneCompressor) Compress(p []byte) ([]byte, error) {
	if c.closed {
		return nil, io.ErrClosedPipe
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out, nil
}

func (c *noneCompressor) Flush() ([]byte, error) {
	if c.closed {
		return nil, io.ErrClosedPipe
	}
	c.closed = true
	return nil, nil
}

type noneDecompressor struct {
	src      io.Reader
	consumed int64
}

func (d *noneDecompressor) Read(p []byte) (int, error) {
	n, err := d.src.Read(p)
	d.consumed += int64(n)
	return n, err
}

func (d *noneDecompressor) InputOffset() int64 { return d.consumed }
