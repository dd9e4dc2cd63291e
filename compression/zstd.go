// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdCodec implements the ZIM "zstd" compression (code 5). The
// decoder is fed through a frame walker that parses the zstd framing
// (magic, frame header, block headers) and serves exactly one frame's
// bytes before reporting EOF. Without it the streaming decoder would
// probe the source for a concatenated frame and misread the archive
// bytes that follow the cluster; with it, InputOffset is the exact
// encoded frame size.
type zstdCodec struct{}

func (zstdCodec) Type() Type   { return Zstd }
func (zstdCodec) Name() string { return "zstd" }

func (zstdCodec) NewCompressor(opts Options) (Compressor, error) {
	level := zstd.SpeedDefault
	if opts.Level != 0 {
		level = zstd.EncoderLevelFromZstd(opts.Level)
	}
	c := &bufferedCompressor{}
	w, err := zstd.NewWriter(&c.buf,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	c.w = w
	return c, nil
}

func (zstdCodec) NewDecompressor(src io.Reader) (Decompressor, error) {
	frame := newZstdFrameReader(src)
	r, err := zstd.NewReader(frame, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return &zstdDecompressor{r: r, frame: frame}, nil
}

type zstdDecompressor struct {
	r     *zstd.Decoder
	frame *zstdFrameReader
}

func (d *zstdDecompressor) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

func (d *zstdDecompressor) InputOffset() int64 {
	return d.frame.consumed
}

// Release frees the decoder's window buffers.
func (d *zstdDecompressor) Release() {
	d.r.Close()
}
