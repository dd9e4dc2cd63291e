// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// zlibCodec implements the ZIM "zlib" compression (code 2). The
// decompressor is fed through a trackedReader: flate reads its input
// through io.ByteReader and therefore consumes exactly the stream's
// bytes, which makes InputOffset exact at end of stream (including
// the trailing adler32).
type zlibCodec struct{}

func (zlibCodec) Type() Type   { return Zlib }
func (zlibCodec) Name() string { return "zlib" }

func (zlibCodec) NewCompressor(opts Options) (Compressor, error) {
	level := opts.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	c := &bufferedCompressor{}
	w, err := zlib.NewWriterLevel(&c.buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	c.w = w
	return c, nil
}

func (zlibCodec) NewDecompressor(src io.Reader) (Decompressor, error) {
	tracked := newTrackedReader(src)
	r, err := zlib.NewReader(tracked)
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	return &zlibDecompressor{r: r, tracked: tracked}, nil
}

type zlibDecompressor struct {
	r       io.ReadCloser
	tracked *trackedReader
}

func (d *zlibDecompressor) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

func (d *zlibDecompressor) InputOffset() int64 {
	return d.tracked.Consumed()
}
