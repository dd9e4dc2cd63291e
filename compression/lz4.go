// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4Codec is an extension codec (code 6) outside the ZIM format
// definition, useful for sidecar files where decode speed matters
// more than interoperability. It is not in the default registry;
// register it explicitly:
//
//	registry.Register(compression.LZ4Codec{})
//
// The lz4 frame format carries an explicit end mark, so the reader
// stops at the frame boundary like the other codecs.
type LZ4Codec struct{}

// Type implements Codec.
func (LZ4Codec) Type() Type { return LZ4 }

// Name implements Codec.
func (LZ4Codec) Name() string { return "lz4" }

// NewCompressor implements Codec.
func (LZ4Codec) NewCompressor(opts Options) (Compressor, error) {
	c := &bufferedCompressor{}
	w := lz4.NewWriter(&c.buf)
	if opts.Level != 0 {
		if err := w.Apply(lz4.CompressionLevelOption(lz4.CompressionLevel(opts.Level))); err != nil {
			return nil, fmt.Errorf("lz4 writer: %w", err)
		}
	}
	c.w = w
	return c, nil
}

// NewDecompressor implements Codec.
func (LZ4Codec) NewDecompressor(src io.Reader) (Decompressor, error) {
	tracked := newTrackedReader(src)
	return &lz4Decompressor{r: lz4.NewReader(tracked), tracked: tracked}, nil
}

type lz4Decompressor struct {
	r       *lz4.Reader
	tracked *trackedReader
}

func (d *lz4Decompressor) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

func (d *lz4Decompressor) InputOffset() int64 {
	return d.tracked.Consumed()
}
