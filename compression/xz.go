// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"io"

	"github.com/ulikunitz/xz"
)

// xzCodec implements the ZIM "lzma" compression (code 4): an xz
// container holding an LZMA2 stream. The reader runs in single-stream
// mode so it stops at the stream footer instead of probing the source
// for a concatenated stream — cluster bodies are always followed by
// more archive data.
type xzCodec struct{}

func (xzCodec) Type() Type   { return LZMA }
func (xzCodec) Name() string { return "lzma" }

func (xzCodec) NewCompressor(opts Options) (Compressor, error) {
	c := &bufferedCompressor{}
	w, err := xz.WriterConfig{}.NewWriter(&c.buf)
	if err != nil {
		return nil, fmt.Errorf("xz writer: %w", err)
	}
	c.w = w
	return c, nil
}

func (xzCodec) NewDecompressor(src io.Reader) (Decompressor, error) {
	tracked := newTrackedReader(src)
	r, err := xz.ReaderConfig{SingleStream: true}.NewReader(tracked)
	if err != nil {
		return nil, fmt.Errorf("xz reader: %w", err)
	}
	return &xzDecompressor{r: r, tracked: tracked}, nil
}

type xzDecompressor struct {
	r       *xz.Reader
	tracked *trackedReader
}

func (d *xzDecompressor) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

func (d *xzDecompressor) InputOffset() int64 {
	return d.tracked.Consumed()
}
