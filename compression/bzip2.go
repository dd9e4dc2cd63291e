// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
)

// bzip2Codec implements the ZIM "bzip2" compression (code 3). The
// dsnet implementation is used for both directions: the standard
// library only decompresses, and dsnet's reader reports the exact
// bitstream offset consumed, which InputOffset needs.
type bzip2Codec struct{}

func (bzip2Codec) Type() Type   { return Bzip2 }
func (bzip2Codec) Name() string { return "bzip2" }

func (bzip2Codec) NewCompressor(opts Options) (Compressor, error) {
	level := opts.Level
	if level == 0 {
		level = bzip2.DefaultCompression
	}
	c := &bufferedCompressor{}
	w, err := bzip2.NewWriter(&c.buf, &bzip2.WriterConfig{Level: level})
	if err != nil {
		return nil, fmt.Errorf("bzip2 writer: %w", err)
	}
	c.w = w
	return c, nil
}

func (bzip2Codec) NewDecompressor(src io.Reader) (Decompressor, error) {
	r, err := bzip2.NewReader(src, nil)
	if err != nil {
		return nil, fmt.Errorf("bzip2 reader: %w", err)
	}
	return &bzip2Decompressor{r: r}, nil
}

type bzip2Decompressor struct {
	r *bzip2.Reader
}

func (d *bzip2Decompressor) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

func (d *bzip2Decompressor) InputOffset() int64 {
	return d.r.InputOffset
}
