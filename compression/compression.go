// Copyright 2026 The Zimstore Authors
// SPDX-License-Identifier: Apache-2.0

package compression

import (
	"errors"
	"fmt"
	"io"
)

// Type identifies a cluster compression algorithm. The values are
// protocol constants stored in the low nibble of the cluster header
// byte — changing them breaks archive compatibility.
type Type uint8

const (
	// None indicates an uncompressed cluster body.
	None Type = 1

	// Zlib indicates a zlib (DEFLATE) compressed cluster body.
	// Rarely produced by modern writers but required for reading
	// older archives.
	Zlib Type = 2

	// Bzip2 indicates a bzip2 compressed cluster body. Legacy;
	// required for reading only.
	Bzip2 Type = 3

	// LZMA indicates an xz container holding an LZMA2 stream. The
	// traditional default for ZIM archives.
	LZMA Type = 4

	// Zstd indicates a zstandard frame. The current default for new
	// archives: near-LZMA ratios at a fraction of the decode cost.
	Zstd Type = 5

	// LZ4 is an extension code, not part of the ZIM specification.
	// It is not in the default registry; embedders that control both
	// ends of an archive can register it for fast sidecar files.
	LZ4 Type = 6
)

// String returns the canonical name of a compression type.
func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Zlib:
		return "zlib"
	case Bzip2:
		return "bzip2"
	case LZMA:
		return "lzma"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseType parses a compression type from its canonical name.
func ParseType(name string) (Type, error) {
	switch name {
	case "none":
		return None, nil
	case "zlib":
		return Zlib, nil
	case "bzip2":
		return Bzip2, nil
	case "lzma", "xz":
		return LZMA, nil
	case "zstd":
		return Zstd, nil
	case "lz4":
		return LZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression type: %q", name)
	}
}

var (
	// ErrUnsupportedType is returned when a compression code has no
	// registered codec. Fatal for the cluster carrying the code.
	ErrUnsupportedType = errors.New("unsupported compression type")

	// ErrTruncated is returned when the underlying source ends
	// before the decompressor has seen the end of its stream.
	ErrTruncated = errors.New("compressed stream is truncated")

	// ErrBackwardSeek is returned by Reader.SkipTo for an offset
	// behind the current position. Decompression is forward-only.
	ErrBackwardSeek = errors.New("cannot seek backwards in a compressed stream")

	// ErrNotFinished is returned by Reader.CompressedSize before the
	// stream has been read to its end.
	ErrNotFinished = errors.New("compressed stream has not been fully read")
)

// Options configures a compressor. The zero value selects each
// codec's default level.
type Options struct {
	// Level is the codec-specific compression level; 0 means the
	// codec default. Codecs without a level concept ignore it.
	Level int
}

// A Compressor turns an incremental sequence of plaintext writes into
// one compressed stream. Compress may return output early or buffer
// internally; Flush terminates the stream and returns everything not
// yet emitted. After Flush the compressor is spent.
type Compressor interface {
	Compress(p []byte) ([]byte, error)
	Flush() ([]byte, error)
}

// A Decompressor reads one compressed stream from its source and
// yields decompressed bytes. It reports io.EOF exactly at the end of
// the stream and never consumes source bytes beyond it.
//
// InputOffset returns the number of compressed bytes consumed from
// the source so far; once Read has returned io.EOF this is the exact
// encoded size of the stream.
type Decompressor interface {
	io.Reader
	InputOffset() int64
}

// A Codec binds a compression type to its compressor and
// decompressor constructors.
type Codec interface {
	Type() Type
	Name() string
	NewCompressor(opts Options) (Compressor, error)
	NewDecompressor(src io.Reader) (Decompressor, error)
}

// releaser is implemented by decompressors that hold resources worth
// returning eagerly (the zstd decoder keeps window buffers). Callers
// discarding a decompressor should call Release when present.
type releaser interface {
	Release()
}

// Release returns any resources held by a decompressor. Safe to call
// on decompressors that hold none.
func Release(d Decompressor) {
	if r, ok := d.(releaser); ok {
		r.Release()
	}
}
