// Package codec wraps input and output streams with the compression
// matching their file name.
package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Kind is a stream compression format.
type Kind string

// Supported kinds. Auto resolves from the file extension.
const (
	Auto Kind = "auto"
	None Kind = "none"
	Gzip Kind = "gzip"
	Zstd Kind = "zstd"
	S2   Kind = "s2"
	LZ4  Kind = "lz4"
)

var extensions = map[string]Kind{
	".gz":   Gzip,
	".gzip": Gzip,
	".zst":  Zstd,
	".zstd": Zstd,
	".s2":   S2,
	".sz":   S2,
	".lz4":  LZ4,
}

// ParseKind validates a configured compression name. Empty means Auto.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(name)); k {
	case "":
		return Auto, nil
	case Auto, None, Gzip, Zstd, S2, LZ4:
		return k, nil
	}

	return "", fmt.Errorf("unknown compression %q", name)
}

// Detect returns the kind implied by the extension of path.
func Detect(path string) Kind {
	if k, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return k
	}
	return None
}

// Resolve turns Auto into the kind implied by path.
func Resolve(k Kind, path string) Kind {
	if k == Auto || k == "" {
		return Detect(path)
	}
	return k
}

// NewReader returns a decompressing reader over r. Closing it does not close r.
func NewReader(r io.Reader, k Kind) (io.ReadCloser, error) {
	switch k {
	case None, Auto, "":
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr, nil
	case Zstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}

	return nil, fmt.Errorf("unknown compression %q", k)
}

// NewWriter returns a compressing writer over w. Closing it flushes the
// compressed stream but does not close w.
func NewWriter(w io.Writer, k Kind) (io.WriteCloser, error) {
	switch k {
	case None, Auto, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		return enc, nil
	case S2:
		return s2.NewWriter(w), nil
	case LZ4:
		return lz4.NewWriter(w), nil
	}

	return nil, fmt.Errorf("unknown compression %q", k)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
