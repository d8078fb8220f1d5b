// Package stream writes a GeoJSON FeatureCollection one feature at a time.
package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/woozymasta/parcelstrip/internal/geo"
)

const (
	header    = "{\"type\":\"FeatureCollection\",\"features\":[\n"
	separator = ",\n"
	footer    = "\n]}\n"

	bufferSize = 64 << 10
)

// ErrState is returned when Open, Write and Close are called out of order.
var ErrState = errors.New("feature writer used out of order")

// Writer emits the collection header once, each feature with a separator
// before all but the first, and the footer once.
type Writer struct {
	w       *bufio.Writer
	scratch bytes.Buffer
	enc     *json.Encoder
	count   int
	opened  bool
	closed  bool
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	fw := &Writer{w: bufio.NewWriterSize(w, bufferSize)}
	fw.enc = json.NewEncoder(&fw.scratch)
	fw.enc.SetEscapeHTML(false)
	return fw
}

// Open writes the collection header.
func (fw *Writer) Open() error {
	if fw.opened {
		return ErrState
	}
	fw.opened = true

	_, err := fw.w.WriteString(header)
	return err
}

// Write serializes f and appends it to the collection. A feature that fails
// to serialize leaves the output untouched.
func (fw *Writer) Write(f *geo.Feature) error {
	if !fw.opened || fw.closed {
		return ErrState
	}

	fw.scratch.Reset()
	if err := fw.enc.Encode(f); err != nil {
		return err
	}
	data := bytes.TrimSuffix(fw.scratch.Bytes(), []byte{'\n'})

	if fw.count > 0 {
		if _, err := fw.w.WriteString(separator); err != nil {
			return err
		}
	}
	if _, err := fw.w.Write(data); err != nil {
		return err
	}
	fw.count++

	return nil
}

// Close writes the footer and flushes. It does not close the underlying writer.
func (fw *Writer) Close() error {
	if !fw.opened || fw.closed {
		return ErrState
	}
	fw.closed = true

	if _, err := fw.w.WriteString(footer); err != nil {
		return err
	}

	return fw.w.Flush()
}

// Flush pushes every complete feature written so far to the underlying
// writer. The collection stays open.
func (fw *Writer) Flush() error {
	if !fw.opened {
		return ErrState
	}
	return fw.w.Flush()
}

// Count returns the number of features written.
func (fw *Writer) Count() int {
	return fw.count
}
