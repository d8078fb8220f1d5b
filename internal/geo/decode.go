package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedFeature means a feature does not have the expected shape.
var ErrMalformedFeature = errors.New("malformed feature")

// MalformedError locates a malformed feature in the source stream.
type MalformedError struct {
	Err    error
	Offset int64
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("%v at byte %d: %v", ErrMalformedFeature, e.Offset, e.Err)
}

func (e *MalformedError) Unwrap() []error {
	return []error{ErrMalformedFeature, e.Err}
}

// Internal structure for decoding; pointers distinguish absent from null.
type rawFeature struct {
	Type       string                      `json:"type"`
	Geometry   *Geometry                   `json:"geometry"`
	Properties *map[string]json.RawMessage `json:"properties"`
}

// DecodeFeature parses one complete feature object. Offset is only used to
// locate errors. A missing or null geometry is returned as nil.
func DecodeFeature(data []byte, offset int64) (*Feature, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw rawFeature
	if err := dec.Decode(&raw); err != nil {
		return nil, &MalformedError{Err: err, Offset: offset}
	}

	if raw.Properties == nil || *raw.Properties == nil {
		return nil, &MalformedError{Err: errors.New("no properties"), Offset: offset}
	}

	return &Feature{
		Type:       raw.Type,
		Geometry:   raw.Geometry,
		Properties: *raw.Properties,
	}, nil
}

// ReadFeatureCollection decodes a whole collection from r. It is meant for
// small documents; large ones go through the scan package.
func ReadFeatureCollection(r io.Reader) (*FeatureCollection, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	fc := NewFeatureCollection()
	if err := dec.Decode(fc); err != nil {
		return nil, err
	}

	return fc, nil
}
