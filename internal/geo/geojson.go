// Package geo handles GeoJSON data structures and coordinate rounding.
package geo

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FeatureCollection represents a collection of geographic features.
// It follows the standard GeoJSON structure.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// NewFeatureCollection returns an empty collection that encodes its
// features as [] rather than null.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{Type: "FeatureCollection", Features: []*Feature{}}
}

// Feature represents a single geographic feature with geometry and properties.
// Property values are kept as raw JSON so they are written back unchanged.
type Feature struct {
	Type       string                     `json:"type"`
	Geometry   *Geometry                  `json:"geometry,omitempty"`
	Properties map[string]json.RawMessage `json:"properties"`
}

// Geometry represents the geometry of a feature (Point, Polygon, etc.).
// Coordinates hold nested []any slices with json.Number leaves.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates any         `json:"coordinates,omitempty"`
	Geometries  []*Geometry `json:"geometries,omitempty"`
}

// Text returns a property as trimmed text. Numbers give their literal form;
// absent, null and non-scalar values give "".
func (f *Feature) Text(key string) string {
	raw, ok := f.Properties[key]
	if !ok || len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw)
	}

	return ""
}

// SetProperty stores v encoded as JSON under key, without HTML escaping.
func (f *Feature) SetProperty(key string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}

	if f.Properties == nil {
		f.Properties = make(map[string]json.RawMessage)
	}
	f.Properties[key] = bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	return nil
}
