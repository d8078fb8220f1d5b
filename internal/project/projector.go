// Package project reduces kept features to the published fields.
package project

import (
	"encoding/json"
	"fmt"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/filter"
	"github.com/woozymasta/parcelstrip/internal/geo"
)

// Projector keeps whitelisted properties, adds the zone category and rounds
// coordinates.
type Projector struct {
	zones         *filter.Zones
	keep          []string
	codeField     string
	categoryField string
	precision     int
}

// New returns a Projector for the strip settings.
func New(cfg config.Strip, zones *filter.Zones) (*Projector, error) {
	for _, k := range cfg.KeepFields {
		if k == cfg.CategoryField {
			return nil, fmt.Errorf("category field %q is also a kept field", k)
		}
	}
	if cfg.Precision < 0 {
		return nil, fmt.Errorf("negative precision %d", cfg.Precision)
	}

	return &Projector{
		zones:         zones,
		keep:          cfg.KeepFields,
		codeField:     cfg.CodeField,
		categoryField: cfg.CategoryField,
		precision:     cfg.Precision,
	}, nil
}

// Project returns a new feature; f is not modified.
func (p *Projector) Project(f *geo.Feature) (*geo.Feature, error) {
	props := make(map[string]json.RawMessage, len(p.keep)+1)
	for _, k := range p.keep {
		if v, ok := f.Properties[k]; ok {
			props[k] = v
		}
	}

	geometry, err := geo.RoundGeometry(f.Geometry, p.precision)
	if err != nil {
		return nil, err
	}

	out := &geo.Feature{
		Type:       "Feature",
		Geometry:   geometry,
		Properties: props,
	}
	if err := out.SetProperty(p.categoryField, p.zones.Category(f.Text(p.codeField))); err != nil {
		return nil, err
	}

	return out, nil
}
