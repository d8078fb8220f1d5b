// Package config handles configuration loading and shared data structures.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/woozymasta/parcelstrip/internal/codec"

	"gopkg.in/yaml.v3"
)

// Malformed feature policies.
const (
	MalformedFail = "fail"
	MalformedSkip = "skip"
)

// Config represents the root configuration file structure.
type Config struct {
	Strip    Strip    `yaml:"strip"`
	Simplify Simplify `yaml:"simplify"`
	Tracts   Tracts   `yaml:"tracts"`
	Server   Server   `yaml:"server"`
}

// Strip configures the parcel stripping pipeline.
type Strip struct {
	Input       string `yaml:"input"`
	Output      string `yaml:"output"`
	Compression string `yaml:"compression,omitempty"` // output: auto, none, gzip, zstd, s2, lz4
	OnMalformed string `yaml:"on_malformed,omitempty"`

	// field holding the land-use code, and the derived category field
	CodeField     string `yaml:"code_field"`
	CategoryField string `yaml:"category_field"`

	KeepFields []string   `yaml:"keep_fields"`
	Exclude    Exclusions `yaml:"exclude"`
	Zones      Zones      `yaml:"zones"`

	ChunkSize     int `yaml:"chunk_size,omitempty"`
	Precision     int `yaml:"precision"`
	ProgressEvery int `yaml:"progress_every"`
}

// Exclusions lists the land-use codes dropped from the output.
type Exclusions struct {
	Categories   []string `yaml:"categories"`    // first character
	Prefixes     []string `yaml:"prefixes"`      // first three characters
	Residential  string   `yaml:"residential"`   // first character of residential codes
	SingleFamily string   `yaml:"single_family"` // the only residential prefix kept
}

// Zones maps the first character of a land-use code to a label.
type Zones struct {
	Labels  map[string]string `yaml:"labels"`
	Default string            `yaml:"default"`
}

// Simplify configures the web layer built from the stripped parcels.
type Simplify struct {
	Input       string  `yaml:"input"`
	Output      string  `yaml:"output"`
	Compression string  `yaml:"compression,omitempty"`
	Retention   float64 `yaml:"retention"` // share of vertices kept per ring or line

	ChunkSize     int `yaml:"chunk_size,omitempty"`
	Precision     int `yaml:"precision"`
	ProgressEvery int `yaml:"progress_every"`
}

// Tracts configures the census tract income layer.
type Tracts struct {
	GeometryURL string        `yaml:"geometry_url"`
	IncomeURL   string        `yaml:"income_url"`
	IncomeField string        `yaml:"income_field"`
	Output      string        `yaml:"output"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
	Thresholds  Thresholds    `yaml:"thresholds"`
	Sentinel    string        `yaml:"sentinel"`
	Precision   int           `yaml:"precision"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
}

// Thresholds are the lower bounds of the medium and high income brackets.
type Thresholds struct {
	Medium int `yaml:"medium"`
	High   int `yaml:"high"`
}

// Server configures the static layer server.
type Server struct {
	PublicDir string  `yaml:"public_dir"`
	Layers    []Layer `yaml:"layers"`
}

// Layer is one GeoJSON file published by the server.
type Layer struct {
	Name string `yaml:"name"`
	File string `yaml:"file"` // relative to the public directory
}

// Load reads and parses the YAML configuration file from the specified path
// on top of the defaults. An empty path returns the defaults.
// Lists and the zone label map given in the file replace the defaults as a
// whole.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// yaml.v3 decodes into the existing default map, so read the labels alone
	var zones struct {
		Strip struct {
			Zones struct {
				Labels map[string]string `yaml:"labels"`
			} `yaml:"zones"`
		} `yaml:"strip"`
	}
	if err := yaml.Unmarshal(data, &zones); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if labels := zones.Strip.Zones.Labels; labels != nil {
		cfg.Strip.Zones.Labels = labels
	}

	return cfg, nil
}

// Validate checks the strip settings.
func (s *Strip) Validate() error {
	var errs []error

	if s.Precision < 0 || s.Precision > 15 {
		errs = append(errs, fmt.Errorf("precision %d out of range 0..15", s.Precision))
	}
	if s.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("progress_every %d is negative", s.ProgressEvery))
	}
	if s.CodeField == "" {
		errs = append(errs, errors.New("code_field is empty"))
	}
	if s.CategoryField == "" {
		errs = append(errs, errors.New("category_field is empty"))
	}
	for _, k := range s.KeepFields {
		if k == s.CategoryField {
			errs = append(errs, fmt.Errorf("keep_fields contains the category field %q", k))
		}
	}

	if _, err := codec.ParseKind(s.Compression); err != nil {
		errs = append(errs, err)
	}

	switch s.OnMalformed {
	case MalformedFail, MalformedSkip:
	default:
		errs = append(errs, fmt.Errorf("on_malformed %q: want %q or %q", s.OnMalformed, MalformedFail, MalformedSkip))
	}

	for _, c := range s.Exclude.Categories {
		if len(c) != 1 {
			errs = append(errs, fmt.Errorf("exclude category %q must be one character", c))
		}
	}
	for _, p := range s.Exclude.Prefixes {
		if len(p) != 3 {
			errs = append(errs, fmt.Errorf("exclude prefix %q must be three characters", p))
		}
	}
	if s.Exclude.Residential != "" && len(s.Exclude.Residential) != 1 {
		errs = append(errs, fmt.Errorf("residential marker %q must be one character", s.Exclude.Residential))
	}
	if s.Exclude.SingleFamily != "" && len(s.Exclude.SingleFamily) != 3 {
		errs = append(errs, fmt.Errorf("single family marker %q must be three characters", s.Exclude.SingleFamily))
	}
	for k := range s.Zones.Labels {
		if len(k) != 1 {
			errs = append(errs, fmt.Errorf("zone key %q must be one character", k))
		}
	}

	return errors.Join(errs...)
}

// Validate checks the simplify settings.
func (s *Simplify) Validate() error {
	var errs []error

	if !(s.Retention > 0 && s.Retention <= 1) {
		errs = append(errs, fmt.Errorf("retention %v out of range (0, 1]", s.Retention))
	}
	if s.Precision < 0 || s.Precision > 15 {
		errs = append(errs, fmt.Errorf("precision %d out of range 0..15", s.Precision))
	}
	if s.ProgressEvery < 0 {
		errs = append(errs, fmt.Errorf("progress_every %d is negative", s.ProgressEvery))
	}
	if _, err := codec.ParseKind(s.Compression); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Marshal encodes the configuration as "yaml" or "json".
// The JSON form uses the same keys as the YAML file.
func (c *Config) Marshal(format string) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, err
	}

	switch format {
	case "yaml", "":
		return data, nil
	case "json":
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
		return json.MarshalIndent(tree, "", "  ")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}
