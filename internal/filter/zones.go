package filter

import (
	"strings"

	"github.com/woozymasta/parcelstrip/internal/config"
)

// DefaultZone is used when the configuration names no default label.
const DefaultZone = "Other"

// Zones maps the first character of a land-use code to a category label.
type Zones struct {
	labels   map[byte]string
	fallback string
}

// NewZones builds the zone map. Keys longer than one character are ignored.
func NewZones(cfg config.Zones) *Zones {
	z := &Zones{
		labels:   make(map[byte]string, len(cfg.Labels)),
		fallback: cfg.Default,
	}
	if z.fallback == "" {
		z.fallback = DefaultZone
	}

	for k, v := range cfg.Labels {
		if len(k) == 1 {
			z.labels[k[0]] = v
		}
	}

	return z
}

// Category returns the label for code, or the default label when code is
// empty or its first character is unmapped.
func (z *Zones) Category(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return z.fallback
	}

	if label, ok := z.labels[code[0]]; ok {
		return label
	}

	return z.fallback
}
