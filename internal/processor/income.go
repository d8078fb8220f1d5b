package processor

import (
	"fmt"
	"strings"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/geo"

	"github.com/rs/zerolog/log"
)

// Income brackets.
const (
	BracketNoData = "nodata"
	BracketLow    = "low"
	BracketMedium = "medium"
	BracketHigh   = "high"
)

// JoinStats counts the outcome of a join.
type JoinStats struct {
	Tracts  int // distinct tracts written
	Matched int // tracts with an income estimate
	NoData  int
	Skipped int // features without a GEOID
}

// Classify places a median income into a bracket.
func Classify(value *int, t config.Thresholds) string {
	switch {
	case value == nil || *value < 0:
		return BracketNoData
	case *value >= t.High:
		return BracketHigh
	case *value >= t.Medium:
		return BracketMedium
	default:
		return BracketLow
	}
}

// Join attaches the income records to the tract geometries.
// Tracts keep the order in which their GEOID first appears; a later duplicate
// replaces the earlier feature.
func Join(tracts []*geo.Feature, incomes map[string]Income, cfg config.Tracts) (*geo.FeatureCollection, JoinStats, error) {
	var stats JoinStats

	order := make([]string, 0, len(tracts))
	byID := make(map[string]*geo.Feature, len(tracts))
	for _, f := range tracts {
		geoid := f.Text("GEOID")
		if geoid == "" {
			stats.Skipped++
			continue
		}
		if _, seen := byID[geoid]; !seen {
			order = append(order, geoid)
		}
		byID[geoid] = f
	}

	fc := geo.NewFeatureCollection()
	for _, geoid := range order {
		src := byID[geoid]

		geom, err := geo.RoundGeometry(src.Geometry, cfg.Precision)
		if err != nil {
			return nil, stats, fmt.Errorf("tract %s: %w", geoid, err)
		}

		name := src.Text("NAME")
		inc, ok := incomes[geoid]
		if ok {
			name = inc.Name
		}
		name, _, _ = strings.Cut(name, ";")

		out := &geo.Feature{Type: "Feature", Geometry: geom}
		props := []struct {
			key   string
			value any
		}{
			{"GEOID", geoid},
			{"tract_name", strings.TrimSpace(name)},
			{"median_income", inc.Value},
			{"income_bracket", Classify(inc.Value, cfg.Thresholds)},
		}
		for _, p := range props {
			if err := out.SetProperty(p.key, p.value); err != nil {
				return nil, stats, fmt.Errorf("tract %s: %w", geoid, err)
			}
		}

		if inc.Value != nil {
			stats.Matched++
		} else {
			stats.NoData++
		}
		fc.Features = append(fc.Features, out)
	}
	stats.Tracts = len(fc.Features)

	if stats.Skipped > 0 {
		log.Warn().Int("count", stats.Skipped).Msg("Tract features without GEOID skipped")
	}

	return fc, stats, nil
}
