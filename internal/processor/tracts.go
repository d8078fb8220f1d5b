// Package processor builds the census tract income layer.
package processor

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/geo"
	"github.com/woozymasta/parcelstrip/internal/stream"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// ProcessTracts fetches the tract geometries and the income table, joins
// them and writes the layer to cfg.Output.
func ProcessTracts(ctx context.Context, client *http.Client, cfg config.Tracts, force bool) error {
	// Check if file exists
	if _, err := os.Stat(cfg.Output); err == nil {
		if !force {
			log.Info().Str("path", cfg.Output).Msg("Tracts file exists, skipping")
			return nil
		}
	}

	log.Info().Str("source", cfg.GeometryURL).Msg("Fetching tract geometries")
	tracts, err := FetchTracts(ctx, client, cfg.GeometryURL, cfg.UserAgent)
	if err != nil {
		return err
	}
	if len(tracts) == 0 {
		return errors.New("no tract geometries returned")
	}
	log.Info().Int("count", len(tracts)).Msg("Tract geometries received")

	log.Info().Str("source", cfg.IncomeURL).Msg("Fetching median household income")
	incomes, err := FetchIncome(ctx, client, cfg)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(incomes)).Msg("Income records received")

	fc, stats, err := Join(tracts, incomes, cfg)
	if err != nil {
		return err
	}

	if err := saveGeoJSON(cfg.Output, fc); err != nil {
		return err
	}

	ev := log.Info().
		Str("path", cfg.Output).
		Int("tracts", stats.Tracts).
		Int("with_income", stats.Matched).
		Int("nodata", stats.NoData)
	if info, err := os.Stat(cfg.Output); err == nil {
		ev = ev.Str("size", humanize.Bytes(uint64(info.Size())))
	}
	ev.Msg("Tracts layer written")

	return nil
}

// saveGeoJSON writes the feature collection to disk, creating the directory.
func saveGeoJSON(path string, fc *geo.FeatureCollection) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	// We care about write errors on close
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Error().Err(closeErr).Str("path", path).Msg("Failed to close file")
		}
	}()

	w := stream.NewWriter(f)
	if err := w.Open(); err != nil {
		return err
	}
	for _, feature := range fc.Features {
		if err := w.Write(feature); err != nil {
			return err
		}
	}

	return w.Close()
}
