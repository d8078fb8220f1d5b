package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/geo"
	"github.com/woozymasta/parcelstrip/internal/scan"
	"github.com/woozymasta/parcelstrip/internal/simplify"
	"github.com/woozymasta/parcelstrip/internal/stream"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// SimplifyStats holds the counters of a simplify run.
type SimplifyStats struct {
	Features  int
	PointsIn  int
	PointsOut int
	Peak      int // largest scanner window in bytes
	Elapsed   time.Duration
	Digest    uint64 // xxHash64 of the written document
}

// Simplifier streams a FeatureCollection through geometry simplification.
// Properties are written back unchanged.
type Simplifier struct {
	geometry      *simplify.Simplifier
	chunkSize     int
	progressEvery int
}

// NewSimplifier validates the simplify settings and builds a Simplifier.
func NewSimplifier(cfg config.Simplify) (*Simplifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	geometry, err := simplify.New(cfg.Retention, cfg.Precision)
	if err != nil {
		return nil, err
	}

	return &Simplifier{
		geometry:      geometry,
		chunkSize:     cfg.ChunkSize,
		progressEvery: cfg.ProgressEvery,
	}, nil
}

// Process reads a FeatureCollection from r and writes every feature with a
// simplified geometry to w. A malformed feature stops the run. Early stops
// leave w the way Pipeline.Process does.
func (s *Simplifier) Process(ctx context.Context, r io.Reader, w io.Writer) (*SimplifyStats, error) {
	started := time.Now()
	stats := &SimplifyStats{}

	digest := xxhash.New()
	out := stream.NewWriter(io.MultiWriter(w, digest))
	sc := scan.NewScanner(r, s.chunkSize)

	if err := out.Open(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	for {
		span, err := sc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var scanErr *scan.Error
			if !errors.As(err, &scanErr) {
				err = fmt.Errorf("%w at byte %d: %w", ErrInputUnreadable, sc.Offset(), err)
			}
			return stats, abort(out, fmt.Errorf("feature %d: %w", stats.Features, err))
		}

		if err := s.handle(span, out, stats); err != nil {
			return stats, abort(out, err)
		}

		if s.progressEvery > 0 && stats.Features%s.progressEvery == 0 {
			log.Info().
				Int("processed", stats.Features).
				Int("points_in", stats.PointsIn).
				Int("points_out", stats.PointsOut).
				Dur("elapsed", time.Since(started)).
				Msgf("Simplified %s features", humanize.Comma(int64(stats.Features)))
		}

		if err := ctx.Err(); err != nil {
			return stats, abort(out, fmt.Errorf("stopped after feature %d: %w", stats.Features-1, err))
		}
	}

	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	stats.Peak = sc.Peak()
	stats.Elapsed = time.Since(started)
	stats.Digest = digest.Sum64()

	return stats, nil
}

func (s *Simplifier) handle(span scan.Span, out *stream.Writer, stats *SimplifyStats) error {
	index := stats.Features

	f, err := geo.DecodeFeature(span.Data, span.Offset)
	if err != nil {
		return fmt.Errorf("feature %d: %w", index, err)
	}

	g, pts, err := s.geometry.Geometry(f.Geometry)
	if err != nil {
		return fmt.Errorf("feature %d: %w", index, &geo.MalformedError{Err: err, Offset: span.Offset})
	}
	f.Geometry = g

	if err := out.Write(f); err != nil {
		return fmt.Errorf("%w: feature %d at byte %d: %w", ErrOutputWrite, index, span.Offset, err)
	}
	stats.Features++
	stats.PointsIn += pts.In
	stats.PointsOut += pts.Out

	return nil
}

// SimplifyFile runs the simplifier from cfg.Input to cfg.Output with the same
// compression and temporary file handling as StripFile.
func SimplifyFile(ctx context.Context, cfg config.Simplify) (*SimplifyStats, error) {
	s, err := NewSimplifier(cfg)
	if err != nil {
		return nil, err
	}

	return processFile(ctx, cfg.Input, cfg.Output, cfg.Compression, s.Process)
}
