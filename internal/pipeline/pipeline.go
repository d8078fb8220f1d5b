// Package pipeline runs the sequential strip pipeline:
// read, scan, decode, filter, project and write, one feature at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/filter"
	"github.com/woozymasta/parcelstrip/internal/geo"
	"github.com/woozymasta/parcelstrip/internal/project"
	"github.com/woozymasta/parcelstrip/internal/scan"
	"github.com/woozymasta/parcelstrip/internal/stream"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// Stats holds the counters of a single run.
// Kept + Excluded + Malformed always equals Total.
type Stats struct {
	Reasons   map[filter.Decision]int
	Total     int
	Kept      int
	Excluded  int
	Malformed int
	Peak      int // largest scanner window in bytes
	Elapsed   time.Duration
	Digest    uint64 // xxHash64 of the written document
}

// Pipeline holds the immutable parts of a run. It can be reused.
type Pipeline struct {
	rules         *filter.Rules
	projector     *project.Projector
	codeField     string
	chunkSize     int
	progressEvery int
	skipMalformed bool
}

// New validates the strip settings and builds a Pipeline.
func New(cfg config.Strip) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rules, err := filter.NewRules(cfg.Exclude)
	if err != nil {
		return nil, err
	}

	projector, err := project.New(cfg, filter.NewZones(cfg.Zones))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		rules:         rules,
		projector:     projector,
		codeField:     cfg.CodeField,
		chunkSize:     cfg.ChunkSize,
		progressEvery: cfg.ProgressEvery,
		skipMalformed: cfg.OnMalformed == config.MalformedSkip,
	}, nil
}

// Process reads a FeatureCollection from r and writes the kept, projected
// features to w. The context is checked after every feature. When the run
// stops early, w holds the header and every feature kept so far, ending at a
// feature boundary, and no footer.
func (p *Pipeline) Process(ctx context.Context, r io.Reader, w io.Writer) (*Stats, error) {
	started := time.Now()
	stats := &Stats{Reasons: make(map[filter.Decision]int)}

	digest := xxhash.New()
	out := stream.NewWriter(io.MultiWriter(w, digest))
	sc := scan.NewScanner(r, p.chunkSize)

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
			return stats, abort(out, fmt.Errorf("feature %d: %w", stats.Total, err))
		}

		if err := p.handle(span, out, stats); err != nil {
			return stats, abort(out, err)
		}

		if p.progressEvery > 0 && stats.Total%p.progressEvery == 0 {
			log.Info().
				Int("processed", stats.Total).
				Int("kept", stats.Kept).
				Int("excluded", stats.Excluded).
				Str("window", humanize.IBytes(uint64(sc.Buffered()))).
				Dur("elapsed", time.Since(started)).
				Msgf("Processed %s features", humanize.Comma(int64(stats.Total)))
		}

		if err := ctx.Err(); err != nil {
			return stats, abort(out, fmt.Errorf("stopped after feature %d: %w", stats.Total-1, err))
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

// abort flushes the complete features still buffered so that an early stop
// leaves the output at a feature boundary.
func abort(out *stream.Writer, err error) error {
	if errors.Is(err, ErrOutputWrite) {
		return err
	}
	if ferr := out.Flush(); ferr != nil {
		return errors.Join(err, fmt.Errorf("%w: %w", ErrOutputWrite, ferr))
	}
	return err
}

// handle takes one span through decode, filter, project and write.
func (p *Pipeline) handle(span scan.Span, out *stream.Writer, stats *Stats) error {
	index := stats.Total
	stats.Total++

	f, err := geo.DecodeFeature(span.Data, span.Offset)
	if err != nil {
		return p.malformed(err, index, span.Offset, stats)
	}

	decision := p.rules.Decide(f.Text(p.codeField))
	if decision != filter.Kept {
		stats.Excluded++
		stats.Reasons[decision]++
		return nil
	}

	projected, err := p.projector.Project(f)
	if err != nil {
		return p.malformed(&geo.MalformedError{Err: err, Offset: span.Offset}, index, span.Offset, stats)
	}

	if err := out.Write(projected); err != nil {
		return fmt.Errorf("%w: feature %d at byte %d: %w", ErrOutputWrite, index, span.Offset, err)
	}
	stats.Kept++
	stats.Reasons[filter.Kept]++

	return nil
}

func (p *Pipeline) malformed(err error, index int, offset int64, stats *Stats) error {
	if !p.skipMalformed {
		return fmt.Errorf("feature %d: %w", index, err)
	}

	stats.Malformed++
	log.Warn().
		Err(err).
		Int("feature", index).
		Int64("offset", offset).
		Msg("Skipping malformed feature")

	return nil
}
