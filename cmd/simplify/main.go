package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/logger"
	"github.com/woozymasta/parcelstrip/internal/pipeline"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile    string  `short:"c" long:"config"         env:"CONFIG_FILE"    description:"Path to configuration file"`
	Input         string  `short:"i" long:"input"          env:"INPUT_FILE"     description:"Stripped GeoJSON (.gz, .zst, .sz, .lz4 are decompressed)"`
	Output        string  `short:"o" long:"output"         env:"OUTPUT_FILE"    description:"Web GeoJSON"`
	Compression   string  `short:"z" long:"compression"    env:"COMPRESSION"    description:"Output compression" choice:"auto" choice:"none" choice:"gzip" choice:"zstd" choice:"s2" choice:"lz4"`
	Retention     float64 `short:"r" long:"retention"      env:"RETENTION"      description:"Share of vertices kept per ring, 0 keeps the configured value"`
	Precision     int     `short:"p" long:"precision"      env:"PRECISION"      description:"Coordinate decimal places (-1 keeps the configured value)" default:"-1"`
	ChunkSize     int     `short:"b" long:"chunk-size"     env:"CHUNK_SIZE"     description:"Read chunk size in bytes"`
	ProgressEvery int     `short:"P" long:"progress-every" env:"PROGRESS_EVERY" description:"Log progress every N features (0 disables)" default:"-1"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	simplify := cfg.Simplify
	if opts.Input != "" {
		simplify.Input = opts.Input
	}
	if opts.Output != "" {
		simplify.Output = opts.Output
	}
	if opts.Compression != "" {
		simplify.Compression = opts.Compression
	}
	if opts.Retention != 0 {
		simplify.Retention = opts.Retention
	}
	if opts.Precision >= 0 {
		simplify.Precision = opts.Precision
	}
	if opts.ChunkSize > 0 {
		simplify.ChunkSize = opts.ChunkSize
	}
	if opts.ProgressEvery >= 0 {
		simplify.ProgressEvery = opts.ProgressEvery
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ev := log.Info().
		Str("input", simplify.Input).
		Str("output", simplify.Output).
		Float64("retention", simplify.Retention).
		Int("precision", simplify.Precision)
	if info, err := os.Stat(simplify.Input); err == nil {
		ev = ev.Str("input_size", humanize.Bytes(uint64(info.Size())))
	}
	ev.Msg("Starting simplify")

	stats, err := pipeline.SimplifyFile(ctx, simplify)
	if err != nil {
		fail := log.Error().Err(err)
		if stats != nil {
			fail = fail.Int("processed", stats.Features)
		}
		if errors.Is(err, pipeline.ErrInputNotFound) {
			fail.Msg("Simplify failed, run strip first")
		} else if errors.Is(err, context.Canceled) {
			fail.Msg("Simplify interrupted, output discarded")
		} else {
			fail.Msg("Simplify failed")
		}
		stop()
		os.Exit(1)
	}

	done := log.Info().
		Int("features", stats.Features).
		Int("points_in", stats.PointsIn).
		Int("points_out", stats.PointsOut).
		Dur("elapsed", stats.Elapsed).
		Str("peak_window", humanize.IBytes(uint64(stats.Peak))).
		Str("digest", fmt.Sprintf("%016x", stats.Digest))
	if out, err := os.Stat(simplify.Output); err == nil {
		done = done.Str("output_size", humanize.Bytes(uint64(out.Size())))
	}
	done.Msgf("Kept %s of %s vertices", humanize.Comma(int64(stats.PointsOut)), humanize.Comma(int64(stats.PointsIn)))
}
