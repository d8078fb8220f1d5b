package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/filter"
	"github.com/woozymasta/parcelstrip/internal/logger"
	"github.com/woozymasta/parcelstrip/internal/pipeline"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile    string `short:"c" long:"config"         env:"CONFIG_FILE"    description:"Path to configuration file"`
	Input         string `short:"i" long:"input"          env:"INPUT_FILE"     description:"Input GeoJSON (.gz, .zst, .sz, .lz4 are decompressed)"`
	Output        string `short:"o" long:"output"         env:"OUTPUT_FILE"    description:"Output GeoJSON"`
	Compression   string `short:"z" long:"compression"    env:"COMPRESSION"    description:"Output compression" choice:"auto" choice:"none" choice:"gzip" choice:"zstd" choice:"s2" choice:"lz4"`
	OnMalformed   string `short:"m" long:"on-malformed"   env:"ON_MALFORMED"   description:"Malformed feature policy" choice:"fail" choice:"skip"`
	Precision     int    `short:"p" long:"precision"      env:"PRECISION"      description:"Coordinate decimal places (-1 keeps the configured value)" default:"-1"`
	ChunkSize     int    `short:"b" long:"chunk-size"     env:"CHUNK_SIZE"     description:"Read chunk size in bytes"`
	ProgressEvery int    `short:"P" long:"progress-every" env:"PROGRESS_EVERY" description:"Log progress every N features (0 disables)" default:"-1"`
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

	strip := cfg.Strip
	if opts.Input != "" {
		strip.Input = opts.Input
	}
	if opts.Output != "" {
		strip.Output = opts.Output
	}
	if opts.Compression != "" {
		strip.Compression = opts.Compression
	}
	if opts.OnMalformed != "" {
		strip.OnMalformed = opts.OnMalformed
	}
	if opts.Precision >= 0 {
		strip.Precision = opts.Precision
	}
	if opts.ChunkSize > 0 {
		strip.ChunkSize = opts.ChunkSize
	}
	if opts.ProgressEvery >= 0 {
		strip.ProgressEvery = opts.ProgressEvery
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ev := log.Info().
		Str("input", strip.Input).
		Str("output", strip.Output).
		Int("precision", strip.Precision).
		Str("on_malformed", strip.OnMalformed)
	if info, err := os.Stat(strip.Input); err == nil {
		ev = ev.Str("input_size", humanize.Bytes(uint64(info.Size())))
	}
	ev.Msg("Starting strip")

	stats, err := pipeline.StripFile(ctx, strip)
	if err != nil {
		fail := log.Error().Err(err)
		if stats != nil {
			fail = fail.Int("processed", stats.Total).Int("kept", stats.Kept)
		}
		if errors.Is(err, context.Canceled) {
			fail.Msg("Strip interrupted, output discarded")
		} else {
			fail.Msg("Strip failed")
		}
		stop()
		os.Exit(1)
	}

	summary(strip, stats)
}

// summary logs the outcome of a successful run.
func summary(strip config.Strip, stats *pipeline.Stats) {
	excluded := zerolog.Dict()
	for reason := filter.ExcludedEmpty; reason <= filter.ExcludedResidential; reason++ {
		excluded.Int(reason.String(), stats.Reasons[reason])
	}

	ev := log.Info().
		Int("total", stats.Total).
		Int("kept", stats.Kept).
		Int("excluded", stats.Excluded).
		Dict("excluded_by", excluded).
		Int("malformed", stats.Malformed).
		Dur("elapsed", stats.Elapsed).
		Str("peak_window", humanize.IBytes(uint64(stats.Peak))).
		Str("digest", fmt.Sprintf("%016x", stats.Digest))

	if in, err := os.Stat(strip.Input); err == nil {
		ev = ev.Str("input_size", humanize.Bytes(uint64(in.Size())))
		if out, err := os.Stat(strip.Output); err == nil {
			ev = ev.Str("output_size", humanize.Bytes(uint64(out.Size()))).
				Str("reduction", humanize.FtoaWithDigits(100*(1-float64(out.Size())/float64(max(in.Size(), 1))), 1)+"%")
		}
	}

	ev.Msgf("Kept %s of %s features", humanize.Comma(int64(stats.Kept)), humanize.Comma(int64(stats.Total)))
}
