package main

import (
	"os"

	"github.com/woozymasta/parcelstrip/internal/assets"
	"github.com/woozymasta/parcelstrip/internal/logger"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Source string `short:"s" long:"src" env:"ASSETS_SRC" description:"Directory with the web map sources" default:"web"`
	Dest   string `short:"d" long:"dst" env:"PUBLIC_DIR" description:"Directory served to clients"         default:"public"`
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

	results, err := assets.New().Dir(opts.Source, opts.Dest)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to minify assets")
	}

	var before, after int64
	for _, r := range results {
		before += r.Before
		after += r.After
	}

	log.Info().
		Int("files", len(results)).
		Str("before", humanize.Bytes(uint64(before))).
		Str("after", humanize.Bytes(uint64(after))).
		Str("dst", opts.Dest).
		Msg("Minify done")
}
