package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/parcelstrip/internal/config"
	"github.com/woozymasta/parcelstrip/internal/logger"
	"github.com/woozymasta/parcelstrip/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"  env:"CONFIG_FILE"  description:"Path to configuration file"`
	Output     string        `short:"o" long:"output"  env:"OUTPUT_FILE"  description:"Output GeoJSON"`
	Timeout    time.Duration `short:"t" long:"timeout" env:"HTTP_TIMEOUT" description:"HTTP request timeout"`
	Force      bool          `short:"f" long:"force"   description:"Force overwrite of existing files"`
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

	tracts := cfg.Tracts
	if opts.Output != "" {
		tracts.Output = opts.Output
	}
	if opts.Timeout > 0 {
		tracts.Timeout = opts.Timeout
	}
	if tracts.Timeout <= 0 {
		tracts.Timeout = 60 * time.Second
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSNextProto:        make(map[string]func(string, *tls.Conn) http.RoundTripper),
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
		},
		Timeout: tracts.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("output", tracts.Output).
		Dur("timeout", tracts.Timeout).
		Bool("force", opts.Force).
		Msg("Starting tracts build")

	if err := processor.ProcessTracts(ctx, client, tracts, opts.Force); err != nil {
		log.Error().Err(err).Msg("Failed to build tracts layer")
		stop()
		os.Exit(1)
	}

	log.Info().Msg("Tracts build finished successfully")
}
