package main

import (
	"fmt"
	"os"

	"github.com/woozymasta/parcelstrip/internal/config"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Configuration file to merge over the defaults"`
	Output     string `short:"o" long:"out"    description:"Output file path. Writes to stdout if empty"`
	Format     string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"yaml"`
	Validate   bool   `short:"V" long:"validate" description:"Exit with an error if the strip or simplify settings are invalid"`
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

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if opts.Validate {
		if err := cfg.Strip.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid strip settings:\n%v\n", err)
			os.Exit(1)
		}
		if err := cfg.Simplify.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid simplify settings:\n%v\n", err)
			os.Exit(1)
		}
	}

	outputData, err := cfg.Marshal(opts.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling configuration: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Configuration written to %s (format: %s)\n", opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}
