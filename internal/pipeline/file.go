package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/woozymasta/parcelstrip/internal/codec"
	"github.com/woozymasta/parcelstrip/internal/config"

	"github.com/rs/zerolog/log"
)

// StripFile runs the pipeline from cfg.Input to cfg.Output.
//
// Input compression follows the input extension; output compression follows
// cfg.Compression, where auto uses the output extension. The document is
// written to a temporary file next to the output and renamed on success, so a
// failed or canceled run leaves no output behind.
func StripFile(ctx context.Context, cfg config.Strip) (*Stats, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}

	return processFile(ctx, cfg.Input, cfg.Output, cfg.Compression, p.Process)
}

// processFile opens input and a temporary output, runs process between them
// and renames the output into place once process and every close succeed.
func processFile[S any](
	ctx context.Context,
	input, output, compression string,
	process func(context.Context, io.Reader, io.Writer) (S, error),
) (S, error) {
	var none S

	kind, err := codec.ParseKind(compression)
	if err != nil {
		return none, err
	}

	in, err := os.Open(input)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return none, fmt.Errorf("%w: %s", ErrInputNotFound, input)
		}
		return none, fmt.Errorf("%w: %w", ErrInputUnreadable, err)
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = in.Close() }()

	src, err := codec.NewReader(bufio.NewReader(in), codec.Detect(input))
	if err != nil {
		return none, fmt.Errorf("%w: %s: %w", ErrInputUnreadable, input, err)
	}
	defer func() { _ = src.Close() }()

	tmp := output + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return none, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		_ = out.Close()
		if err := os.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Error().Err(err).Str("path", tmp).Msg("Failed to remove temporary output")
		}
	}()

	dst, err := codec.NewWriter(out, codec.Resolve(kind, output))
	if err != nil {
		return none, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}

	stats, err := process(ctx, src, dst)
	if err != nil {
		return stats, err
	}

	// We care about write errors on close
	if err := dst.Close(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	if err := out.Close(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	if err := os.Rename(tmp, output); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrOutputWrite, err)
	}
	committed = true

	return stats, nil
}
