// Package logging builds the process zerolog.Logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Config holds logger configuration options.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	Level string

	// Format is json, console or auto (console when writing to a terminal).
	Format string

	// Output is stderr, stdout, discard or a file path (appended to).
	Output string

	NoColor   bool
	AddCaller bool
}

// New returns a logger for cfg and a close function releasing the output
// file, if one was opened.
func New(cfg Config) (zerolog.Logger, func() error, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("logging: level %q: %w", cfg.Level, err)
		}
		level = l
	}

	out, closeFn, err := openOutput(cfg.Output)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	w := out
	switch format := strings.ToLower(cfg.Format); format {
	case "", "auto":
		if isTerminal(out) {
			w = consoleWriter(out, cfg.NoColor)
		}
	case "console", "pretty":
		w = consoleWriter(out, cfg.NoColor)
	case "json":
	default:
		_ = closeFn()
		return zerolog.Nop(), nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if cfg.AddCaller || level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger, closeFn, nil
}

func openOutput(name string) (io.Writer, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(name) {
	case "", "stderr":
		return os.Stderr, noop, nil
	case "stdout":
		return os.Stdout, noop, nil
	case "discard", "none":
		return io.Discard, noop, nil
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open %s: %w", name, err)
	}
	return f, f.Close, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func consoleWriter(out io.Writer, noColor bool) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.Kitchen,
		NoColor:    noColor || os.Getenv("NO_COLOR") != "",
	}
}
