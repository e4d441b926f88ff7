// Package ingest loads a directory of delimited files into merge sources.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tablemerge/internal/datasource"
	"tablemerge/internal/datasource/file"
	"tablemerge/internal/parser"
	pcsv "tablemerge/internal/parser/csv"
	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
	"tablemerge/internal/transformer/builtin"
)

// ErrNoInputs is returned when the directory has no file matching the pattern.
var ErrNoInputs = errors.New("ingest: no input files")

const stage = "load"

// Options controls LoadDir.
type Options struct {
	// Key is the key column every source must carry.
	Key string
	// Pattern filters file names (filepath.Match). Empty means "*.csv".
	Pattern   string
	Comma     rune
	TrimSpace bool
	// Workers bounds concurrent parses. Zero means GOMAXPROCS.
	Workers int

	Log  zerolog.Logger
	Diag *transformer.Diagnostics
}

// Result is what LoadDir read. Sources are in file name order and all carry
// the key column.
type Result struct {
	Sources []builtin.Source
	Files   int
	Rows    int
	Skipped int
}

// LoadDir parses every matching file in dir concurrently and returns those
// that have the key column, in lexicographic file name order. Files without
// the key are reported as diagnostics and left out.
func LoadDir(ctx context.Context, dir string, opts Options) (Result, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = "*.csv"
	}
	paths, err := file.List(dir, pattern)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: %w", err)
	}
	if len(paths) == 0 {
		return Result{}, fmt.Errorf("%w: %s matching %q", ErrNoInputs, dir, pattern)
	}

	srcs := make([]datasource.Source, len(paths))
	for i, p := range paths {
		srcs[i] = file.NewLocal(p)
	}
	return Load(ctx, srcs, opts)
}

// Load parses srcs concurrently, keeping their order.
func Load(ctx context.Context, srcs []datasource.Source, opts Options) (Result, error) {
	p := pcsv.NewParser(pcsv.Options{
		Key:       opts.Key,
		Comma:     opts.Comma,
		TrimSpace: opts.TrimSpace,
		Log:       opts.Log,
	})

	type slot struct {
		src   builtin.Source
		stats parser.Stats
	}
	slots := make([]slot, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(workers)
	for i, s := range srcs {
		g.Go(func() error {
			t, st, err := parseOne(gctx, p, s)
			if err != nil {
				return fmt.Errorf("ingest: %s: %w", s.Name(), err)
			}
			slots[i] = slot{src: builtin.Source{Name: s.Name(), Table: t}, stats: st}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{Files: len(srcs)}
	for _, s := range slots {
		res.Rows += s.stats.Rows
		res.Skipped += s.stats.Skipped
		if s.stats.Skipped > 0 {
			opts.Diag.Add(transformer.Diagnostic{
				Stage:   stage,
				Subject: s.src.Name,
				Message: fmt.Sprintf("%d malformed rows skipped", s.stats.Skipped),
			})
		}
		if !s.src.Table.HasKey() {
			opts.Log.Warn().Str("source", s.src.Name).Str("key", opts.Key).Msg("file has no key column, skipped")
			opts.Diag.Add(transformer.Diagnostic{
				Stage:   stage,
				Subject: s.src.Name,
				Message: fmt.Sprintf("no key column %q, skipped", opts.Key),
			})
			continue
		}
		opts.Log.Debug().
			Str("source", s.src.Name).
			Int("rows", s.stats.Rows).
			Int("cols", s.src.Table.NumCols()).
			Msg("file loaded")
		res.Sources = append(res.Sources, s.src)
	}
	return res, nil
}

func parseOne(ctx context.Context, p parser.Parser, s datasource.Source) (_ *table.Table, _ parser.Stats, err error) {
	rc, err := s.Open(ctx)
	if err != nil {
		return nil, parser.Stats{}, err
	}
	defer func() {
		if cerr := rc.Close(); err == nil {
			err = cerr
		}
	}()
	return p.Parse(ctx, rc)
}
