package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tablemerge/internal/config"
	"tablemerge/internal/metrics"
	"tablemerge/internal/table"
)

// WriteOptions carries runtime knobs for WriteTable and Write.
type WriteOptions struct {
	Job           string
	BatchSize     int
	ChannelBuffer int
	Log           zerolog.Logger
}

func (o WriteOptions) withDefaults() WriteOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = 5000
	}
	if o.ChannelBuffer < 0 {
		o.ChannelBuffer = 0
	}
	return o
}

// WriteTable streams every row of t into repo. A producer goroutine feeds a
// bounded channel that LoadBatches drains, so at most one batch plus the
// channel buffer is materialized at a time.
func WriteTable(ctx context.Context, repo Repository, t *table.Table, opts WriteOptions) (int64, error) {
	opts = opts.withDefaults()
	cols := t.Names()
	rows := make(chan []any, opts.ChannelBuffer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(rows)
		for i := 0; i < t.NumRows(); i++ {
			vals := t.Row(i)
			rec := make([]any, len(vals))
			for j, v := range vals {
				rec[j] = v.Any()
			}
			select {
			case rows <- rec:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var n int64
	g.Go(func() error {
		var err error
		n, err = LoadBatches(gctx, cols, rows, repo.CopyFrom, BatchOptions{
			Size: opts.BatchSize,
			Job:  opts.Job,
			Log:  opts.Log,
		})
		return err
	})

	if err := g.Wait(); err != nil {
		return n, err
	}
	metrics.RecordRow(opts.Job, "written", n)
	return n, nil
}

// Write opens the sink described by st, creates the destination table when
// asked to, and writes t. The repository is closed before returning; for
// file sinks Close finalizes the file.
func Write(ctx context.Context, st config.Storage, t *table.Table, opts WriteOptions) (n int64, err error) {
	cfg := Config{
		Kind:    st.Kind,
		DSN:     st.DB.DSN,
		Table:   st.DB.Table,
		Path:    st.Path,
		Columns: t.Names(),
		Kinds:   kinds(t),
		Options: st.Options,
	}
	repo, err := New(ctx, cfg)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s sink: %w", st.Kind, cerr)
		}
	}()

	if st.DB.AutoCreateTable {
		if err := EnsureTable(ctx, st.Kind, repo, st.DB.Table, t); err != nil {
			return 0, err
		}
	}

	log := opts.Log.With().Str("sink", st.Kind).Logger()
	opts.Log = log
	n, err = WriteTable(ctx, repo, t, opts)
	if err != nil {
		return n, fmt.Errorf("write %s sink: %w", st.Kind, err)
	}
	log.Info().Int64("rows", n).Int("cols", t.NumCols()).Msg("table written")
	return n, nil
}

func kinds(t *table.Table) []table.Kind {
	out := make([]table.Kind, t.NumCols())
	for i, c := range t.Columns() {
		out[i] = c.Kind()
	}
	return out
}
