package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tablemerge/internal/metrics"
)

// CopyFn abstracts a backend's bulk insert. It inserts rows aligned to
// columns and returns how many it reports as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// BatchOptions tunes LoadBatches.
type BatchOptions struct {
	Size int
	// Job labels the batch metric.
	Job string
	Log zerolog.Logger
}

// LoadBatches drains rows from in, groups them into batches of opts.Size and
// calls copyFn per non-empty batch. It returns the total reported by copyFn
// and the first error. A progress line is logged after every flush.
func LoadBatches(ctx context.Context, columns []string, in <-chan []any, copyFn CopyFn, opts BatchOptions) (int64, error) {
	if opts.Size <= 0 {
		return 0, fmt.Errorf("batch size must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total     int64
		batches   int64
		batch     = make([][]any, 0, opts.Size)
		start     = time.Now()
		lastFlush = start
		lastTotal int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			opts.Log.Error().Err(err).Int64("inserted", n).Int64("total", total).Msg("batch copy failed")
			return err
		}

		batches++
		metrics.RecordBatches(opts.Job, 1)
		now := time.Now()
		since := now.Sub(lastFlush)
		rps := 0.0
		if since > 0 {
			rps = float64(total-lastTotal) / since.Seconds()
		}
		opts.Log.Debug().
			Int64("batch", batches).
			Int64("inserted", n).
			Int64("total", total).
			Float64("rps", rps).
			Dur("elapsed", now.Sub(start)).
			Msg("batch flushed")
		lastFlush, lastTotal = now, total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				opts.Log.Info().Int64("batches", batches).Int64("rows", total).Msg("load finished")
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= opts.Size {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
