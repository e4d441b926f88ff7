package bench

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tablemerge/internal/config"
	"tablemerge/internal/datasource"
	"tablemerge/internal/ingest"
	"tablemerge/internal/pipeline"
	"tablemerge/internal/storage"
	"tablemerge/internal/table"
	"tablemerge/internal/transformer"
)

// memSource serves a CSV payload from memory so the benchmark measures parse,
// merge and load without disk I/O.
type memSource struct {
	name string
	data []byte
}

func (m memSource) Name() string { return m.name }
func (m memSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

// countingRepo accepts every batch and only counts rows.
type countingRepo struct{ n int64 }

func (r *countingRepo) CopyFrom(_ context.Context, _ []string, rows [][]any) (int64, error) {
	r.n += int64(len(rows))
	return int64(len(rows)), nil
}
func (r *countingRepo) Close() error { return nil }

// teamFiles builds files inputs of rows keyed rows each. Files overlap on
// half of their keys; "Score" agrees across files while "Note" conflicts, so
// every fold exercises both the join predicate and the rename path.
func teamFiles(files, rows int) []datasource.Source {
	out := make([]datasource.Source, files)
	for f := 0; f < files; f++ {
		var sb strings.Builder
		sb.WriteString("TEAM NO,Score,Note,Metric" + fmt.Sprint(f) + "\n")
		start := f * rows / 2
		for r := start; r < start+rows; r++ {
			fmt.Fprintf(&sb, "%d,%d.5,n%d-%d,%d\n", r, r%97, f, r, r%13)
		}
		out[f] = memSource{name: fmt.Sprintf("team%02d.csv", f), data: []byte(sb.String())}
	}
	return out
}

// BenchmarkEndToEnd exercises parse, merge, every post-merge stage and the
// batch loader against an in-memory sink.
//
// Run with:
//
//	go test -run=^$ -bench ^BenchmarkEndToEnd$ -cpuprofile cpu.out -memprofile mem.out -count=1
func BenchmarkEndToEnd(b *testing.B) {
	ctx := context.Background()
	srcs := teamFiles(4, 5000)
	cfg := config.Default()
	log := zerolog.Nop()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		res, err := ingest.Load(ctx, srcs, ingest.Options{
			Key:  cfg.KeyColumn,
			Log:  log,
			Diag: &transformer.Diagnostics{},
		})
		if err != nil {
			b.Fatalf("Load: %v", err)
		}
		merged, _, err := pipeline.Run(ctx, cfg, res.Sources, log)
		if err != nil {
			b.Fatalf("Run: %v", err)
		}
		repo := &countingRepo{}
		n, err := storage.WriteTable(ctx, repo, merged, storage.WriteOptions{Job: "bench", BatchSize: 4096, Log: log})
		if err != nil {
			b.Fatalf("WriteTable: %v", err)
		}
		if n != int64(merged.NumRows()) {
			b.Fatalf("wrote %d rows, table has %d", n, merged.NumRows())
		}
	}
}

// BenchmarkColumnTake measures the gather used by every merge fold.
func BenchmarkColumnTake(b *testing.B) {
	const n = 100_000
	vals := make([]any, n)
	rows := make([]int, n)
	for i := range vals {
		if i%10 != 0 {
			vals[i] = int64(i)
		}
		rows[i] = n - 1 - i
		if i%7 == 0 {
			rows[i] = -1
		}
	}
	c := table.FromAny("X", table.KindInt64, vals...)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Take(rows)
	}
}
