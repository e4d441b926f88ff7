// Package csvfile writes a table as a delimited text file with a header row.
//
// Options:
//
//	delimiter  single character, default ","
//	header     write the header row, default true
package csvfile

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"tablemerge/internal/storage"
	"tablemerge/internal/table"
)

// Repository appends rows to a delimited file.
type Repository struct {
	f  *os.File
	bw *bufio.Writer
	w  *csv.Writer
}

// Open creates (or truncates) path and writes the header for columns.
func Open(path string, columns []string, comma rune, header bool) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("csvfile: path must not be empty")
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csvfile: %w", err)
	}
	bw := bufio.NewWriterSize(f, 1<<16)
	w := csv.NewWriter(bw)
	w.Comma = comma
	r := &Repository{f: f, bw: bw, w: w}
	if header {
		if err := w.Write(columns); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("csvfile: header: %w", err)
		}
	}
	return r, nil
}

// CopyFrom formats each value the way table.Value prints it; missing values
// become empty fields.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	rec := make([]string, len(columns))
	var n int64
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if len(row) != len(columns) {
			return n, fmt.Errorf("csvfile: row length %d != columns length %d", len(row), len(columns))
		}
		for i, v := range row {
			rec[i] = table.Of(v).String()
		}
		if err := r.w.Write(rec); err != nil {
			return n, fmt.Errorf("csvfile: %w", err)
		}
		n++
	}
	return n, nil
}

// Close flushes buffered output and closes the file.
func (r *Repository) Close() error {
	r.w.Flush()
	err := r.w.Error()
	if ferr := r.bw.Flush(); err == nil {
		err = ferr
	}
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("csvfile: close: %w", err)
	}
	return nil
}

func init() {
	storage.Register("csv", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		return Open(cfg.Path, cfg.Columns, cfg.Options.Rune("delimiter", ','), cfg.Options.Bool("header", true))
	})
}
