// Package parquet writes a table as a single Parquet file through the
// parquet-go JSON writer. Every column is OPTIONAL so missing values survive.
//
// Options:
//
//	compression  snappy (default), gzip, none
//	parallelism  writer goroutines, default 4
package parquet

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/xitongsys/parquet-go-source/local"
	pq "github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"tablemerge/internal/storage"
	"tablemerge/internal/table"
)

// Repository streams rows into an open Parquet writer.
type Repository struct {
	file   source.ParquetFile
	pw     *writer.JSONWriter
	fields []string
}

// Open creates path and prepares a writer for columns of the given kinds.
func Open(path string, columns []string, kinds []table.Kind, compression string, parallelism int) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("parquet: path must not be empty")
	}
	if len(kinds) != len(columns) {
		return nil, fmt.Errorf("parquet: %d columns but %d kinds", len(columns), len(kinds))
	}
	codec, err := codecFor(compression)
	if err != nil {
		return nil, err
	}
	fields := FieldNames(columns)
	schema, err := buildSchema(fields, kinds)
	if err != nil {
		return nil, err
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, fmt.Errorf("parquet: %w", err)
	}
	if parallelism < 1 {
		parallelism = 1
	}
	pw, err := writer.NewJSONWriter(schema, fw, int64(parallelism))
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("parquet: writer: %w", err)
	}
	pw.CompressionType = codec
	return &Repository{file: fw, pw: pw, fields: fields}, nil
}

// CopyFrom encodes each row as a JSON object keyed by field name. Infinite
// floats have no JSON form and are rejected.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) != len(r.fields) {
		return 0, fmt.Errorf("parquet: got %d columns, writer has %d", len(columns), len(r.fields))
	}
	var n int64
	rec := make(map[string]any, len(r.fields))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if len(row) != len(r.fields) {
			return n, fmt.Errorf("parquet: row length %d != columns length %d", len(row), len(r.fields))
		}
		for i, v := range row {
			if f, ok := v.(float64); ok && math.IsInf(f, 0) {
				return n, fmt.Errorf("parquet: column %q: infinite value cannot be written", columns[i])
			}
			rec[r.fields[i]] = v
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return n, fmt.Errorf("parquet: encode row: %w", err)
		}
		if err := r.pw.Write(string(b)); err != nil {
			return n, fmt.Errorf("parquet: write row: %w", err)
		}
		n++
	}
	return n, nil
}

// Close writes the footer and closes the file.
func (r *Repository) Close() error {
	err := r.pw.WriteStop()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("parquet: close: %w", err)
	}
	return nil
}

func codecFor(name string) (pq.CompressionCodec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return pq.CompressionCodec_SNAPPY, nil
	case "gzip":
		return pq.CompressionCodec_GZIP, nil
	case "none", "uncompressed":
		return pq.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("parquet: unsupported compression %q", name)
	}
}

// FieldNames maps column names to Parquet field names. The schema tag syntax
// cannot carry separators, so anything outside [A-Za-z0-9_] becomes '_'; a
// leading digit gets a "c" prefix and clashes get a numeric suffix.
func FieldNames(columns []string) []string {
	out := make([]string, len(columns))
	used := make(map[string]bool, len(columns))
	for i, c := range columns {
		name := strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
				return r
			}
			return '_'
		}, c)
		if name == "" || unicode.IsDigit(rune(name[0])) {
			name = "c" + name
		}
		candidate := name
		for k := 1; used[candidate]; k++ {
			candidate = fmt.Sprintf("%s_%d", name, k)
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

func buildSchema(fields []string, kinds []table.Kind) (string, error) {
	defs := make([]map[string]string, 0, len(fields))
	for i, name := range fields {
		defs = append(defs, map[string]string{
			"Tag": fmt.Sprintf("name=%s, %s, repetitiontype=OPTIONAL", name, physicalType(kinds[i])),
		})
	}
	b, err := json.Marshal(map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": defs,
	})
	if err != nil {
		return "", fmt.Errorf("parquet: schema: %w", err)
	}
	return string(b), nil
}

func physicalType(k table.Kind) string {
	switch k {
	case table.KindInt8:
		return "type=INT32, convertedtype=INT_8"
	case table.KindInt16:
		return "type=INT32, convertedtype=INT_16"
	case table.KindInt32:
		return "type=INT32"
	case table.KindInt64:
		return "type=INT64"
	case table.KindFloat64:
		return "type=DOUBLE"
	default:
		return "type=BYTE_ARRAY, convertedtype=UTF8"
	}
}

func init() {
	storage.Register("parquet", func(_ context.Context, cfg storage.Config) (storage.Repository, error) {
		kinds := cfg.Kinds
		if kinds == nil {
			// The zero Kind is KindString.
			kinds = make([]table.Kind, len(cfg.Columns))
		}
		return Open(cfg.Path, cfg.Columns, kinds,
			cfg.Options.String("compression", "snappy"),
			cfg.Options.Int("parallelism", 4))
	})
}
