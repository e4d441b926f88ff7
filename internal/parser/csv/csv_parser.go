// Package csv reads delimited text into a typed table.
//
// Every column gets the narrowest of three kinds that holds all of its
// present cells: Int64, Float64 or String. Empty cells and the usual NA
// spellings ("NA", "NaN", "null", "#N/A", ...) are missing, never zero or "".
// A column with no present cell is Float64, all missing.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"tablemerge/internal/parser"
	"tablemerge/internal/table"
)

// Options configures the parser. Zero values are usable.
type Options struct {
	// Key is recorded on the produced table as its key column name.
	Key string

	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading and trailing blanks from every cell.
	TrimSpace bool

	// MaxLoggedSkips bounds how many skipped rows are logged individually.
	// Zero means 20.
	MaxLoggedSkips int

	Log zerolog.Logger
}

// ErrNoHeader is returned for an input without a header row.
var ErrNoHeader = errors.New("csv: missing header row")

// Parser is safe to reuse across inputs and goroutines.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

func NewParser(opt Options) *Parser {
	if opt.MaxLoggedSkips == 0 {
		opt.MaxLoggedSkips = 20
	}
	return &Parser{opt: opt}
}

// naTokens are cells read as missing.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isNA(s string) bool {
	_, ok := naTokens[s]
	return ok
}

// Parse reads the header and every data row of r. Rows whose width differs
// from the header, or that encoding/csv cannot read, are skipped and counted.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*table.Table, parser.Stats, error) {
	var st parser.Stats

	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, st, ErrNoHeader
	}
	if err != nil {
		return nil, st, fmt.Errorf("csv: read header: %w", err)
	}
	names := normalizeHeaders(header)

	cells := make([][]string, len(names))
	for line := 2; ; line++ {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, st, err
			}
		}
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.skip(&st, line, err.Error())
			continue
		}
		if len(row) != len(names) {
			p.skip(&st, line, fmt.Sprintf("expected %d fields, got %d", len(names), len(row)))
			continue
		}
		for i, v := range row {
			if p.opt.TrimSpace {
				v = strings.TrimSpace(v)
			}
			cells[i] = append(cells[i], v)
		}
		st.Rows++
	}
	if st.Skipped > p.opt.MaxLoggedSkips {
		p.opt.Log.Warn().Int("skipped", st.Skipped).Msg("malformed rows skipped")
	}

	cols := make([]*table.Column, len(names))
	for i, name := range names {
		cols[i] = buildColumn(name, cells[i])
	}
	t, err := table.New(p.opt.Key, cols...)
	if err != nil {
		return nil, st, fmt.Errorf("csv: %w", err)
	}
	return t, st, nil
}

func (p *Parser) skip(st *parser.Stats, line int, reason string) {
	st.Skipped++
	if st.Skipped <= p.opt.MaxLoggedSkips {
		p.opt.Log.Debug().Int("line", line).Str("reason", reason).Msg("row skipped")
	}
}

// buildColumn infers the kind of cells and converts them.
func buildColumn(name string, cells []string) *table.Column {
	kind := inferKind(cells)
	b := table.NewBuilder(name, kind, len(cells))
	for _, s := range cells {
		if isNA(s) {
			b.Append(table.Missing())
			continue
		}
		switch kind {
		case table.KindInt64:
			n, _ := strconv.ParseInt(s, 10, 64)
			b.Append(table.Int(n))
		case table.KindFloat64:
			f, _ := parseFloat(s)
			b.Append(table.Float(f))
		default:
			b.Append(table.Str(s))
		}
	}
	return b.Column()
}

func inferKind(cells []string) table.Kind {
	kind := table.KindFloat64
	seen := false
	for _, s := range cells {
		if isNA(s) {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			if !seen {
				kind = table.KindInt64
			}
			seen = true
			continue
		}
		if _, ok := parseFloat(s); ok {
			kind, seen = table.KindFloat64, true
			continue
		}
		return table.KindString
	}
	return kind
}

// parseFloat accepts decimal notation only; Go's hex floats and digit
// separators are not numbers in delimited data.
func parseFloat(s string) (float64, bool) {
	if strings.ContainsAny(s, "xX_pP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var ne *strconv.NumError
		// Out-of-range values come back as ±Inf, which is still a number.
		if errors.As(err, &ne) && errors.Is(ne.Err, strconv.ErrRange) {
			return f, true
		}
		return 0, false
	}
	return f, true
}
