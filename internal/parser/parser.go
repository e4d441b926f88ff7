// Package parser defines the contract between raw input bytes and tables.
package parser

import (
	"context"
	"io"

	"tablemerge/internal/table"
)

// Stats summarizes one parse.
type Stats struct {
	// Rows is the number of data rows kept.
	Rows int
	// Skipped counts malformed rows that were dropped.
	Skipped int
}

// Parser turns one input into a table.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (*table.Table, Stats, error)
}
