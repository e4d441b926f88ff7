// Package datasource defines where raw input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens one input for reading. Name identifies the input in logs and
// diagnostics, typically its file name.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}
