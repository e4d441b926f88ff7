// Package file implements a local filesystem-backed data source and the
// directory listing the loader uses to find its inputs.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is a filesystem data source that opens one file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path. It is safe for concurrent use.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Name is the base name of the path.
func (l *Local) Name() string { return filepath.Base(l.path) }

// Open opens the file for reading. A context that is already done short
// circuits without touching the filesystem. The kernel is told the file will
// be read sequentially where the platform supports it.
//
// Filesystem errors are wrapped with the path and still match errors.Is
// (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}
