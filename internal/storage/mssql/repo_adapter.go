// Package mssql also wires the backend into the storage factory.
package mssql

import (
	"context"

	"tablemerge/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

type wrappedRepo struct {
	*Repository
	closeFn func() error
}

var (
	_ storage.Repository = (*wrappedRepo)(nil)
	_ storage.Execer     = (*wrappedRepo)(nil)
)

func (w *wrappedRepo) Close() error {
	if w.closeFn == nil {
		return nil
	}
	return w.closeFn()
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("mssql", Dialect)
}
