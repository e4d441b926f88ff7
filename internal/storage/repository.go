// Package storage contains the sink contracts for a merged table, a registry
// of backends, and the batched loader that feeds them.
//
// Backends register themselves from init; importing storage/all enables every
// built-in kind:
//
//	import _ "tablemerge/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "out.db", Table: "teams", Columns: cols})
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"tablemerge/internal/config"
	"tablemerge/internal/table"
)

// ErrUnknownKind is returned by New for a kind nobody registered.
var ErrUnknownKind = errors.New("storage: unsupported kind")

// Config is what a backend factory receives.
type Config struct {
	Kind string
	// DSN and Table address database sinks.
	DSN   string
	Table string
	// Path addresses file sinks.
	Path string
	// Columns is the ordered destination column list; Kinds, when set, is
	// aligned with it.
	Columns []string
	Kinds   []table.Kind
	Options config.Options
}

// Repository accepts batches of rows aligned to a column list.
type Repository interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Close() error
}

// Execer is implemented by SQL repositories that can run DDL.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// Factory opens a Repository.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register adds or replaces the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a repository of cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrUnknownKind, cfg.Kind, ListKinds())
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
