package storage

import (
	"context"
	"fmt"
	"sync"

	"tablemerge/internal/ddl"
	"tablemerge/internal/table"
)

var (
	ddlMu    sync.RWMutex
	dialects = map[string]ddl.Dialect{}
)

// RegisterDDL registers the SQL dialect used to create tables for kind.
// Backends call it from init next to Register.
func RegisterDDL(kind string, d ddl.Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (ddl.Dialect, bool) {
	ddlMu.RLock()
	defer ddlMu.RUnlock()
	d, ok := dialects[kind]
	return d, ok
}

// EnsureTable creates tableName from the column kinds of t unless it exists.
// repo must implement Execer.
func EnsureTable(ctx context.Context, kind string, repo Repository, tableName string, t *table.Table) error {
	d, ok := DialectFor(kind)
	if !ok {
		return fmt.Errorf("storage: no DDL dialect registered for kind %q", kind)
	}
	ex, ok := repo.(Execer)
	if !ok {
		return fmt.Errorf("storage: %s repository cannot execute DDL", kind)
	}
	def, err := ddl.FromTable(tableName, t, d)
	if err != nil {
		return err
	}
	stmt, err := ddl.BuildCreateTableSQL(def, d)
	if err != nil {
		return err
	}
	if err := ex.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	return nil
}
