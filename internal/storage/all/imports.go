// Package all wires every built-in storage backend into the storage factory.
//
// It exists for side effects: importing it runs the init functions that
// register each backend's factory and, for SQL backends, its DDL dialect.
//
//	import (
//	    _ "tablemerge/internal/storage/all"
//
//	    "tablemerge/internal/storage"
//	)
//
//	n, err := storage.Write(ctx, cfg.Storage, merged, storage.WriteOptions{Job: cfg.Job})
//
// Kinds made available:
//
//   - "csv"      (internal/storage/csvfile)
//   - "parquet"  (internal/storage/parquet)
//   - "sqlite"   (internal/storage/sqlite)
//   - "postgres" (internal/storage/postgres)
//   - "mysql"    (internal/storage/mysql)
//   - "mssql"    (internal/storage/mssql)
//
// A binary that needs fewer backends can import the individual packages
// instead.
package all

import (
	_ "tablemerge/internal/storage/csvfile"
	_ "tablemerge/internal/storage/mssql"
	_ "tablemerge/internal/storage/mysql"
	_ "tablemerge/internal/storage/parquet"
	_ "tablemerge/internal/storage/postgres"
	_ "tablemerge/internal/storage/sqlite"
)
