//go:build integration

package mssql

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablemerge/internal/config"
	"tablemerge/internal/storage"
	"tablemerge/internal/table"
)

// getTestDSN reads MSSQL_TEST_DSN and skips the test when it is empty.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}
	return dsn
}

func TestNewRepositoryIntegration(t *testing.T) {
	dsn := getTestDSN(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, Table: "tempdb.dbo.tablemerge_probe"})
	require.NoError(t, err)
	require.NotNil(t, repo)
	require.NoError(t, closeFn())
}

// TestWriteIntegration creates the table from the column kinds, bulk loads a
// merged table with missing cells and reads it back.
func TestWriteIntegration(t *testing.T) {
	dsn := getTestDSN(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name := fmt.Sprintf("dbo.tablemerge_it_%d", time.Now().UnixNano())
	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, Table: name})
	require.NoError(t, err)
	defer closeFn()
	defer func() { _ = repo.Exec(context.Background(), "DROP TABLE IF EXISTS "+msFQN(name)) }()

	tbl := table.MustNew("TEAM NO",
		table.FromAny("TEAM NO", table.KindInt16, 1, 2, 3),
		table.FromAny("Score", table.KindFloat64, 1.5, nil, 3.25),
		table.FromAny("Coach", table.KindString, "Ann", "Bo", nil),
	)
	st := config.Storage{
		Kind: "mssql",
		DB:   config.DBConfig{DSN: dsn, Table: name, AutoCreateTable: true},
	}
	n, err := storage.Write(ctx, st, tbl, storage.WriteOptions{BatchSize: 2, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	var count, nulls int
	q := fmt.Sprintf("SELECT COUNT(*), SUM(CASE WHEN [Score] IS NULL THEN 1 ELSE 0 END) FROM %s", msFQN(name))
	require.NoError(t, repo.db.QueryRowContext(ctx, q).Scan(&count, &nulls))
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, nulls)

	// The OBJECT_ID guard makes the second CREATE a no-op; the primary key
	// rejects the repeated rows.
	_, err = storage.Write(ctx, st, tbl, storage.WriteOptions{Log: zerolog.Nop()})
	assert.Error(t, err)
}
