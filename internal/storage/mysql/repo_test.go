package mysql

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablemerge/internal/config"
	"tablemerge/internal/ddl"
	"tablemerge/internal/storage"
	"tablemerge/internal/table"
)

func TestInsertStatement(t *testing.T) {
	t.Parallel()

	stmt, args, err := insertStatement("db.teams", []string{"TEAM NO", "x`y"}, [][]any{
		{int64(1), "a"},
		{int64(2), nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `db`.`teams` (`TEAM NO`, `x``y`) VALUES (?, ?), (?, ?)", stmt)
	assert.Equal(t, []any{int64(1), "a", int64(2), nil}, args)

	_, _, err = insertStatement("t", []string{"a", "b"}, [][]any{{1}})
	assert.Error(t, err)
}

func TestChunkRows(t *testing.T) {
	t.Parallel()

	rows := make([][]any, 7)
	chunks := chunkRows(rows, 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[2], 1)

	assert.Len(t, chunkRows(rows, 0), 7)
	assert.Empty(t, chunkRows(nil, 5))
}

func TestDialectCreateTable(t *testing.T) {
	t.Parallel()

	tbl := table.MustNew("code",
		table.FromAny("code", table.KindString, "a", "b"),
		table.FromAny("n", table.KindInt8, 1, nil),
	)
	def, err := ddl.FromTable("teams", tbl, Dialect)
	require.NoError(t, err)
	got, err := ddl.BuildCreateTableSQL(def, Dialect)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `teams` (\n  `code` VARCHAR(255) NOT NULL,\n  `n` TINYINT,\n  PRIMARY KEY (`code`)\n);", got)
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	t.Parallel()

	_, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn", Table: "t"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "mysql dsn:"), err.Error())
}

func TestAdapterRegistration(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var got Config
	closed := false
	newRepository = func(_ context.Context, cfg Config) (*Repository, func() error, error) {
		got = cfg
		return &Repository{}, func() error { closed = true; return nil }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "u:p@tcp(h:3306)/db", Table: "teams"})
	require.NoError(t, err)
	assert.Equal(t, "teams", got.Table)
	require.NoError(t, repo.Close())
	assert.True(t, closed)

	_, ok := storage.DialectFor("mysql")
	assert.True(t, ok)
}

// TestWriteIntegration runs when MYSQL_TEST_DSN is set, e.g.
// "root:secret@tcp(127.0.0.1:3306)/test".
func TestWriteIntegration(t *testing.T) {
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set; skipping MySQL integration test")
	}
	ctx := context.Background()

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, Table: "tablemerge_test"})
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, repo.Exec(ctx, "DROP TABLE IF EXISTS `tablemerge_test`"))

	tbl := table.MustNew("k",
		table.FromAny("k", table.KindInt32, 1, 2, 3),
		table.FromAny("v", table.KindFloat64, 0.5, nil, 2.5),
	)
	st := config.Storage{
		Kind: "mysql",
		DB:   config.DBConfig{DSN: dsn, Table: "tablemerge_test", AutoCreateTable: true},
	}
	n, err := storage.Write(ctx, st, tbl, storage.WriteOptions{BatchSize: 2, Log: zerolog.Nop()})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
