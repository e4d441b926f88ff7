package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablemerge/internal/transformer"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadDirOrderAndKeyFilter(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.csv":     "TEAM NO,Y\n1,5\n",
		"a.csv":     "TEAM NO,X\n1,2\n2,3\n",
		"c.csv":     "OTHER,X\n1,2\n",
		"notes.txt": "ignored",
	})
	diag := &transformer.Diagnostics{}

	res, err := LoadDir(context.Background(), dir, Options{
		Key:     "TEAM NO",
		Workers: 2,
		Log:     zerolog.Nop(),
		Diag:    diag,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 4, res.Rows)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "a.csv", res.Sources[0].Name)
	assert.Equal(t, "b.csv", res.Sources[1].Name)
	assert.Equal(t, 2, res.Sources[0].Table.NumRows())

	all := diag.All()
	require.Len(t, all, 1)
	assert.Equal(t, "c.csv", all[0].Subject)
}

func TestLoadDirCountsSkippedRows(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.csv": "TEAM NO,X\n1,2\n3\n4,5\n",
	})
	diag := &transformer.Diagnostics{}

	res, err := LoadDir(context.Background(), dir, Options{Key: "TEAM NO", Log: zerolog.Nop(), Diag: diag})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, 1, diag.Len())
}

func TestLoadDirDelimiterAndPattern(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.tsv": "TEAM NO\tX\n1\t2\n",
		"b.csv": "TEAM NO,X\n1,2\n",
	})
	res, err := LoadDir(context.Background(), dir, Options{Key: "TEAM NO", Pattern: "*.tsv", Comma: '\t', Log: zerolog.Nop()})
	require.NoError(t, err)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, []string{"TEAM NO", "X"}, res.Sources[0].Table.Names())
}

func TestLoadDirErrors(t *testing.T) {
	_, err := LoadDir(context.Background(), t.TempDir(), Options{Key: "k", Log: zerolog.Nop()})
	require.ErrorIs(t, err, ErrNoInputs)

	_, err = LoadDir(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{Key: "k", Log: zerolog.Nop()})
	require.ErrorIs(t, err, os.ErrNotExist)

	dir := writeFiles(t, map[string]string{"a.csv": ""})
	_, err = LoadDir(context.Background(), dir, Options{Key: "k", Log: zerolog.Nop()})
	require.Error(t, err)
}

func TestLoadDirCanceled(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.csv": "k\n1\n"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadDir(ctx, dir, Options{Key: "k", Log: zerolog.Nop()})
	require.ErrorIs(t, err, context.Canceled)
}
