package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func init() {
	color.NoColor = true
}

func newCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Bookpedia.db")
	db, err := sql.Open(sqliteshim.ShimName, path)
	require.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	for _, stmt := range []string{
		`CREATE TABLE Listing (inventoryId INTEGER PRIMARY KEY, primaryName TEXT, primaryCreator TEXT,
			mfgPlace TEXT, mfgYear INTEGER, mfgName TEXT, primaryIdent TEXT, description TEXT, privateNotes TEXT)`,
		`INSERT INTO Listing VALUES (2, 'Dune', 'Frank Herbert', NULL, 1965, 'Chilton', NULL, NULL, 'LIST')`,
		`INSERT INTO Listing VALUES (1, 'Emma', 'Jane Austen', 'London', 1815, 'Murray', NULL, NULL, 'LIST')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Export(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")
	output := filepath.Join(t.TempDir(), "books.html")

	code, stdout, stderr := runCLI(t, "export", "--store", newCatalog(t), "--output", output)

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "exported 2 entries to "+output)
	assert.Contains(t, stdout, "(html, ")
	assert.FileExists(t, output)
}

func TestRun_ExportFormatFlag(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")
	output := filepath.Join(t.TempDir(), "books.txt")

	code, _, stderr := runCLI(t, "export", "--store", newCatalog(t), "-o", output, "-f", "csv")

	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "inventory_id,title,author")
}

func TestRun_MaxEntriesFlag(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")
	output := filepath.Join(t.TempDir(), "books.html")

	code, _, stderr := runCLI(t, "export", "--store", newCatalog(t), "-o", output, "--max-entries", "1")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "validation")
	assert.NoFileExists(t, output)
}

func TestRun_MissingStore(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")
	output := filepath.Join(t.TempDir(), "books.html")

	code, _, stderr := runCLI(t, "export", "--store", filepath.Join(t.TempDir(), "missing.db"), "--output", output)

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "store_unavailable")
	assert.NoFileExists(t, output)
}

func TestRun_UnknownFormat(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")

	code, _, stderr := runCLI(t, "export", "--store", newCatalog(t), "--output", filepath.Join(t.TempDir(), "books.out"), "--format", "rtf")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "not_found")
}

func TestRun_HistoryAfterExport(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")
	history := filepath.Join(t.TempDir(), "history.db")
	output := filepath.Join(t.TempDir(), "books.html")

	code, _, stderr := runCLI(t, "--history-db", history, "export", "--store", newCatalog(t), "--output", output)
	require.Equal(t, 0, code, stderr)

	code, stdout, stderr := runCLI(t, "--history-db", history, "history")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "completed")
	assert.Contains(t, stdout, output)

	code, stdout, stderr = runCLI(t, "--history-db", history, "history", "--state", "failed")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "no exports recorded")
}

func TestRun_HistoryRequiresDatabase(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")
	t.Setenv("BOOKSHELF_HISTORY_DB", "")

	code, _, stderr := runCLI(t, "history")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "TRACKER_REQUIRED")
}

func TestRun_HistoryRejectsUnknownState(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")

	code, _, stderr := runCLI(t, "--history-db", filepath.Join(t.TempDir(), "history.db"), "history", "--state", "queued")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "STATE_INVALID")
}

func TestRun_Batch(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")
	dir := t.TempDir()
	store := newCatalog(t)
	batch := filepath.Join(dir, "batch.json")
	content := `[{"store":"` + store + `","output":"` + filepath.Join(dir, "a.html") + `"},` +
		`{"store":"` + store + `","output":"` + filepath.Join(dir, "a.json") + `"}]`
	require.NoError(t, os.WriteFile(batch, []byte(content), 0o600))

	code, stdout, stderr := runCLI(t, "batch", batch)

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "completed 2 exports")
	assert.FileExists(t, filepath.Join(dir, "a.html"))
	assert.FileExists(t, filepath.Join(dir, "a.json"))
}

func TestRun_Formats(t *testing.T) {
	t.Setenv("BOOKSHELF_LOG_LEVEL", "error")
	t.Setenv("BOOKSHELF_SNAPSHOT_ENABLED", "true")

	code, stdout, stderr := runCLI(t, "formats")

	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "html")
	assert.Contains(t, stdout, "text/csv")
	assert.Contains(t, stdout, "sqlite")
}

func TestRun_ParseError(t *testing.T) {
	code, _, stderr := runCLI(t, "export", "--output", "books.html")

	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--store")
}
