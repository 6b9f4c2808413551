package command

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-bookshelf/export"
	"github.com/goliatone/go-errors"
)

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write batch file: %v", err)
	}
	return path
}

func TestBatchCommand_RunFromFile(t *testing.T) {
	exporter := &captureExporter{}
	path := writeBatchFile(t, `[
		{"store": "catalog.db", "output": "books.html"},
		{"store": "catalog.db", "output": "books.out", "format": "csv"}
	]`)

	count, err := NewBatchCommand(exporter).Run(context.Background(), path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 exports, got %d", count)
	}
	if exporter.requests[1].Format != export.FormatCSV || exporter.requests[1].OutputPath != "books.out" {
		t.Fatalf("unexpected second request %+v", exporter.requests[1])
	}
}

func TestBatchCommand_RunHonorsLimits(t *testing.T) {
	exporter := &captureExporter{}
	loader := func(ctx context.Context) ([]BatchItem, error) {
		return []BatchItem{
			{StorePath: "a.db", OutputPath: "a.html"},
			{StorePath: "b.db", OutputPath: "b.html"},
		}, nil
	}

	var slept int
	cmd := NewBatchCommand(exporter, WithBatchLoader(loader), WithBatchLimits(BatchLimits{MaxItems: 1, MinInterval: time.Millisecond}))
	cmd.sleep = func(time.Duration) { slept++ }

	count, err := cmd.run(context.Background(), "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if count != 1 || len(exporter.requests) != 1 {
		t.Fatalf("expected 1 export, got count=%d calls=%d", count, len(exporter.requests))
	}
	if slept != 1 {
		t.Fatalf("expected one pause, got %d", slept)
	}
}

func TestBatchCommand_StopsOnFirstError(t *testing.T) {
	failure := export.NewError(export.KindStoreUnavailable, "catalog store unavailable", nil)
	exporter := &captureExporter{err: failure}
	path := writeBatchFile(t, `[{"store":"a.db","output":"a.html"},{"store":"b.db","output":"b.html"}]`)

	count, err := NewBatchCommand(exporter).Run(context.Background(), path)
	if !stderrors.Is(err, failure) {
		t.Fatalf("expected export error, got %v", err)
	}
	if count != 0 || len(exporter.requests) != 1 {
		t.Fatalf("expected stop after first failure, got count=%d calls=%d", count, len(exporter.requests))
	}
}

func TestBatchCommand_InvalidItem(t *testing.T) {
	exporter := &captureExporter{}
	path := writeBatchFile(t, `[{"store":"a.db"}]`)

	_, err := NewBatchCommand(exporter).Run(context.Background(), path)
	var ge *errors.Error
	if !stderrors.As(err, &ge) || ge.TextCode != "BATCH_ITEM_INVALID" {
		t.Fatalf("expected BATCH_ITEM_INVALID, got %v", err)
	}
	if len(exporter.requests) != 0 {
		t.Fatalf("expected no exports")
	}
}

func TestBatchCommand_FileErrors(t *testing.T) {
	cmd := NewBatchCommand(&captureExporter{})

	_, err := cmd.Run(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	var ge *errors.Error
	if !stderrors.As(err, &ge) || ge.TextCode != "BATCH_FILE_READ" {
		t.Fatalf("expected BATCH_FILE_READ, got %v", err)
	}

	_, err = cmd.Run(context.Background(), writeBatchFile(t, `{not json`))
	if !stderrors.As(err, &ge) || ge.TextCode != "BATCH_FILE_INVALID" {
		t.Fatalf("expected BATCH_FILE_INVALID, got %v", err)
	}
}

func TestBatchCommand_RequiresLoaderForCron(t *testing.T) {
	cmd := NewBatchCommand(&captureExporter{})
	err := cmd.CronHandler()()
	var ge *errors.Error
	if !stderrors.As(err, &ge) || ge.TextCode != "LOADER_REQUIRED" {
		t.Fatalf("expected LOADER_REQUIRED, got %v", err)
	}
	if cmd.CronOptions().Expression == "" {
		t.Fatalf("expected default cron expression")
	}
	if len(cmd.CLIOptions().Path) == 0 {
		t.Fatalf("expected CLI path")
	}
}
