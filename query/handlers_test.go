package query

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/goliatone/go-bookshelf/export"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-errors"
)

func seededTracker(t *testing.T) *export.MemoryTracker {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker := export.NewMemoryTracker()
	records := []export.ExportRecord{
		{ID: "exp-1", StorePath: "catalog.db", OutputPath: "a.html", Format: export.FormatHTML, CreatedAt: base},
		{ID: "exp-2", StorePath: "catalog.db", OutputPath: "b.csv", Format: export.FormatCSV, CreatedAt: base.Add(time.Hour)},
		{ID: "exp-3", StorePath: "missing.db", OutputPath: "c.html", Format: export.FormatHTML, CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, record := range records {
		if _, err := tracker.Start(context.Background(), record); err != nil {
			t.Fatalf("tracker start: %v", err)
		}
	}
	if err := tracker.Complete(context.Background(), "exp-1", export.RenderStats{Rows: 3, Bytes: 120}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := tracker.Complete(context.Background(), "exp-2", export.RenderStats{Rows: 3, Bytes: 80}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := tracker.Fail(context.Background(), "exp-3", export.NewError(export.KindStoreUnavailable, "catalog store unavailable", nil)); err != nil {
		t.Fatalf("fail: %v", err)
	}
	return tracker
}

func TestExportStatusHandler_ReturnsRecord(t *testing.T) {
	handler := NewExportStatusHandler(seededTracker(t))

	record, err := handler.Query(context.Background(), ExportStatus{ExportID: "exp-3"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if record.State != export.StateFailed || record.Error != "catalog store unavailable" {
		t.Fatalf("unexpected record %+v", record)
	}

	_, err = handler.Query(context.Background(), ExportStatus{ExportID: "exp-9"})
	if !export.IsKind(err, export.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExportStatusHandler_RequiresID(t *testing.T) {
	handler := NewExportStatusHandler(seededTracker(t))
	_, err := handler.Query(context.Background(), ExportStatus{})
	var ge *errors.Error
	if !stderrors.As(err, &ge) || ge.TextCode != "EXPORT_ID_REQUIRED" {
		t.Fatalf("expected EXPORT_ID_REQUIRED, got %v", err)
	}
}

func TestExportHistoryHandler_FiltersNewestFirst(t *testing.T) {
	handler := NewExportHistoryHandler(seededTracker(t))

	records, err := handler.Query(context.Background(), ExportHistory{
		Filter: export.ProgressFilter{State: export.StateCompleted},
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 2 || records[0].ID != "exp-2" || records[1].ID != "exp-1" {
		t.Fatalf("unexpected records %+v", records)
	}

	records, err = handler.Query(context.Background(), ExportHistory{Filter: export.ProgressFilter{Limit: 1}})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(records) != 1 || records[0].ID != "exp-3" {
		t.Fatalf("expected newest record only, got %+v", records)
	}
}

func TestExportHistory_Validate(t *testing.T) {
	since := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		filter export.ProgressFilter
		code   string
	}{
		{name: "state", filter: export.ProgressFilter{State: "queued"}, code: "STATE_INVALID"},
		{name: "limit", filter: export.ProgressFilter{Limit: -1}, code: "LIMIT_INVALID"},
		{name: "range", filter: export.ProgressFilter{Since: since, Until: since.Add(-time.Hour)}, code: "RANGE_INVALID"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ExportHistory{Filter: tc.filter}.Validate()
			var ge *errors.Error
			if !stderrors.As(err, &ge) || ge.TextCode != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestExportHistoryHandler_RequiresTracker(t *testing.T) {
	handler := NewExportHistoryHandler(nil)
	_, err := handler.Query(context.Background(), ExportHistory{})
	var ge *errors.Error
	if !stderrors.As(err, &ge) || ge.TextCode != "TRACKER_REQUIRED" {
		t.Fatalf("expected TRACKER_REQUIRED, got %v", err)
	}
}

func TestFormatsHandler_ListsSorted(t *testing.T) {
	runner := export.NewRunner()
	handler := NewFormatsHandler(runner.Renderers)

	formats, err := handler.Query(context.Background(), Formats{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	want := []export.Format{export.FormatCSV, export.FormatJSON, export.FormatNDJSON, export.FormatXLSX}
	if len(formats) != len(want) {
		t.Fatalf("expected %v, got %v", want, formats)
	}
	for i := range want {
		if formats[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, formats)
		}
	}
}

func TestExportHistory_DispatchQuery(t *testing.T) {
	handler := NewExportHistoryHandler(seededTracker(t))
	sub := dispatcher.SubscribeQuery(handler)
	defer sub.Unsubscribe()

	records, err := dispatcher.Query[ExportHistory, []export.ExportRecord](context.Background(), ExportHistory{
		Filter: export.ProgressFilter{State: export.StateFailed},
	})
	if err != nil {
		t.Fatalf("dispatch query: %v", err)
	}
	if len(records) != 1 || records[0].ID != "exp-3" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestDispatchQuery_KeepsHandlerTextCode(t *testing.T) {
	sub := dispatcher.SubscribeQuery(NewExportHistoryHandler(nil))
	defer sub.Unsubscribe()

	_, err := dispatcher.Query[ExportHistory, []export.ExportRecord](context.Background(), ExportHistory{})
	if err == nil {
		t.Fatalf("expected error without tracker")
	}
	if got := export.OriginTextCode(err); got != "TRACKER_REQUIRED" {
		t.Fatalf("expected TRACKER_REQUIRED, got %q (%v)", got, err)
	}
}

func TestDispatchQuery_KeepsValidationTextCode(t *testing.T) {
	sub := dispatcher.SubscribeQuery(NewExportHistoryHandler(seededTracker(t)))
	defer sub.Unsubscribe()

	_, err := dispatcher.Query[ExportHistory, []export.ExportRecord](context.Background(), ExportHistory{
		Filter: export.ProgressFilter{State: "queued"},
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if got := export.OriginTextCode(err); got != "STATE_INVALID" {
		t.Fatalf("expected STATE_INVALID, got %q (%v)", got, err)
	}
}
