package query

import (
	"context"

	"github.com/goliatone/go-bookshelf/export"
	"github.com/goliatone/go-errors"
)

// ExportStatusHandler returns a single export record.
type ExportStatusHandler struct {
	Tracker export.ProgressTracker
}

func NewExportStatusHandler(tracker export.ProgressTracker) *ExportStatusHandler {
	return &ExportStatusHandler{Tracker: tracker}
}

func (h *ExportStatusHandler) Query(ctx context.Context, msg ExportStatus) (export.ExportRecord, error) {
	if h == nil || h.Tracker == nil {
		return export.ExportRecord{}, export.KeepTextCode(errors.New("export history is not configured", errors.CategoryInternal).
			WithTextCode("TRACKER_REQUIRED"))
	}
	if err := msg.Validate(); err != nil {
		return export.ExportRecord{}, err
	}
	return h.Tracker.Status(ctx, msg.ExportID)
}

// ExportHistoryHandler returns export history.
type ExportHistoryHandler struct {
	Tracker export.ProgressTracker
}

func NewExportHistoryHandler(tracker export.ProgressTracker) *ExportHistoryHandler {
	return &ExportHistoryHandler{Tracker: tracker}
}

func (h *ExportHistoryHandler) Query(ctx context.Context, msg ExportHistory) ([]export.ExportRecord, error) {
	if h == nil || h.Tracker == nil {
		return nil, export.KeepTextCode(errors.New("export history is not configured", errors.CategoryInternal).
			WithTextCode("TRACKER_REQUIRED"))
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return h.Tracker.List(ctx, msg.Filter)
}

// FormatsHandler lists registered output formats.
type FormatsHandler struct {
	Renderers *export.RendererRegistry
}

func NewFormatsHandler(renderers *export.RendererRegistry) *FormatsHandler {
	return &FormatsHandler{Renderers: renderers}
}

func (h *FormatsHandler) Query(ctx context.Context, msg Formats) ([]export.Format, error) {
	_ = ctx
	_ = msg
	if h == nil || h.Renderers == nil {
		return nil, export.KeepTextCode(errors.New("renderer registry is required", errors.CategoryInternal).
			WithTextCode("RENDERERS_REQUIRED"))
	}
	return h.Renderers.Formats(), nil
}
