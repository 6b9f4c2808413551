package query

import (
	"strings"

	"github.com/goliatone/go-bookshelf/export"
	"github.com/goliatone/go-errors"
)

// ExportStatus requests a single export record.
type ExportStatus struct {
	ExportID string
}

func (ExportStatus) Type() string { return "bookshelf:export:status" }

func (msg ExportStatus) Validate() error {
	if strings.TrimSpace(msg.ExportID) == "" {
		return export.KeepTextCode(errors.New("export ID is required", errors.CategoryValidation).
			WithTextCode("EXPORT_ID_REQUIRED"))
	}
	return nil
}

// ExportHistory requests recorded exports, newest first.
type ExportHistory struct {
	Filter export.ProgressFilter
}

func (ExportHistory) Type() string { return "bookshelf:export:history" }

func (msg ExportHistory) Validate() error {
	switch msg.Filter.State {
	case "", export.StateRunning, export.StateCompleted, export.StateFailed:
	default:
		return export.KeepTextCode(errors.New("unknown export state: "+string(msg.Filter.State), errors.CategoryValidation).
			WithTextCode("STATE_INVALID"))
	}
	if msg.Filter.Limit < 0 {
		return export.KeepTextCode(errors.New("limit must not be negative", errors.CategoryValidation).
			WithTextCode("LIMIT_INVALID"))
	}
	if !msg.Filter.Since.IsZero() && !msg.Filter.Until.IsZero() && msg.Filter.Until.Before(msg.Filter.Since) {
		return export.KeepTextCode(errors.New("until must not precede since", errors.CategoryValidation).
			WithTextCode("RANGE_INVALID"))
	}
	return nil
}

// Formats requests the output formats the runner can render.
type Formats struct{}

func (Formats) Type() string { return "bookshelf:formats" }

func (Formats) Validate() error { return nil }
