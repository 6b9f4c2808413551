package command

import (
	"context"

	"github.com/goliatone/go-bookshelf/export"
	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-errors"
)

// Exporter runs a single export. *export.Runner satisfies it.
type Exporter interface {
	Run(ctx context.Context, req export.ExportRequest) (export.ExportResult, error)
}

// ExporterFunc adapts a function to an Exporter.
type ExporterFunc func(ctx context.Context, req export.ExportRequest) (export.ExportResult, error)

func (f ExporterFunc) Run(ctx context.Context, req export.ExportRequest) (export.ExportResult, error) {
	if f == nil {
		return export.ExportResult{}, export.KeepTextCode(errors.New("exporter is required", errors.CategoryInternal).
			WithTextCode("EXPORTER_NIL"))
	}
	return f(ctx, req)
}

// ExportReportHandler handles export commands.
type ExportReportHandler struct {
	Exporter Exporter
}

func NewExportReportHandler(exporter Exporter) *ExportReportHandler {
	return &ExportReportHandler{Exporter: exporter}
}

func (h *ExportReportHandler) Execute(ctx context.Context, msg ExportReport) error {
	if h == nil || h.Exporter == nil {
		return export.KeepTextCode(errors.New("exporter is required", errors.CategoryInternal).
			WithTextCode("EXPORTER_REQUIRED"))
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	result, err := h.Exporter.Run(ctx, msg.Request())
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = result
	}
	if res := gcmd.ResultFromContext[export.ExportResult](ctx); res != nil {
		res.Store(result)
	}
	return nil
}

// BatchExportHandler runs batch export commands.
type BatchExportHandler struct {
	Batch *BatchCommand
}

func NewBatchExportHandler(batch *BatchCommand) *BatchExportHandler {
	return &BatchExportHandler{Batch: batch}
}

func (h *BatchExportHandler) Execute(ctx context.Context, msg BatchExport) error {
	if h == nil || h.Batch == nil {
		return export.KeepTextCode(errors.New("batch command is required", errors.CategoryInternal).
			WithTextCode("BATCH_CMD_NIL"))
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	count, err := h.Batch.run(ctx, msg.From)
	if msg.Result != nil {
		*msg.Result = count
	}
	if res := gcmd.ResultFromContext[int](ctx); res != nil {
		res.Store(count)
	}
	return err
}
