package command

import (
	"strings"

	"github.com/goliatone/go-bookshelf/export"
	"github.com/goliatone/go-errors"
)

// ExportReport exports the marked listings of a catalog store to a file.
type ExportReport struct {
	StorePath  string
	OutputPath string
	Format     export.Format
	Options    export.RenderOptions
	Result     *export.ExportResult
}

func (ExportReport) Type() string { return "bookshelf:export" }

func (msg ExportReport) Validate() error {
	if strings.TrimSpace(msg.StorePath) == "" {
		return export.KeepTextCode(errors.New("store path is required", errors.CategoryValidation).
			WithTextCode("STORE_PATH_REQUIRED"))
	}
	if strings.TrimSpace(msg.OutputPath) == "" {
		return export.KeepTextCode(errors.New("output path is required", errors.CategoryValidation).
			WithTextCode("OUTPUT_PATH_REQUIRED"))
	}
	return nil
}

// Request converts the message into a runner request.
func (msg ExportReport) Request() export.ExportRequest {
	return export.ExportRequest{
		StorePath:     msg.StorePath,
		OutputPath:    msg.OutputPath,
		Format:        msg.Format,
		RenderOptions: msg.Options,
	}
}

// BatchExport runs every export listed in a JSON batch file.
type BatchExport struct {
	From   string
	Result *int
}

func (BatchExport) Type() string { return "bookshelf:export:batch" }

func (msg BatchExport) Validate() error {
	if strings.TrimSpace(msg.From) == "" {
		return export.KeepTextCode(errors.New("batch file is required", errors.CategoryValidation).
			WithTextCode("BATCH_FILE_REQUIRED"))
	}
	return nil
}
