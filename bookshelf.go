// Package bookshelf wires the catalog exporter: the SQLite listing source,
// the book report and data renderers, the filesystem output store and the
// optional export history.
//
//	result, err := bookshelf.Export(ctx, "Bookpedia.db", "books.html")
package bookshelf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	exportpdf "github.com/goliatone/go-bookshelf/adapters/pdf"
	exportsqlite "github.com/goliatone/go-bookshelf/adapters/sqlite"
	storefs "github.com/goliatone/go-bookshelf/adapters/store/fs"
	exporttemplate "github.com/goliatone/go-bookshelf/adapters/template"
	trackerbun "github.com/goliatone/go-bookshelf/adapters/tracker/bun"
	"github.com/goliatone/go-bookshelf/config"
	"github.com/goliatone/go-bookshelf/export"
)

// PDF engine names accepted by config.Config.PDFEngine.
const (
	EngineChromium    = "chromium"
	EngineWKHTMLTOPDF = "wkhtmltopdf"
)

// NewRunner builds a runner from cfg. The returned cleanup func releases the
// history database and PDF engine; callers must call it once done.
func NewRunner(cfg config.Config, logger export.Logger) (*export.Runner, func() error, error) {
	if logger == nil {
		logger = export.NopLogger{}
	}

	runner := export.NewRunner()
	runner.Logger = logger
	runner.MaxBytes = cfg.MaxBytes
	runner.Output = &storefs.Writer{Root: cfg.OutputRoot, Mode: cfg.FileMode}

	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	abort := func(err error) (*export.Runner, func() error, error) {
		_ = cleanup()
		return nil, nil, err
	}

	source := exportsqlite.Source{
		Table:  cfg.Table,
		Marker: cfg.Marker,
		Debug:  cfg.DebugSQL,
	}
	if cfg.DebugSQL {
		source.DebugWriter = os.Stderr
	}
	if err := runner.Sources.Register(export.DefaultSourceKey, exportsqlite.SourceFactory(source)); err != nil {
		return abort(err)
	}
	report := exporttemplate.Renderer{MaxEntries: cfg.ReportMaxEntries}
	if err := runner.Renderers.Register(export.FormatHTML, report); err != nil {
		return abort(err)
	}

	if cfg.PDFEnabled {
		engine, closeEngine, err := newPDFEngine(cfg)
		if err != nil {
			return abort(err)
		}
		closers = append(closers, closeEngine)
		if err := runner.Renderers.Register(export.FormatPDF, exportpdf.Renderer{
			Enabled:      true,
			HTMLRenderer: report,
			Engine:       engine,
			MaxHTMLBytes: cfg.PDFMaxHTMLBytes,
		}); err != nil {
			return abort(err)
		}
	}

	if cfg.SnapshotEnabled {
		if err := runner.Renderers.Register(export.FormatSQLite, exportsqlite.Renderer{
			Enabled:   true,
			TableName: cfg.SnapshotTable,
		}); err != nil {
			return abort(err)
		}
	}

	if history := strings.TrimSpace(cfg.HistoryDB); history != "" {
		tracker, err := trackerbun.OpenSQLite(context.Background(), history)
		if err != nil {
			return abort(err)
		}
		closers = append(closers, tracker.Close)
		runner.Tracker = tracker
	}

	logger.Debugf("bookshelf runner ready: formats=%v history=%t", runner.Renderers.Formats(), runner.Tracker != nil)
	return runner, cleanup, nil
}

// Export writes the HTML book report for the catalog at storeLocation to
// outputPath using config.Defaults.
func Export(ctx context.Context, storeLocation, outputPath string) (export.ExportResult, error) {
	runner, cleanup, err := NewRunner(config.Defaults(), nil)
	if err != nil {
		return export.ExportResult{}, err
	}
	defer func() {
		_ = cleanup()
	}()

	return runner.Run(ctx, export.ExportRequest{
		StorePath:  storeLocation,
		OutputPath: outputPath,
		Format:     export.FormatHTML,
	})
}

func newPDFEngine(cfg config.Config) (exportpdf.Engine, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.PDFEngine)) {
	case "", EngineChromium:
		engine := &exportpdf.ChromiumEngine{
			BrowserPath: cfg.PDFBrowserPath,
			Headless:    true,
			Timeout:     cfg.PDFTimeout,
			DefaultPDF:  export.PDFOptions{PageSize: cfg.PDFPageSize},
		}
		return engine, engine.Close, nil
	case EngineWKHTMLTOPDF:
		engine := exportpdf.WKHTMLTOPDFEngine{
			Command: cfg.PDFCommand,
			Timeout: cfg.PDFTimeout,
		}
		if cfg.PDFPageSize != "" {
			engine.Args = []string{"--page-size", cfg.PDFPageSize}
		}
		return engine, engine.Close, nil
	default:
		return nil, nil, export.NewError(export.KindValidation, fmt.Sprintf("unknown pdf engine %q", cfg.PDFEngine), nil)
	}
}
