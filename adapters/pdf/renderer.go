package exportpdf

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	exporttemplate "github.com/goliatone/go-bookshelf/adapters/template"
	"github.com/goliatone/go-bookshelf/export"
)

// RenderRequest contains HTML input and render options for PDF engines.
type RenderRequest struct {
	HTML    []byte
	Options export.RenderOptions
}

// Engine renders HTML content into PDF bytes.
type Engine interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// EngineFunc adapts a function to an Engine.
type EngineFunc func(ctx context.Context, req RenderRequest) ([]byte, error)

func (f EngineFunc) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if f == nil {
		return nil, errors.New("pdf engine func is nil")
	}
	return f(ctx, req)
}

// Renderer turns the HTML book report into a PDF.
type Renderer struct {
	Enabled bool
	// HTMLRenderer produces the document to convert. Nil uses the book report.
	HTMLRenderer export.Renderer
	Engine       Engine
	// MaxHTMLBytes caps the report HTML buffered for the engine. Zero or
	// negative means unbounded.
	MaxHTMLBytes int64
}

// Render renders the report HTML and converts it with the configured engine.
func (r Renderer) Render(ctx context.Context, entries export.EntryIterator, w io.Writer, opts export.RenderOptions) (export.RenderStats, error) {
	if !r.Enabled {
		return export.RenderStats{}, export.NewError(export.KindNotImpl, "pdf renderer is disabled", nil)
	}
	if r.Engine == nil {
		return export.RenderStats{}, export.NewError(export.KindValidation, "pdf renderer requires engine", nil)
	}
	htmlRenderer := r.HTMLRenderer
	if htmlRenderer == nil {
		htmlRenderer = exporttemplate.Renderer{}
	}

	buffer := export.NewLimitedBuffer(r.MaxHTMLBytes)
	htmlStats, err := htmlRenderer.Render(ctx, entries, buffer, opts)
	if err != nil {
		return export.RenderStats{}, err
	}

	pdf, err := r.Engine.Render(ctx, RenderRequest{
		HTML:    buffer.Bytes(),
		Options: opts,
	})
	if err != nil {
		return export.RenderStats{}, err
	}

	cw := &export.CountingWriter{W: w}
	if len(pdf) > 0 {
		if _, err := cw.Write(pdf); err != nil {
			return export.RenderStats{Rows: htmlStats.Rows, Bytes: cw.Count}, err
		}
	}

	return export.RenderStats{Rows: htmlStats.Rows, Bytes: cw.Count}, nil
}

// WKHTMLTOPDFEngine invokes wkhtmltopdf for HTML-to-PDF conversion.
type WKHTMLTOPDFEngine struct {
	Command string
	Args    []string
	Env     []string
	Timeout time.Duration
}

// Render executes wkhtmltopdf using stdin/stdout for HTML/PDF.
func (e WKHTMLTOPDFEngine) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	cmdPath := strings.TrimSpace(e.Command)
	if cmdPath == "" {
		cmdPath = "wkhtmltopdf"
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmdCtx := ctx
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := append([]string{"--quiet"}, wkhtmltopdfArgs(req.Options.PDF)...)
	args = append(args, e.Args...)
	args = append(args, "-", "-")
	cmd := exec.CommandContext(cmdCtx, cmdPath, args...)
	if len(e.Env) > 0 {
		cmd.Env = append(os.Environ(), e.Env...)
	}
	cmd.Stdin = bytes.NewReader(req.HTML)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = "wkhtmltopdf failed"
		}
		return nil, export.NewError(export.KindRender, message, err)
	}
	return stdout.Bytes(), nil
}

// Close is a no-op; each render runs its own process.
func (e WKHTMLTOPDFEngine) Close() error {
	return nil
}

func wkhtmltopdfArgs(opts export.PDFOptions) []string {
	var args []string
	if size := strings.TrimSpace(opts.PageSize); size != "" {
		args = append(args, "--page-size", size)
	}
	if opts.Landscape != nil && *opts.Landscape {
		args = append(args, "--orientation", "Landscape")
	}
	if opts.PrintBackground != nil && !*opts.PrintBackground {
		args = append(args, "--no-background")
	}
	if opts.Scale > 0 && opts.Scale != defaultPDFScale {
		args = append(args, "--zoom", trimFloat(opts.Scale))
	}
	margins := []struct {
		flag  string
		value string
	}{
		{"--margin-top", opts.MarginTop},
		{"--margin-bottom", opts.MarginBottom},
		{"--margin-left", opts.MarginLeft},
		{"--margin-right", opts.MarginRight},
	}
	for _, margin := range margins {
		if value := strings.TrimSpace(margin.value); value != "" {
			args = append(args, margin.flag, value)
		}
	}
	return args
}
