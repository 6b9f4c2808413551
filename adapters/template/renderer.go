package exporttemplate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-bookshelf/export"
)

var reportTemplate = pongo2.Must(pongo2.FromString(ReportTemplate))

// Renderer renders the HTML book report.
type Renderer struct {
	// Template overrides the built-in report. Nil uses ReportTemplate.
	Template   *pongo2.Template
	// MaxEntries caps buffered entries when RenderOptions.Template.MaxEntries
	// is unset. Zero or negative means unbounded.
	MaxEntries int
}

// Render collects entries in memory, then executes the report template once.
// Errors from the entry sequence are returned unchanged.
func (r Renderer) Render(ctx context.Context, entries export.EntryIterator, w io.Writer, opts export.RenderOptions) (export.RenderStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	maxEntries := opts.Template.MaxEntries
	if maxEntries <= 0 {
		maxEntries = r.MaxEntries
	}

	var items []pongo2.Context
	for {
		if err := ctx.Err(); err != nil {
			return export.RenderStats{}, err
		}

		entry, err := entries.Next(ctx)
		if err != nil {
			if err == io.EOF {
				break
			}
			return export.RenderStats{}, err
		}
		if maxEntries > 0 && len(items) >= maxEntries {
			return export.RenderStats{}, export.NewError(export.KindValidation,
				fmt.Sprintf("report renderer max entries (%d) exceeded", maxEntries), nil)
		}
		items = append(items, entryContext(entry))
	}

	tpl := r.Template
	if tpl == nil {
		tpl = reportTemplate
	}

	cw := &export.CountingWriter{W: w}
	if err := execute(tpl, pongo2.Context{"entries": items}, cw); err != nil {
		return export.RenderStats{}, err
	}

	return export.RenderStats{
		Rows:  int64(len(items)),
		Bytes: cw.Count,
	}, nil
}

// RenderString renders entries to a string with the built-in report.
func RenderString(ctx context.Context, entries ...export.Entry) (string, error) {
	var buf strings.Builder
	if _, err := (Renderer{}).Render(ctx, export.NewSliceIterator(entries...), &buf, export.RenderOptions{}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func execute(tpl *pongo2.Template, data pongo2.Context, w io.Writer) error {
	err := tpl.ExecuteWriter(data, w)
	if err == nil {
		return nil
	}
	var exportErr *export.ExportError
	if errors.As(err, &exportErr) {
		return err
	}
	return export.NewError(export.KindRender, "report template failed", err)
}

func entryContext(entry export.Entry) pongo2.Context {
	return pongo2.Context{
		"inventory_id":   entry.InventoryID,
		"title":          entry.Title,
		"author":         entry.Author,
		"mfg_place":      entry.MfgPlace,
		"publisher":      entry.Publisher,
		"year_published": entry.YearPublished,
		"isbn":           entry.ISBN,
		"description":    entry.Description,
	}
}
