package exporttemplate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-bookshelf/export"
)

type failingIterator struct {
	entries []export.Entry
	err     error
	idx     int
}

func (it *failingIterator) Next(ctx context.Context) (export.Entry, error) {
	_ = ctx
	if it.idx >= len(it.entries) {
		return export.Entry{}, it.err
	}
	entry := it.entries[it.idx]
	it.idx++
	return entry, nil
}

func (it *failingIterator) Close() error { return nil }

func render(t *testing.T, entries ...export.Entry) string {
	t.Helper()
	out, err := RenderString(context.Background(), entries...)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	return out
}

func paragraphs(doc string) []string {
	parts := strings.Split(doc, "<p>")
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}

func TestRenderer_Skeleton(t *testing.T) {
	doc := render(t)
	if !strings.Contains(doc, "<TITLE>Book Report</TITLE>") {
		t.Fatalf("expected report title, got %q", doc)
	}
	if !strings.Contains(doc, `<BODY BGCOLOR="#FFFFFF" TEXT="#000000" LINK="#0000FF">`) {
		t.Fatalf("expected body attributes, got %q", doc)
	}
	if !strings.HasPrefix(doc, "<HTML>") || !strings.HasSuffix(strings.TrimSpace(doc), "</HTML>") {
		t.Fatalf("expected HTML skeleton, got %q", doc)
	}
	if len(paragraphs(doc)) != 0 {
		t.Fatalf("expected no entry blocks")
	}
}

func TestRenderer_OneBlockPerEntryInOrder(t *testing.T) {
	doc := render(t,
		export.Entry{InventoryID: 3, Title: "C", Author: "Z", Publisher: "Acme", YearPublished: "1990"},
		export.Entry{InventoryID: 1, Title: "A", Author: "X", Publisher: "Acme", YearPublished: "1991"},
		export.Entry{InventoryID: 2, Title: "B", Author: "Y", Publisher: "Acme", YearPublished: "1992"},
	)

	blocks := paragraphs(doc)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	for i, prefix := range []string{`<b>[3] Z "C"; </b>`, `<b>[1] X "A"; </b>`, `<b>[2] Y "B"; </b>`} {
		if !strings.Contains(blocks[i], prefix) {
			t.Fatalf("block %d: expected %q, got %q", i, prefix, blocks[i])
		}
	}
}

func TestRenderer_PublisherLine(t *testing.T) {
	withoutPlace := render(t, export.Entry{InventoryID: 1, Title: "T", Author: "A", Publisher: "Acme", YearPublished: "1990"})
	if !strings.Contains(withoutPlace, "Acme, 1990.") {
		t.Fatalf("expected publisher line, got %q", withoutPlace)
	}
	if strings.Contains(withoutPlace, "1990 .") || strings.Contains(withoutPlace, ": Acme") {
		t.Fatalf("unexpected publisher formatting %q", withoutPlace)
	}

	withPlace := render(t, export.Entry{InventoryID: 1, Title: "T", Author: "A", MfgPlace: "Springfield", Publisher: "Acme", YearPublished: "1990"})
	if !strings.Contains(withPlace, "Springfield: Acme, 1990.") {
		t.Fatalf("expected place-qualified publisher line, got %q", withPlace)
	}
}

func TestRenderer_ISBNLine(t *testing.T) {
	without := render(t, export.Entry{InventoryID: 1, Title: "T", Author: "A", Publisher: "Acme", YearPublished: "1990"})
	if strings.Contains(without, "ISBN:") {
		t.Fatalf("expected no ISBN line, got %q", without)
	}

	with := render(t, export.Entry{InventoryID: 1, Title: "T", Author: "A", Publisher: "Acme", YearPublished: "1990", ISBN: "0-123-45"})
	if !strings.Contains(with, "ISBN: 0-123-45") {
		t.Fatalf("expected ISBN line, got %q", with)
	}
}

func TestRenderer_FieldsAreNotEscaped(t *testing.T) {
	doc := render(t, export.Entry{
		InventoryID:   9,
		Title:         `Tom & Jerry <i>Annual</i>`,
		Author:        "O'Brien",
		Publisher:     "Acme",
		YearPublished: "1990",
		Description:   `signed, see <a href="x">notes</a>`,
	})
	if !strings.Contains(doc, `<b>[9] O'Brien "Tom & Jerry <i>Annual</i>"; </b>`) {
		t.Fatalf("expected verbatim heading, got %q", doc)
	}
	if !strings.Contains(doc, `signed, see <a href="x">notes</a>`) {
		t.Fatalf("expected verbatim description, got %q", doc)
	}
}

func TestRenderer_Idempotent(t *testing.T) {
	entries := []export.Entry{
		{InventoryID: 1, Title: "Dune", Author: "Frank Herbert", MfgPlace: "Philadelphia", Publisher: "Chilton", YearPublished: "1965"},
		{InventoryID: 2, Title: "Neuromancer", Author: "William Gibson", Publisher: "Ace", YearPublished: "1984"},
	}
	if render(t, entries...) != render(t, entries...) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestRenderer_Stats(t *testing.T) {
	buf := &bytes.Buffer{}
	stats, err := Renderer{}.Render(context.Background(), export.NewSliceIterator(
		export.Entry{InventoryID: 1, Title: "T", Author: "A", Publisher: "Acme", YearPublished: "1990"},
	), buf, export.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if stats.Rows != 1 || stats.Bytes != int64(buf.Len()) {
		t.Fatalf("unexpected stats %+v for %d bytes", stats, buf.Len())
	}
}

func TestRenderer_MaxEntries(t *testing.T) {
	entries := export.NewSliceIterator(
		export.Entry{InventoryID: 1},
		export.Entry{InventoryID: 2},
	)
	buf := &bytes.Buffer{}
	_, err := Renderer{}.Render(context.Background(), entries, buf, export.RenderOptions{
		Template: export.TemplateOptions{MaxEntries: 1},
	})
	if !export.IsKind(err, export.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written")
	}
}

func TestRenderer_RendererMaxEntries(t *testing.T) {
	entries := export.NewSliceIterator(
		export.Entry{InventoryID: 1},
		export.Entry{InventoryID: 2},
		export.Entry{InventoryID: 3},
	)
	_, err := Renderer{MaxEntries: 2}.Render(context.Background(), entries, &bytes.Buffer{}, export.RenderOptions{})
	if !export.IsKind(err, export.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRenderer_UnboundedByDefault(t *testing.T) {
	const total = 25000
	entries := make([]export.Entry, total)
	for i := range entries {
		entries[i] = export.Entry{InventoryID: int64(i + 1), Title: "T", Author: "A", Publisher: "Acme", YearPublished: "1990"}
	}
	buf := &bytes.Buffer{}
	stats, err := Renderer{}.Render(context.Background(), export.NewSliceIterator(entries...), buf, export.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if stats.Rows != total {
		t.Fatalf("expected %d rows, got %d", total, stats.Rows)
	}
	if got := strings.Count(buf.String(), "<p>"); got != total {
		t.Fatalf("expected %d blocks, got %d", total, got)
	}
	if !strings.Contains(buf.String(), `<b>[25000] A "T"; </b>`) {
		t.Fatalf("expected last entry in report")
	}
}

func TestRenderer_PropagatesIteratorError(t *testing.T) {
	sourceErr := export.NewError(export.KindStoreUnavailable, "listing read failed", errors.New("disk I/O error"))
	buf := &bytes.Buffer{}
	_, err := Renderer{}.Render(context.Background(), &failingIterator{
		entries: []export.Entry{{InventoryID: 1}},
		err:     sourceErr,
	}, buf, export.RenderOptions{})
	if err != sourceErr {
		t.Fatalf("expected iterator error unchanged, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written")
	}
}

func TestExecute_TemplateFailureIsRenderError(t *testing.T) {
	tpl := pongo2.Must(pongo2.FromString("before {{ fail() }} after"))
	buf := &bytes.Buffer{}
	err := execute(tpl, pongo2.Context{
		"fail": func() (string, error) { return "", errors.New("boom") },
	}, buf)
	if !export.IsKind(err, export.KindRender) {
		t.Fatalf("expected render error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
}

func TestRenderer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Renderer{}.Render(ctx, export.NewSliceIterator(export.Entry{InventoryID: 1}), io.Discard, export.RenderOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
