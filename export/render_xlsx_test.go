package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXRenderer_WritesEntries(t *testing.T) {
	buf := &bytes.Buffer{}
	stats, err := XLSXRenderer{}.Render(context.Background(), NewSliceIterator(sampleEntries()...), buf, RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if stats.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", stats.Rows)
	}
	if stats.Bytes == 0 {
		t.Fatalf("expected non-zero bytes")
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer func() {
		_ = file.Close()
	}()

	sheet := file.GetSheetName(0)
	if sheet != defaultSheetName {
		t.Fatalf("expected sheet %q, got %q", defaultSheetName, sheet)
	}
	rows, err := file.GetRows(sheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 data rows, got %d", len(rows))
	}
	if rows[0][0] != "inventory_id" {
		t.Fatalf("expected header row, got %v", rows[0])
	}
	if rows[1][1] != "Dune" || rows[1][5] != "1965" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
}

func TestXLSXRenderer_CustomSheetName(t *testing.T) {
	buf := &bytes.Buffer{}
	_, err := XLSXRenderer{}.Render(context.Background(), NewSliceIterator(), buf, RenderOptions{
		XLSX: XLSXOptions{SheetName: "Shelf"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	file, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer func() {
		_ = file.Close()
	}()
	if got := file.GetSheetName(0); got != "Shelf" {
		t.Fatalf("expected custom sheet name, got %q", got)
	}
}
