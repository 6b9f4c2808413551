package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	excelMaxRows     = 1048576
	defaultSheetName = "Books"
)

var xlsxColumnWidths = []float64{12, 40, 28, 20, 28, 10, 18, 60}

// XLSXRenderer renders entries into an XLSX workbook.
type XLSXRenderer struct{}

// Render streams entries into a single sheet with a bold header row.
func (r XLSXRenderer) Render(ctx context.Context, entries EntryIterator, w io.Writer, opts RenderOptions) (RenderStats, error) {
	file := excelize.NewFile()
	defer func() {
		_ = file.Close()
	}()

	sheetName := strings.TrimSpace(opts.XLSX.SheetName)
	if sheetName == "" {
		sheetName = defaultSheetName
	}
	defaultSheet := file.GetSheetName(0)
	if defaultSheet != sheetName {
		file.SetSheetName(defaultSheet, sheetName)
	}

	stream, err := file.NewStreamWriter(sheetName)
	if err != nil {
		return RenderStats{}, err
	}

	headerID, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return RenderStats{}, err
	}

	for i, width := range xlsxColumnWidths {
		if err := stream.SetColWidth(i+1, i+1, width); err != nil {
			return RenderStats{}, err
		}
	}

	headers := make([]interface{}, len(EntryFields))
	for i, name := range EntryFields {
		headers[i] = excelize.Cell{StyleID: headerID, Value: name}
	}
	if err := stream.SetRow("A1", headers); err != nil {
		return RenderStats{}, err
	}

	rowIndex := 2
	rows, err := eachEntry(ctx, entries, func(entry Entry) error {
		if rowIndex > excelMaxRows {
			return NewError(KindValidation, "xlsx row limit exceeded", nil)
		}
		if err := stream.SetRow(fmt.Sprintf("A%d", rowIndex), xlsxCells(entry)); err != nil {
			return err
		}
		rowIndex++
		return nil
	})
	if err != nil {
		return RenderStats{Rows: rows}, err
	}

	if err := stream.Flush(); err != nil {
		return RenderStats{Rows: rows}, err
	}

	cw := &CountingWriter{W: w}
	if _, err := file.WriteTo(cw); err != nil {
		return RenderStats{Rows: rows, Bytes: cw.Count}, err
	}
	return RenderStats{Rows: rows, Bytes: cw.Count}, nil
}

func xlsxCells(entry Entry) []interface{} {
	var year interface{} = entry.YearPublished
	if parsed, err := strconv.Atoi(strings.TrimSpace(entry.YearPublished)); err == nil {
		year = parsed
	}
	return []interface{}{
		entry.InventoryID,
		entry.Title,
		entry.Author,
		entry.MfgPlace,
		entry.Publisher,
		year,
		entry.ISBN,
		entry.Description,
	}
}
