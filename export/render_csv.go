package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
)

// CSVRenderer renders entries as CSV with a header row.
type CSVRenderer struct{}

// Render streams entries as CSV.
func (r CSVRenderer) Render(ctx context.Context, entries EntryIterator, w io.Writer, opts RenderOptions) (RenderStats, error) {
	cw := &CountingWriter{W: w}
	writer := csv.NewWriter(cw)
	if opts.CSV.Delimiter != 0 {
		writer.Comma = opts.CSV.Delimiter
	}

	if err := writer.Write(EntryFields); err != nil {
		return RenderStats{}, err
	}

	rows, err := eachEntry(ctx, entries, func(entry Entry) error {
		return writer.Write([]string{
			strconv.FormatInt(entry.InventoryID, 10),
			entry.Title,
			entry.Author,
			entry.MfgPlace,
			entry.Publisher,
			entry.YearPublished,
			entry.ISBN,
			entry.Description,
		})
	})
	if err != nil {
		return RenderStats{Rows: rows}, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return RenderStats{Rows: rows}, err
	}

	return RenderStats{Rows: rows, Bytes: cw.Count}, nil
}
