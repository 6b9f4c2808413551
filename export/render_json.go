package export

import (
	"context"
	"encoding/json"
	"io"
)

// JSONRenderer renders entries as a JSON array or NDJSON.
type JSONRenderer struct {
	Mode JSONMode
}

// Render streams entries as JSON. Entry field names are the snake_case keys.
func (r JSONRenderer) Render(ctx context.Context, entries EntryIterator, w io.Writer, opts RenderOptions) (RenderStats, error) {
	cw := &CountingWriter{W: w}

	mode := opts.JSON.Mode
	if mode == "" {
		mode = r.Mode
	}
	if mode == "" {
		mode = JSONModeArray
	}

	if mode == JSONModeLines {
		encoder := json.NewEncoder(cw)
		rows, err := eachEntry(ctx, entries, func(entry Entry) error {
			return encoder.Encode(entry)
		})
		if err != nil {
			return RenderStats{Rows: rows}, err
		}
		return RenderStats{Rows: rows, Bytes: cw.Count}, nil
	}

	if _, err := cw.Write([]byte("[")); err != nil {
		return RenderStats{}, err
	}

	first := true
	rows, err := eachEntry(ctx, entries, func(entry Entry) error {
		payload, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if !first {
			if _, err := cw.Write([]byte(",")); err != nil {
				return err
			}
		}
		first = false
		_, err = cw.Write(payload)
		return err
	})
	if err != nil {
		return RenderStats{Rows: rows}, err
	}

	if _, err := cw.Write([]byte("]")); err != nil {
		return RenderStats{Rows: rows}, err
	}

	return RenderStats{Rows: rows, Bytes: cw.Count}, nil
}
