package exportsqlite

import (
	"context"
	"database/sql"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-bookshelf/export"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	defaultTableName = "books"
	insertBatchSize  = 500
)

type bookRow struct {
	bun.BaseModel `bun:"table:books"`

	InventoryID   int64  `bun:"inventory_id,pk"`
	Title         string `bun:"title,notnull"`
	Author        string `bun:"author,notnull"`
	MfgPlace      string `bun:"mfg_place,notnull"`
	Publisher     string `bun:"publisher,notnull"`
	YearPublished string `bun:"year_published,notnull"`
	ISBN          string `bun:"isbn,notnull"`
	Description   string `bun:"description,notnull"`
}

func newBookRow(entry export.Entry) bookRow {
	return bookRow{
		InventoryID:   entry.InventoryID,
		Title:         entry.Title,
		Author:        entry.Author,
		MfgPlace:      entry.MfgPlace,
		Publisher:     entry.Publisher,
		YearPublished: entry.YearPublished,
		ISBN:          entry.ISBN,
		Description:   entry.Description,
	}
}

// Renderer copies entries into a standalone SQLite database (disabled by default).
type Renderer struct {
	Enabled   bool
	TableName string
}

// Render builds the snapshot in a temp file and streams it to w.
func (r Renderer) Render(ctx context.Context, entries export.EntryIterator, w io.Writer, opts export.RenderOptions) (export.RenderStats, error) {
	if !r.Enabled {
		return export.RenderStats{}, export.NewError(export.KindNotImpl, "sqlite renderer is disabled", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tableName := strings.TrimSpace(opts.SQLite.TableName)
	if tableName == "" {
		tableName = strings.TrimSpace(r.TableName)
	}
	tableName = sanitizeIdentifier(tableName, defaultTableName)

	tempFile, err := os.CreateTemp("", "bookshelf-*.sqlite")
	if err != nil {
		return export.RenderStats{}, export.NewError(export.KindInternal, "sqlite temp file create failed", err)
	}
	path := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(path)
		return export.RenderStats{}, export.NewError(export.KindInternal, "sqlite temp file close failed", err)
	}
	defer func() {
		_ = os.Remove(path)
	}()

	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return export.RenderStats{}, export.NewError(export.KindInternal, "sqlite open failed", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	stats, err := writeBooks(ctx, db, tableName, entries)
	if err != nil {
		_ = db.Close()
		return stats, err
	}
	if err := db.Close(); err != nil {
		return stats, export.NewError(export.KindInternal, "sqlite close failed", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return stats, export.NewError(export.KindInternal, "sqlite temp file open failed", err)
	}
	defer func() {
		_ = file.Close()
	}()

	cw := &export.CountingWriter{W: w}
	if _, err := io.Copy(cw, file); err != nil {
		return export.RenderStats{Rows: stats.Rows, Bytes: cw.Count}, err
	}
	stats.Bytes = cw.Count
	return stats, nil
}

func writeBooks(ctx context.Context, db *bun.DB, tableName string, entries export.EntryIterator) (export.RenderStats, error) {
	stats := export.RenderStats{}
	table := bun.Ident(tableName)

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().
			Model((*bookRow)(nil)).
			ModelTableExpr("?", table).
			Exec(ctx); err != nil {
			return export.NewError(export.KindInternal, "sqlite create table failed", err)
		}

		batch := make([]bookRow, 0, insertBatchSize)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			if _, err := tx.NewInsert().Model(&batch).ModelTableExpr("?", table).Exec(ctx); err != nil {
				return export.NewError(export.KindInternal, "sqlite insert failed", err)
			}
			batch = batch[:0]
			return nil
		}

		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := entries.Next(ctx)
			if err != nil {
				if err == io.EOF {
					break
				}
				return err
			}
			batch = append(batch, newBookRow(entry))
			stats.Rows++
			if len(batch) == insertBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	})
	return stats, err
}

func sanitizeIdentifier(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := strings.Trim(b.String(), "_")
	if sanitized == "" {
		return fallback
	}
	if sanitized[0] >= '0' && sanitized[0] <= '9' {
		sanitized = "t_" + sanitized
	}
	return sanitized
}
