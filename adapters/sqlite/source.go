package exportsqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/goliatone/go-bookshelf/export"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

const (
	// DefaultTable is the catalog table holding inventory rows.
	DefaultTable = "Listing"
	// DefaultMarker is the privateNotes substring that marks a row for export.
	DefaultMarker = "LIST"
)

type listingColumn struct {
	source   string
	field    string
	optional bool
}

// listingColumns maps store columns onto entry fields, in projection order.
var listingColumns = []listingColumn{
	{source: "inventoryId", field: "inventory_id"},
	{source: "primaryName", field: "title"},
	{source: "primaryCreator", field: "author"},
	{source: "mfgPlace", field: "mfg_place", optional: true},
	{source: "mfgName", field: "publisher"},
	{source: "mfgYear", field: "year_published"},
	{source: "primaryIdent", field: "isbn", optional: true},
	{source: "description", field: "description", optional: true},
}

const notesColumn = "privateNotes"

// Source selects marked inventory rows from a catalog database.
type Source struct {
	Table       string
	Marker      string
	Debug       bool
	DebugWriter io.Writer
}

// SourceFactory returns a factory that hands out the configured source.
func SourceFactory(src Source) export.SourceFactory {
	return func(req export.ExportRequest) (export.EntrySource, error) {
		_ = req
		s := src
		return &s, nil
	}
}

// Open connects read-only to the store at spec.Location and starts the
// selection query. Rows are scanned as the caller advances the iterator.
func (s *Source) Open(ctx context.Context, spec export.SourceSpec) (export.EntryIterator, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	location := strings.TrimSpace(spec.Location)
	if location == "" {
		return nil, export.NewError(export.KindValidation, "store location is required", nil)
	}

	info, err := os.Stat(location)
	if err != nil {
		return nil, export.NewError(export.KindStoreUnavailable, fmt.Sprintf("store %s is not accessible", location), err)
	}
	if info.IsDir() {
		return nil, export.NewError(export.KindStoreUnavailable, fmt.Sprintf("store %s is a directory", location), nil)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, readOnlyDSN(location))
	if err != nil {
		return nil, export.NewError(export.KindStoreUnavailable, "store open failed", err)
	}
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if s.Debug {
		writer := s.DebugWriter
		if writer == nil {
			writer = os.Stderr
		}
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.WithWriter(writer),
		))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, export.NewError(export.KindStoreUnavailable, "store open failed", err)
	}

	table := s.table()
	present, err := tableColumns(ctx, db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	query, err := selectionQuery(db, table, present, s.marker())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	rows, err := query.Rows(ctx)
	if err != nil {
		_ = db.Close()
		return nil, export.NewError(export.KindStoreUnavailable, "listing query failed", err)
	}

	return &entryIterator{db: db, rows: rows}, nil
}

func (s *Source) table() string {
	if table := strings.TrimSpace(s.Table); table != "" {
		return table
	}
	return DefaultTable
}

func (s *Source) marker() string {
	if s.Marker != "" {
		return s.Marker
	}
	return DefaultMarker
}

// tableColumns returns the lower-cased column names of table. A missing table
// or a missing required column is a schema mismatch.
func tableColumns(ctx context.Context, db *bun.DB, table string) (map[string]struct{}, error) {
	var names []string
	err := db.NewRaw("SELECT name FROM pragma_table_info(?)", table).Scan(ctx, &names)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, export.NewError(export.KindStoreUnavailable, "store schema read failed", err)
	}
	if len(names) == 0 {
		return nil, export.NewError(export.KindSchemaMismatch, fmt.Sprintf("table %q not found", table), nil)
	}

	present := make(map[string]struct{}, len(names))
	for _, name := range names {
		present[strings.ToLower(name)] = struct{}{}
	}

	required := []string{notesColumn}
	for _, col := range listingColumns {
		if !col.optional {
			required = append(required, col.source)
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := present[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, export.NewError(export.KindSchemaMismatch,
			fmt.Sprintf("table %q is missing columns: %s", table, strings.Join(missing, ", ")), nil)
	}
	return present, nil
}

func selectionQuery(db *bun.DB, table string, present map[string]struct{}, marker string) (*bun.SelectQuery, error) {
	if marker == "" {
		return nil, export.NewError(export.KindValidation, "inclusion marker is required", nil)
	}

	query := db.NewSelect().TableExpr("?", bun.Ident(table))
	for _, col := range listingColumns {
		if _, ok := present[strings.ToLower(col.source)]; ok {
			query = query.ColumnExpr("? AS ?", bun.Ident(col.source), bun.Ident(col.field))
			continue
		}
		query = query.ColumnExpr("NULL AS ?", bun.Ident(col.field))
	}
	return query.
		Where("instr(?, ?) > 0", bun.Ident(notesColumn), marker).
		OrderExpr("? ASC", bun.Ident("inventoryId")), nil
}

type listingRow struct {
	InventoryID   sql.NullInt64  `bun:"inventory_id"`
	Title         sql.NullString `bun:"title"`
	Author        sql.NullString `bun:"author"`
	MfgPlace      sql.NullString `bun:"mfg_place"`
	Publisher     sql.NullString `bun:"publisher"`
	YearPublished sql.NullString `bun:"year_published"`
	ISBN          sql.NullString `bun:"isbn"`
	Description   sql.NullString `bun:"description"`
}

func (r listingRow) entry() export.Entry {
	return export.Entry{
		InventoryID:   r.InventoryID.Int64,
		Title:         r.Title.String,
		Author:        r.Author.String,
		MfgPlace:      r.MfgPlace.String,
		Publisher:     r.Publisher.String,
		YearPublished: r.YearPublished.String,
		ISBN:          r.ISBN.String,
		Description:   r.Description.String,
	}
}

type entryIterator struct {
	db   *bun.DB
	rows *sql.Rows

	once     sync.Once
	closeErr error
	closed   bool
}

func (it *entryIterator) Next(ctx context.Context) (export.Entry, error) {
	if it.closed {
		return export.Entry{}, io.EOF
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return export.Entry{}, err
	}

	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return export.Entry{}, export.NewError(export.KindStoreUnavailable, "listing read failed", err)
		}
		return export.Entry{}, io.EOF
	}

	var row listingRow
	if err := it.db.ScanRow(ctx, it.rows, &row); err != nil {
		return export.Entry{}, export.NewError(export.KindStoreUnavailable, "listing row scan failed", err)
	}
	return row.entry(), nil
}

func (it *entryIterator) Close() error {
	it.once.Do(func() {
		it.closed = true
		rowsErr := it.rows.Close()
		dbErr := it.db.Close()
		it.closeErr = errors.Join(rowsErr, dbErr)
	})
	return it.closeErr
}

var dsnEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func readOnlyDSN(path string) string {
	return "file:" + dsnEscaper.Replace(path) + "?mode=ro"
}
