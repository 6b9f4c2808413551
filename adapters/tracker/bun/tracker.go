package trackerbun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-bookshelf/export"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// Tracker stores export history in a Bun-backed database.
type Tracker struct {
	DB          *bun.DB
	Now         func() time.Time
	IDGenerator func() string
}

// NewTracker creates a Bun-backed tracker.
func NewTracker(db *bun.DB) *Tracker {
	return &Tracker{DB: db, Now: time.Now, IDGenerator: uuid.NewString}
}

// OpenSQLite opens (or creates) a SQLite history database at dsn and ensures
// the schema exists. The caller owns the returned DB.
func OpenSQLite(ctx context.Context, dsn string) (*Tracker, error) {
	if dsn == "" {
		return nil, export.NewError(export.KindValidation, "history database is required", nil)
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, export.NewError(export.KindInternal, "history database open failed", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	tracker := NewTracker(db)
	if err := tracker.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return tracker, nil
}

// EnsureSchema creates the history table and its index when missing.
func (t *Tracker) EnsureSchema(ctx context.Context) error {
	if t == nil || t.DB == nil {
		return export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}
	if _, err := t.DB.NewCreateTable().Model((*recordModel)(nil)).IfNotExists().Exec(ctx); err != nil {
		return export.NewError(export.KindInternal, "history table create failed", err)
	}
	if _, err := t.DB.NewCreateIndex().
		Model((*recordModel)(nil)).
		Index("export_records_created_at_idx").
		Column("created_at").
		IfNotExists().
		Exec(ctx); err != nil {
		return export.NewError(export.KindInternal, "history index create failed", err)
	}
	return nil
}

// Close releases the database.
func (t *Tracker) Close() error {
	if t == nil || t.DB == nil {
		return nil
	}
	return t.DB.Close()
}

// Start creates a new export record.
func (t *Tracker) Start(ctx context.Context, record export.ExportRecord) (string, error) {
	if t == nil || t.DB == nil {
		return "", export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}
	if record.ID == "" {
		record.ID = t.nextID()
	}
	if record.State == "" {
		record.State = export.StateRunning
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = t.now()
	}

	model := modelFromRecord(record)
	if _, err := t.DB.NewInsert().Model(&model).Exec(ctx); err != nil {
		return "", export.NewError(export.KindInternal, "history insert failed", err)
	}
	return record.ID, nil
}

// Complete marks the export as completed with its output stats.
func (t *Tracker) Complete(ctx context.Context, id string, stats export.RenderStats) error {
	if t == nil || t.DB == nil {
		return export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return export.NewError(export.KindValidation, "export ID is required", nil)
	}

	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("state = ?", export.StateCompleted).
		Set("row_count = ?", stats.Rows).
		Set("byte_count = ?", stats.Bytes).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", id)
	return t.exec(ctx, id, query)
}

// Fail marks the export as failed and keeps the error message.
func (t *Tracker) Fail(ctx context.Context, id string, cause error) error {
	if t == nil || t.DB == nil {
		return export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return export.NewError(export.KindValidation, "export ID is required", nil)
	}

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	query := t.DB.NewUpdate().Model((*recordModel)(nil)).
		Set("state = ?", export.StateFailed).
		Set("error = ?", msg).
		Set("completed_at = COALESCE(completed_at, ?)", t.now()).
		Where("id = ?", id)
	return t.exec(ctx, id, query)
}

// Status returns a record by ID.
func (t *Tracker) Status(ctx context.Context, id string) (export.ExportRecord, error) {
	if t == nil || t.DB == nil {
		return export.ExportRecord{}, export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}
	if id == "" {
		return export.ExportRecord{}, export.NewError(export.KindValidation, "export ID is required", nil)
	}

	model := new(recordModel)
	err := t.DB.NewSelect().Model(model).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return export.ExportRecord{}, export.NewError(export.KindNotFound, fmt.Sprintf("export %q not found", id), nil)
		}
		return export.ExportRecord{}, export.NewError(export.KindInternal, "history read failed", err)
	}
	return model.toRecord(), nil
}

// List returns records matching a filter, newest first.
func (t *Tracker) List(ctx context.Context, filter export.ProgressFilter) ([]export.ExportRecord, error) {
	if t == nil || t.DB == nil {
		return nil, export.NewError(export.KindNotImpl, "tracker database not configured", nil)
	}

	models := make([]recordModel, 0)
	query := t.DB.NewSelect().Model(&models)
	if filter.State != "" {
		query = query.Where("state = ?", filter.State)
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.Where("created_at <= ?", filter.Until)
	}
	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, export.NewError(export.KindInternal, "history list failed", err)
	}

	records := make([]export.ExportRecord, 0, len(models))
	for _, model := range models {
		records = append(records, model.toRecord())
	}
	return records, nil
}

func (t *Tracker) exec(ctx context.Context, id string, query *bun.UpdateQuery) error {
	res, err := query.Exec(ctx)
	if err != nil {
		return export.NewError(export.KindInternal, "history update failed", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return export.NewError(export.KindNotFound, fmt.Sprintf("export %q not found", id), nil)
	}
	return nil
}

type recordModel struct {
	bun.BaseModel `bun:"table:export_records,alias:export_records"`

	ID          string    `bun:",pk"`
	StorePath   string    `bun:"store_path,notnull"`
	OutputPath  string    `bun:"output_path,notnull"`
	Format      string    `bun:",notnull"`
	State       string    `bun:",notnull"`
	Rows        int64     `bun:"row_count"`
	Bytes       int64     `bun:"byte_count"`
	Error       string    `bun:"error"`
	CreatedAt   time.Time `bun:"created_at"`
	CompletedAt time.Time `bun:"completed_at,nullzero"`
}

func modelFromRecord(record export.ExportRecord) recordModel {
	return recordModel{
		ID:          record.ID,
		StorePath:   record.StorePath,
		OutputPath:  record.OutputPath,
		Format:      string(record.Format),
		State:       string(record.State),
		Rows:        record.Rows,
		Bytes:       record.Bytes,
		Error:       record.Error,
		CreatedAt:   record.CreatedAt,
		CompletedAt: record.CompletedAt,
	}
}

func (m recordModel) toRecord() export.ExportRecord {
	return export.ExportRecord{
		ID:          m.ID,
		StorePath:   m.StorePath,
		OutputPath:  m.OutputPath,
		Format:      export.Format(m.Format),
		State:       export.ExportState(m.State),
		Rows:        m.Rows,
		Bytes:       m.Bytes,
		Error:       m.Error,
		CreatedAt:   m.CreatedAt,
		CompletedAt: m.CompletedAt,
	}
}

func (t *Tracker) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Tracker) nextID() string {
	if t.IDGenerator != nil {
		return t.IDGenerator()
	}
	return uuid.NewString()
}
