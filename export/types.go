package export

import (
	"context"
	"io"
	"time"
)

// Format is the export output format.
type Format string

const (
	FormatHTML   Format = "html"
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatXLSX   Format = "xlsx"
	FormatPDF    Format = "pdf"
	FormatSQLite Format = "sqlite"
)

// DefaultSourceKey is the row source used when a request does not name one.
const DefaultSourceKey = "sqlite"

// Entry is one exportable catalog item.
type Entry struct {
	InventoryID   int64  `json:"inventory_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	MfgPlace      string `json:"mfg_place"`
	Publisher     string `json:"publisher"`
	YearPublished string `json:"year_published"`
	ISBN          string `json:"isbn"`
	Description   string `json:"description"`
}

// HasPlace reports whether the entry carries a place of manufacture.
func (e Entry) HasPlace() bool {
	return e.MfgPlace != ""
}

// EntryFields lists entry field names in display order.
var EntryFields = []string{
	"inventory_id",
	"title",
	"author",
	"mfg_place",
	"publisher",
	"year_published",
	"isbn",
	"description",
}

// Values returns the entry fields aligned with EntryFields.
func (e Entry) Values() []any {
	return []any{
		e.InventoryID,
		e.Title,
		e.Author,
		e.MfgPlace,
		e.Publisher,
		e.YearPublished,
		e.ISBN,
		e.Description,
	}
}

// ExportRequest captures a single export invocation.
type ExportRequest struct {
	StorePath     string
	OutputPath    string
	Output        io.Writer
	Format        Format
	SourceKey     string
	RenderOptions RenderOptions
}

// ExportResult captures a completed export.
type ExportResult struct {
	ID         string
	Format     Format
	StorePath  string
	OutputPath string
	Rows       int64
	Bytes      int64
}

// SourceSpec is passed to EntrySource.Open.
type SourceSpec struct {
	Location string
	Request  ExportRequest
}

// EntrySource opens entry iterators over a store.
type EntrySource interface {
	Open(ctx context.Context, spec SourceSpec) (EntryIterator, error)
}

// EntryIterator streams entries. Next returns io.EOF once exhausted.
type EntryIterator interface {
	Next(ctx context.Context) (Entry, error)
	Close() error
}

// Renderer writes entries to the destination.
type Renderer interface {
	Render(ctx context.Context, entries EntryIterator, w io.Writer, opts RenderOptions) (RenderStats, error)
}

// RenderStats capture renderer output.
type RenderStats struct {
	Rows  int64
	Bytes int64
}

// JSONMode configures JSON rendering.
type JSONMode string

const (
	JSONModeArray JSONMode = "array"
	JSONModeLines JSONMode = "ndjson"
)

// CSVOptions configures CSV output.
type CSVOptions struct {
	Delimiter rune
}

// JSONOptions configures JSON output.
type JSONOptions struct {
	Mode JSONMode
}

// TemplateOptions configures the HTML report renderer.
type TemplateOptions struct {
	MaxEntries int
}

// XLSXOptions configures XLSX output.
type XLSXOptions struct {
	SheetName string
}

// SQLiteOptions configures the SQLite snapshot renderer.
type SQLiteOptions struct {
	TableName string
}

// PDFOptions configures PDF output for headless engines.
type PDFOptions struct {
	PageSize        string
	Landscape       *bool
	PrintBackground *bool
	Scale           float64
	MarginTop       string
	MarginBottom    string
	MarginLeft      string
	MarginRight     string
}

// RenderOptions configures renderer behavior.
type RenderOptions struct {
	CSV      CSVOptions
	JSON     JSONOptions
	Template TemplateOptions
	XLSX     XLSXOptions
	PDF      PDFOptions
	SQLite   SQLiteOptions
	MaxBytes int64
}

// OutputStore persists finished documents.
type OutputStore interface {
	Write(ctx context.Context, path string, r io.Reader) (int64, error)
}

// ExportState captures progress states.
type ExportState string

const (
	StateRunning   ExportState = "running"
	StateCompleted ExportState = "completed"
	StateFailed    ExportState = "failed"
)

// ExportRecord captures tracker state for an export run.
type ExportRecord struct {
	ID          string      `json:"id"`
	StorePath   string      `json:"store_path"`
	OutputPath  string      `json:"output_path"`
	Format      Format      `json:"format"`
	State       ExportState `json:"state"`
	Rows        int64       `json:"rows"`
	Bytes       int64       `json:"bytes"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt time.Time   `json:"completed_at,omitempty"`
}

// ProgressFilter filters tracker lists.
type ProgressFilter struct {
	State ExportState
	Since time.Time
	Until time.Time
	Limit int
}

// ProgressTracker records export runs.
type ProgressTracker interface {
	Start(ctx context.Context, record ExportRecord) (string, error)
	Complete(ctx context.Context, id string, stats RenderStats) error
	Fail(ctx context.Context, id string, err error) error
	Status(ctx context.Context, id string) (ExportRecord, error)
	List(ctx context.Context, filter ProgressFilter) ([]ExportRecord, error)
}

// Logger provides logging hooks.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}
