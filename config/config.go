// Package config holds runtime settings for the bookshelf exporter.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is prepended to every environment override key.
const EnvPrefix = "BOOKSHELF_"

type Config struct {
	// Marker is the literal that must appear in a listing's private notes.
	Marker string
	// Table is the listing table read from the catalog store.
	Table string

	LogLevel  string
	LogFormat string
	LogFile   string

	// HistoryDB is the SQLite file recording export history. Empty disables it.
	HistoryDB string
	DebugSQL  bool

	// MaxBytes caps a rendered document. Zero means unlimited.
	MaxBytes         int64
	// ReportMaxEntries caps the entries buffered for the HTML report. Zero
	// means unlimited.
	ReportMaxEntries int
	OutputRoot       string
	FileMode         os.FileMode

	PDFEnabled      bool
	PDFEngine       string
	PDFBrowserPath  string
	PDFCommand      string
	PDFTimeout      time.Duration
	PDFPageSize     string
	// PDFMaxHTMLBytes caps the report HTML handed to the PDF engine. Zero
	// means unlimited.
	PDFMaxHTMLBytes int64

	SnapshotEnabled bool
	SnapshotTable   string
}

// Defaults returns the settings used when nothing is overridden.
func Defaults() Config {
	return Config{
		Marker:        "LIST",
		Table:         "Listing",
		LogLevel:      "info",
		LogFormat:     "text",
		FileMode:      0o644,
		PDFEngine:     "chromium",
		PDFCommand:    "wkhtmltopdf",
		PDFTimeout:    30 * time.Second,
		PDFPageSize:   "LETTER",
		SnapshotTable: "books",
	}
}

// Load returns Defaults with BOOKSHELF_* environment overrides applied.
func Load() Config {
	cfg := Defaults()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields from BOOKSHELF_* environment variables.
// Unparseable numeric or boolean values keep the current setting.
func (c *Config) ApplyEnv() {
	c.Marker = getEnv("MARKER", c.Marker)
	c.Table = getEnv("TABLE", c.Table)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.HistoryDB = getEnv("HISTORY_DB", c.HistoryDB)
	c.DebugSQL = getBool("DEBUG_SQL", c.DebugSQL)
	c.MaxBytes = getInt64("MAX_BYTES", c.MaxBytes)
	c.ReportMaxEntries = getInt("REPORT_MAX_ENTRIES", c.ReportMaxEntries)
	c.OutputRoot = getEnv("OUTPUT_ROOT", c.OutputRoot)
	c.FileMode = getFileMode("FILE_MODE", c.FileMode)
	c.PDFEnabled = getBool("PDF_ENABLED", c.PDFEnabled)
	c.PDFEngine = getEnv("PDF_ENGINE", c.PDFEngine)
	c.PDFBrowserPath = getEnv("PDF_BROWSER_PATH", c.PDFBrowserPath)
	c.PDFCommand = getEnv("PDF_COMMAND", c.PDFCommand)
	c.PDFTimeout = getDuration("PDF_TIMEOUT", c.PDFTimeout)
	c.PDFPageSize = getEnv("PDF_PAGE_SIZE", c.PDFPageSize)
	c.PDFMaxHTMLBytes = getInt64("PDF_MAX_HTML_BYTES", c.PDFMaxHTMLBytes)
	c.SnapshotEnabled = getBool("SNAPSHOT_ENABLED", c.SnapshotEnabled)
	c.SnapshotTable = getEnv("SNAPSHOT_TABLE", c.SnapshotTable)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(EnvPrefix + key); exists {
		return val
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	val, exists := os.LookupEnv(EnvPrefix + key)
	if !exists {
		return defaultVal
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getInt64(key string, defaultVal int64) int64 {
	val, exists := os.LookupEnv(EnvPrefix + key)
	if !exists {
		return defaultVal
	}
	parsed, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
	if err != nil || parsed < 0 {
		return defaultVal
	}
	return parsed
}

func getInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(EnvPrefix + key)
	if !exists {
		return defaultVal
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil || parsed < 0 {
		return defaultVal
	}
	return parsed
}

func getFileMode(key string, defaultVal os.FileMode) os.FileMode {
	val, exists := os.LookupEnv(EnvPrefix + key)
	if !exists {
		return defaultVal
	}
	parsed, err := strconv.ParseUint(strings.TrimSpace(val), 8, 32)
	if err != nil {
		return defaultVal
	}
	return os.FileMode(parsed).Perm()
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(EnvPrefix + key)
	if !exists {
		return defaultVal
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return defaultVal
	}
	return parsed
}
