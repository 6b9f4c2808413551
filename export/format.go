package export

import (
	"path/filepath"
	"strings"
)

// NormalizeFormat coerces format values into known aliases with defaults applied.
func NormalizeFormat(format Format) Format {
	normalized := strings.ToLower(strings.TrimSpace(string(format)))
	switch normalized {
	case "", string(FormatHTML), "htm":
		return FormatHTML
	case "excel", "xls":
		return FormatXLSX
	case "jsonl", "lines":
		return FormatNDJSON
	case "sqlite3", "db":
		return FormatSQLite
	default:
		return Format(normalized)
	}
}

// FormatFromPath infers a format from the output file extension.
// Unknown or missing extensions resolve to HTML.
func FormatFromPath(path string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "csv":
		return FormatCSV
	case "json":
		return FormatJSON
	case "ndjson", "jsonl":
		return FormatNDJSON
	case "xlsx", "xls":
		return FormatXLSX
	case "pdf":
		return FormatPDF
	case "sqlite", "sqlite3", "db":
		return FormatSQLite
	default:
		return FormatHTML
	}
}

// ResolveFormat picks the request format, falling back to the output path.
func ResolveFormat(req ExportRequest) Format {
	if strings.TrimSpace(string(req.Format)) != "" {
		return NormalizeFormat(req.Format)
	}
	if req.OutputPath != "" {
		return FormatFromPath(req.OutputPath)
	}
	return FormatHTML
}

// ContentType returns the MIME type for a format.
func ContentType(format Format) string {
	switch NormalizeFormat(format) {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatNDJSON:
		return "application/x-ndjson"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	case FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "text/html; charset=utf-8"
	}
}
