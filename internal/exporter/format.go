package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"shipdash/pkg/contracts/domain"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat converts a file extension or format name into a Format
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// formatFloat formats a float64 with the shortest exact representation.
// Undefined values format as an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatCell formats a table cell for text output
func formatCell(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return formatFloat(val)
	case int:
		return strconv.Itoa(val)
	case time.Time:
		return val.Format(domain.DateLayout)
	default:
		return fmt.Sprint(val)
	}
}
