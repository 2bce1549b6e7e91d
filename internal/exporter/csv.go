package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	// BOMPrefix adds a UTF-8 BOM for Excel compatibility
	BOMPrefix bool
}

// NewCSVWriter creates a CSV writer that prefixes output with a UTF-8 BOM
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{BOMPrefix: true}
}

// Write writes the table headers and rows to w
func (c *CSVWriter) Write(w io.Writer, table Table) error {
	if c.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if len(table.Headers) > 0 {
		if err := writer.Write(table.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range table.Records() {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
