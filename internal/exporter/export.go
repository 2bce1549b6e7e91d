package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes a table in one format
type Writer interface {
	Write(w io.Writer, table Table) error
}

// WriterFor returns the writer for a format
func WriterFor(format Format) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(), nil
	case FormatXLSX:
		return NewXLSXWriter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Export writes table to w in the given format
func Export(w io.Writer, format Format, table Table) error {
	writer, err := WriterFor(format)
	if err != nil {
		return err
	}
	return writer.Write(w, table)
}

// ExportFile writes table to path, creating parent directories as needed
func ExportFile(path string, format Format, table Table) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return Export(file, format, table)
}

// Filename builds a download file name such as "prediction_HD.xlsx"
func Filename(view, entity string, format Format) string {
	name := view
	if entity != "" {
		name = fmt.Sprintf("%s_%s", view, sanitize(entity))
	}
	return name + format.Extension()
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == '"' || r == ':' || r < 0x20:
			return '_'
		case r == ' ':
			return '_'
		default:
			return r
		}
	}, s)
}
