package exporter

import (
	"fmt"
	"io"
	"time"

	"shipdash/pkg/contracts/domain"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter writes tables as single-sheet workbooks
type XLSXWriter struct{}

// NewXLSXWriter creates a workbook writer
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{}
}

// Write writes the table to w as an .xlsx workbook
func (x *XLSXWriter) Write(w io.Writer, table Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := table.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = xlsxValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// xlsxValue keeps numbers numeric and writes dates as calendar date text
func xlsxValue(v interface{}) interface{} {
	switch val := v.(type) {
	case time.Time:
		return val.Format(domain.DateLayout)
	case float64:
		if s := formatFloat(val); s == "" {
			return nil
		}
		return val
	default:
		return val
	}
}
