// Package exporter writes the derived dashboard views as downloadable files.
//
// This package contains three main components:
//
// Table: a named grid of header and cell values built from a derived view
// (correlation matrix, trend lines or a prediction chart).
//
// CSVWriter: writes a Table as CSV with an optional UTF-8 BOM for Excel
// compatibility. Undefined coefficients are written as empty cells.
//
// XLSXWriter: writes a Table as a single-sheet workbook with numeric cells.
//
// Example usage:
//
//	table := exporter.CorrelationTable(matrix)
//	err := exporter.Export(w, exporter.FormatXLSX, table)
package exporter
