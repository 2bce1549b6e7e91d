package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"shipdash/pkg/contracts/domain"

	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of loader spans
const TracerName = "shipdash.dataset"

// Column headers of the input table
const (
	ColumnDate           = "Date"
	ColumnCompany        = "Company"
	ColumnType           = "Type"
	ColumnPrice          = "Price"
	ColumnPredictedPrice = "Predicted_Price"
)

// dateLayouts are tried in order; day-first and month-first layouts are not
// accepted because they are ambiguous.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

const utf8BOM = "\ufeff"

// Load reads the price table at path. Any failure is a *DataUnavailableError.
func Load(path string) (*domain.PriceTable, error) {
	return LoadContext(context.Background(), path)
}

// LoadContext is Load with cancellation and a tracing span
func LoadContext(ctx context.Context, path string) (*domain.PriceTable, error) {
	ctx, span := otel.Tracer(TracerName).Start(ctx, "dataset.load",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("dataset.path", path),
			attribute.String("dataset.format", formatOf(path)),
		),
	)
	defer span.End()

	table, err := load(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dataset unavailable")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("dataset.rows", table.Len()),
		attribute.Int("dataset.entities", len(table.Entities())),
	)
	span.SetStatus(codes.Ok, "")
	return table, nil
}

func load(ctx context.Context, path string) (*domain.PriceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable(path, 0, "load cancelled", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, unavailable(path, 0, "file not found", err)
	}
	if info.IsDir() {
		return nil, unavailable(path, 0, "path is a directory", nil)
	}

	var rows [][]string
	switch formatOf(path) {
	case "xlsx":
		rows, err = readXLSX(path)
	default:
		rows, err = readCSV(path)
	}
	if err != nil {
		return nil, unavailable(path, 0, "read file", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, unavailable(path, 0, "load cancelled", err)
	}

	records, err := parseRows(rows)
	if err != nil {
		var re *recordError
		if errors.As(err, &re) {
			return nil, unavailable(path, re.line, re.reason, re.err)
		}
		return nil, unavailable(path, 0, "parse table", err)
	}

	return domain.NewPriceTable(records), nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return "csv"
	}
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	convertSerialDates(rows, date1904)
	return rows, nil
}

// convertSerialDates rewrites Excel serial dates in the Date column as
// YYYY-MM-DD text. Cells that already hold text are left alone.
func convertSerialDates(rows [][]string, date1904 bool) {
	if len(rows) == 0 {
		return
	}

	col := -1
	for i, name := range rows[0] {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if strings.EqualFold(strings.TrimSpace(name), ColumnDate) {
			col = i
			break
		}
	}
	if col < 0 {
		return
	}

	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			continue
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			continue
		}
		row[col] = t.Format(domain.DateLayout)
	}
}

// recordError ties a parse failure to a file line
type recordError struct {
	line   int
	reason string
	err    error
}

func (e *recordError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.line, e.reason, e.err)
	}
	return fmt.Sprintf("line %d: %s", e.line, e.reason)
}

func (e *recordError) Unwrap() error {
	return e.err
}

type columnIndex struct {
	date, company, kind, price, predicted int
}

func indexColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	lookup := func(name string) (int, error) {
		if i, ok := positions[strings.ToLower(name)]; ok {
			return i, nil
		}
		return -1, &recordError{line: 1, reason: fmt.Sprintf("missing required column %q", name)}
	}

	var idx columnIndex
	var err error
	if idx.date, err = lookup(ColumnDate); err != nil {
		return idx, err
	}
	if idx.company, err = lookup(ColumnCompany); err != nil {
		return idx, err
	}
	if idx.kind, err = lookup(ColumnType); err != nil {
		return idx, err
	}
	if idx.price, err = lookup(ColumnPrice); err != nil {
		return idx, err
	}
	if idx.predicted, err = lookup(ColumnPredictedPrice); err != nil {
		return idx, err
	}
	return idx, nil
}

type recordKey struct {
	entity string
	date   time.Time
	kind   domain.RecordKind
}

// parseRows converts a header row plus data rows into records in file order
func parseRows(rows [][]string) ([]domain.PriceRecord, error) {
	if len(rows) == 0 {
		return nil, &recordError{line: 1, reason: "empty file"}
	}

	idx, err := indexColumns(rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]domain.PriceRecord, 0, len(rows)-1)
	seen := make(map[recordKey]int, len(rows)-1)

	for i := 1; i < len(rows); i++ {
		line := i + 1
		row := rows[i]
		if isBlank(row) {
			continue
		}

		record, err := parseRecord(row, idx, line)
		if err != nil {
			return nil, err
		}

		key := recordKey{entity: record.Entity, date: record.Date, kind: record.Kind}
		if first, dup := seen[key]; dup {
			return nil, &recordError{
				line:   line,
				reason: fmt.Sprintf("duplicate %s row for %s on %s (first on line %d)", record.Kind, record.Entity, record.Date.Format(domain.DateLayout), first),
			}
		}
		seen[key] = line
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, &recordError{line: 1, reason: "file contains only a header"}
	}
	return records, nil
}

func parseRecord(row []string, idx columnIndex, line int) (domain.PriceRecord, error) {
	date, err := parseDate(field(row, idx.date))
	if err != nil {
		return domain.PriceRecord{}, &recordError{line: line, reason: "parse date", err: err}
	}

	company := field(row, idx.company)
	if company == "" {
		return domain.PriceRecord{}, &recordError{line: line, reason: "empty company"}
	}

	kind, err := domain.ParseRecordKind(field(row, idx.kind))
	if err != nil {
		return domain.PriceRecord{}, &recordError{line: line, reason: "parse type", err: err}
	}

	record := domain.PriceRecord{Entity: company, Date: date, Kind: kind}
	switch kind {
	case domain.KindObserved:
		record.Price, err = parseFloat(field(row, idx.price), ColumnPrice, line)
	case domain.KindPredicted:
		record.PredictedPrice, err = parseFloat(field(row, idx.predicted), ColumnPredictedPrice, line)
	}
	if err != nil {
		return domain.PriceRecord{}, err
	}
	return record, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseDate accepts the layouts in dateLayouts and normalises to UTC midnight
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date format: %q", s)
}

func parseFloat(s, column string, line int) (float64, error) {
	if s == "" {
		return 0, &recordError{line: line, reason: fmt.Sprintf("missing %s", column)}
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, &recordError{line: line, reason: fmt.Sprintf("parse %s", column), err: err}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &recordError{line: line, reason: fmt.Sprintf("%s is not a finite number", column)}
	}
	return v, nil
}
