package exporter

import (
	"math"

	"shipdash/pkg/contracts/domain"
)

// Series labels used in prediction exports
const (
	SeriesHistory    = "History"
	SeriesPrediction = "Prediction"
)

// Table is a grid of cells ready to be written in any Format.
// Cells hold string, float64, int, time.Time or nil.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Records returns the rows formatted as text
func (t Table) Records() [][]string {
	records := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		record := make([]string, len(row))
		for j, cell := range row {
			record[j] = formatCell(cell)
		}
		records[i] = record
	}
	return records
}

// CorrelationTable lays the matrix out with the entities on both axes.
// Undefined coefficients become empty cells.
func CorrelationTable(m *domain.CorrelationMatrix) Table {
	headers := append([]string{"Company"}, m.Entities...)
	rows := make([][]interface{}, len(m.Entities))
	for i, entity := range m.Entities {
		row := make([]interface{}, 0, len(m.Entities)+1)
		row = append(row, entity)
		for _, v := range m.Values[i] {
			if math.IsNaN(v) {
				row = append(row, nil)
				continue
			}
			row = append(row, v)
		}
		rows[i] = row
	}
	return Table{Name: "Correlation", Headers: headers, Rows: rows}
}

// TrendTable lists every point of every line in long format
func TrendTable(lines []domain.Line) Table {
	var rows [][]interface{}
	for _, line := range lines {
		for _, p := range line.Points {
			rows = append(rows, []interface{}{p.Date, line.Entity, p.Price})
		}
	}
	return Table{Name: "Trend", Headers: []string{"Date", "Company", "Price"}, Rows: rows}
}

// PredictionTable lists the history line followed by the stitched prediction line
func PredictionTable(history []domain.SeriesPoint, stitched domain.StitchedSeries) Table {
	rows := make([][]interface{}, 0, len(history)+stitched.Len())
	for _, p := range history {
		rows = append(rows, []interface{}{p.Date, stitched.Entity, SeriesHistory, p.Price})
	}
	for _, p := range stitched.Points {
		rows = append(rows, []interface{}{p.Date, stitched.Entity, SeriesPrediction, p.Price})
	}
	return Table{
		Name:    "Prediction",
		Headers: []string{"Date", "Company", "Series", "Price"},
		Rows:    rows,
	}
}
