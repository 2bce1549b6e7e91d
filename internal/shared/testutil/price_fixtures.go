package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shipdash/pkg/contracts/domain"
)

// SampleHeader is the column layout of the price dataset
var SampleHeader = []string{"Date", "Company", "Type", "Price", "Predicted_Price"}

// Day parses a YYYY-MM-DD date and panics on malformed input
func Day(s string) time.Time {
	d, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// Observed builds a History row
func Observed(entity, date string, price float64) domain.PriceRecord {
	return domain.PriceRecord{Entity: entity, Date: Day(date), Kind: domain.KindObserved, Price: price}
}

// Predicted builds a Prediction row
func Predicted(entity, date string, price float64) domain.PriceRecord {
	return domain.PriceRecord{Entity: entity, Date: Day(date), Kind: domain.KindPredicted, PredictedPrice: price}
}

// SampleRecords mirrors internal/dataset/testdata/ship_sample.csv: three
// companies with two observed days and two predicted days each.
func SampleRecords() []domain.PriceRecord {
	return []domain.PriceRecord{
		Observed("HD", "2024-01-01", 100),
		Observed("Samsung", "2024-01-01", 8000),
		Observed("Hanwha", "2024-01-01", 25000),
		Observed("HD", "2024-01-02", 102),
		Observed("Samsung", "2024-01-02", 8100),
		Observed("Hanwha", "2024-01-02", 25400),
		Predicted("HD", "2024-01-03", 105),
		Predicted("Samsung", "2024-01-03", 8150),
		Predicted("Hanwha", "2024-01-03", 25300),
		Predicted("HD", "2024-01-04", 107),
		Predicted("Samsung", "2024-01-04", 8200),
		Predicted("Hanwha", "2024-01-04", 25600),
	}
}

// SampleTable returns the sample records as a price table
func SampleTable() *domain.PriceTable {
	return domain.NewPriceTable(SampleRecords())
}

// WithPredictionOnly adds an entity that has predicted rows but no history
func WithPredictionOnly(records []domain.PriceRecord, entity string) []domain.PriceRecord {
	return append(records,
		Predicted(entity, "2024-01-03", 50),
		Predicted(entity, "2024-01-04", 51),
	)
}

// WriteCSV writes rows under SampleHeader to a temporary file and returns its path
func WriteCSV(t *testing.T, rows [][]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "prices.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(SampleHeader); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write rows: %v", err)
	}
	return path
}
