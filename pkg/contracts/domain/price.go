package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar date layout used on the wire and in exports
const DateLayout = "2006-01-02"

// RecordKind distinguishes observed history rows from model predictions
type RecordKind int

const (
	// KindObserved marks a recorded past price ("History" in the input file)
	KindObserved RecordKind = iota
	// KindPredicted marks a pre-computed model output ("Prediction" in the input file)
	KindPredicted
)

// Input file spellings of the record kinds
const (
	TypeHistory    = "History"
	TypePrediction = "Prediction"
)

// String returns the input file spelling of the kind
func (k RecordKind) String() string {
	switch k {
	case KindObserved:
		return TypeHistory
	case KindPredicted:
		return TypePrediction
	default:
		return fmt.Sprintf("RecordKind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind by its input file spelling
func (k RecordKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ParseRecordKind converts an input file Type value into a RecordKind
func ParseRecordKind(s string) (RecordKind, error) {
	switch strings.TrimSpace(s) {
	case TypeHistory:
		return KindObserved, nil
	case TypePrediction:
		return KindPredicted, nil
	default:
		return 0, fmt.Errorf("unknown record type %q (want %q or %q)", s, TypeHistory, TypePrediction)
	}
}

// PriceRecord is one row of the price table.
// Price is meaningful for observed rows, PredictedPrice for predicted rows.
type PriceRecord struct {
	Entity         string     `json:"entity"`
	Date           time.Time  `json:"date"`
	Kind           RecordKind `json:"kind"`
	Price          float64    `json:"price,omitempty"`
	PredictedPrice float64    `json:"predicted_price,omitempty"`
}

// Value returns the price that is meaningful for the record's kind
func (r PriceRecord) Value() float64 {
	if r.Kind == KindPredicted {
		return r.PredictedPrice
	}
	return r.Price
}

// Point returns the record as a chart point
func (r PriceRecord) Point() SeriesPoint {
	return SeriesPoint{Date: r.Date, Price: r.Value()}
}

// PriceTable is an immutable, date-ordered snapshot of price records.
// Records sharing a date keep the order in which they were supplied.
type PriceTable struct {
	records  []PriceRecord
	entities []string
}

// NewPriceTable builds a table from records. The slice is copied and stably
// sorted by date; entity order is the order of first appearance in records.
func NewPriceTable(records []PriceRecord) *PriceTable {
	entities := make([]string, 0, 4)
	seen := make(map[string]struct{})
	for _, r := range records {
		if _, ok := seen[r.Entity]; ok {
			continue
		}
		seen[r.Entity] = struct{}{}
		entities = append(entities, r.Entity)
	}

	sorted := make([]PriceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	return &PriceTable{records: sorted, entities: entities}
}

// Len returns the number of records
func (t *PriceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// IsEmpty reports whether the table holds no records
func (t *PriceTable) IsEmpty() bool {
	return t.Len() == 0
}

// At returns the i-th record in date order
func (t *PriceTable) At(i int) PriceRecord {
	return t.records[i]
}

// Records returns a copy of the records in date order
func (t *PriceTable) Records() []PriceRecord {
	if t == nil {
		return nil
	}
	out := make([]PriceRecord, len(t.records))
	copy(out, t.records)
	return out
}

// Entities returns the distinct entity identifiers in order of first appearance
func (t *PriceTable) Entities() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.entities))
	copy(out, t.entities)
	return out
}

// HasEntity reports whether the table contains rows for id
func (t *PriceTable) HasEntity(id string) bool {
	if t == nil {
		return false
	}
	for _, e := range t.entities {
		if e == id {
			return true
		}
	}
	return false
}

// Select returns the sub-table of records for which keep returns true.
// Row order is preserved and the entity order is inherited from t.
func (t *PriceTable) Select(keep func(PriceRecord) bool) *PriceTable {
	if t == nil {
		return &PriceTable{}
	}

	records := make([]PriceRecord, 0, len(t.records))
	present := make(map[string]struct{})
	for _, r := range t.records {
		if keep(r) {
			records = append(records, r)
			present[r.Entity] = struct{}{}
		}
	}

	entities := make([]string, 0, len(present))
	for _, e := range t.entities {
		if _, ok := present[e]; ok {
			entities = append(entities, e)
		}
	}

	return &PriceTable{records: records, entities: entities}
}

// Points returns the records as chart points in date order
func (t *PriceTable) Points() []SeriesPoint {
	if t == nil {
		return nil
	}
	points := make([]SeriesPoint, len(t.records))
	for i, r := range t.records {
		points[i] = r.Point()
	}
	return points
}

// Last returns the final record in date order
func (t *PriceTable) Last() (PriceRecord, bool) {
	if t.IsEmpty() {
		return PriceRecord{}, false
	}
	return t.records[len(t.records)-1], true
}

// DateRange returns the first and last dates in the table
func (t *PriceTable) DateRange() (time.Time, time.Time, bool) {
	if t.IsEmpty() {
		return time.Time{}, time.Time{}, false
	}
	return t.records[0].Date, t.records[len(t.records)-1].Date, true
}
