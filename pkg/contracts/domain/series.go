package domain

import (
	"encoding/json"
	"time"
)

// SeriesPoint is a single (date, price) pair of a chart line
type SeriesPoint struct {
	Date  time.Time
	Price float64
}

// MarshalJSON encodes the date as a calendar date
func (p SeriesPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string  `json:"date"`
		Price float64 `json:"price"`
	}{
		Date:  p.Date.Format(DateLayout),
		Price: p.Price,
	})
}

// StitchedSeries is an entity's last observed point followed by its predicted
// points, so that history and prediction render as one continuous line.
type StitchedSeries struct {
	Entity string        `json:"entity"`
	Points []SeriesPoint `json:"points"`
}

// Len returns the number of points including the anchor
func (s StitchedSeries) Len() int {
	return len(s.Points)
}

// Anchor returns the shared boundary point (the last observed point)
func (s StitchedSeries) Anchor() (SeriesPoint, bool) {
	if len(s.Points) == 0 {
		return SeriesPoint{}, false
	}
	return s.Points[0], true
}

// Predicted returns the points after the anchor
func (s StitchedSeries) Predicted() []SeriesPoint {
	if len(s.Points) <= 1 {
		return nil
	}
	out := make([]SeriesPoint, len(s.Points)-1)
	copy(out, s.Points[1:])
	return out
}

// IsDegenerate reports whether the series holds only the anchor point
func (s StitchedSeries) IsDegenerate() bool {
	return len(s.Points) == 1
}

// Line is one entity's chart line
type Line struct {
	Entity string        `json:"entity"`
	Points []SeriesPoint `json:"points"`
}

// PredictionSummary condenses a stitched series into the figures shown under
// the prediction chart
type PredictionSummary struct {
	Entity         string       `json:"entity"`
	LastObserved   SeriesPoint  `json:"last_observed"`
	FinalPredicted *SeriesPoint `json:"final_predicted,omitempty"`
	Horizon        int          `json:"horizon"`
	ChangePercent  *float64     `json:"change_percent,omitempty"`
}
