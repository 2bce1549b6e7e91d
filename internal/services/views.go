package services

import (
	"shipdash/pkg/contracts/domain"
)

// View names used by exports and metrics
const (
	ViewEntities    = "entities"
	ViewTrend       = "trend"
	ViewCorrelation = "correlation"
	ViewPrediction  = "prediction"
	ViewPredictions = "predictions"
)

// ExportViews lists the views that can be downloaded
var ExportViews = []string{ViewCorrelation, ViewPrediction, ViewTrend}

// Tab describes one dashboard tab
type Tab struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// EntitiesView is the dashboard header: page metadata, the selectable
// companies and a description of the loaded snapshot
type EntitiesView struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tabs        []Tab    `json:"tabs"`
	Entities    []string `json:"entities"`
	Default     string   `json:"default"`
	Snapshot    Snapshot `json:"snapshot"`
}

// Snapshot describes the loaded price dataset
type Snapshot struct {
	Source    string `json:"source"`
	Rows      int    `json:"rows"`
	Observed  int    `json:"observed"`
	Predicted int    `json:"predicted"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
}

// TrendView is the observed price line of every company
type TrendView struct {
	Lines []domain.Line `json:"lines"`
}

// CorrelationView is the heatmap payload. Z mirrors the matrix with nil for
// undefined pairs so that they encode as null.
type CorrelationView struct {
	Labels    []string         `json:"labels"`
	Z         [][]*float64     `json:"z"`
	Samples   [][]int          `json:"samples"`
	Alignment domain.Alignment `json:"alignment"`

	Matrix *domain.CorrelationMatrix `json:"-"`
}

// PredictionView is one company's observed history next to its stitched
// prediction line
type PredictionView struct {
	Entity     string                   `json:"entity"`
	History    []domain.SeriesPoint     `json:"history"`
	Prediction domain.StitchedSeries    `json:"prediction"`
	Summary    domain.PredictionSummary `json:"summary"`
}

// PredictionEntry is one company's slot in the predictions overview. Exactly
// one of View and Error is set.
type PredictionEntry struct {
	Entity string          `json:"entity"`
	View   *PredictionView `json:"view,omitempty"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

// PredictionsOverview holds every company's prediction in entity order
type PredictionsOverview struct {
	Entries []PredictionEntry `json:"entries"`
	Failed  int               `json:"failed"`
}

// ExportRequest selects a view to download
type ExportRequest struct {
	View      string `validate:"required,oneof=correlation prediction trend"`
	Format    string `validate:"required,oneof=csv xlsx"`
	Entity    string `validate:"required_if=View prediction,max=128"`
	Alignment string `validate:"omitempty,oneof=listwise pairwise"`
}
