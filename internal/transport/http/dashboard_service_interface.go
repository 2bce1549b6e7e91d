package http

import (
	"context"
	"io"

	"shipdash/internal/services"
)

// DashboardServiceInterface defines the interface for dashboard views
type DashboardServiceInterface interface {
	Entities(ctx context.Context) (*services.EntitiesView, error)
	Trend(ctx context.Context) (*services.TrendView, error)
	Correlation(ctx context.Context, alignment string) (*services.CorrelationView, error)
	Prediction(ctx context.Context, entity string) (*services.PredictionView, error)
	Predictions(ctx context.Context) (*services.PredictionsOverview, error)

	// Export writes the rendered view to w and describes what was written
	Export(ctx context.Context, w io.Writer, req services.ExportRequest) (*services.ExportInfo, error)
}
