package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"shipdash/internal/analytics"
	"shipdash/internal/config"
	"shipdash/internal/exporter"
	"shipdash/pkg/contracts/domain"
)

// EntryCodeNoHistory marks an overview entry whose company has no history
const EntryCodeNoHistory = "no_history"

// DashboardOptions configures a DashboardService
type DashboardOptions struct {
	// Source is the dataset path reported in the snapshot description
	Source string
	// Alignment is the correlation alignment used when a request names none
	Alignment string
	// Tracer instruments derivations; nil disables instrumentation
	Tracer *DerivationTracer
}

// DashboardService derives every dashboard view from one immutable price
// snapshot. All methods are safe for concurrent use.
type DashboardService struct {
	table     *domain.PriceTable
	snapshot  Snapshot
	alignment domain.Alignment
	tracer    *DerivationTracer
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewDashboardService creates a dashboard service using the default logger
func NewDashboardService(table *domain.PriceTable, opts DashboardOptions) (*DashboardService, error) {
	return NewDashboardServiceWithLogger(table, opts, slog.Default())
}

// NewDashboardServiceWithLogger creates a dashboard service with a specific logger
func NewDashboardServiceWithLogger(table *domain.PriceTable, opts DashboardOptions, logger *slog.Logger) (*DashboardService, error) {
	if table.IsEmpty() {
		return nil, fmt.Errorf("%w: price table is empty", ErrInvalidInput)
	}

	if logger == nil {
		logger = slog.Default()
	}

	s := &DashboardService{
		table:     table,
		alignment: domain.AlignListwise,
		tracer:    opts.Tracer,
		validate:  validator.New(),
		logger:    logger.With(slog.String("component", "dashboard_service")),
	}

	if opts.Alignment != "" {
		alignment, err := s.parseAlignment(opts.Alignment)
		if err != nil {
			return nil, err
		}
		s.alignment = alignment
	}

	s.snapshot = describe(table, opts.Source)
	s.tracer.RecordSnapshot(context.Background(), opts.Source, table.Len())

	s.logger.Info("DashboardService initialized",
		slog.String("source", s.snapshot.Source),
		slog.Int("rows", s.snapshot.Rows),
		slog.Int("entities", len(table.Entities())),
		slog.String("alignment", string(s.alignment)))

	return s, nil
}

func describe(table *domain.PriceTable, source string) Snapshot {
	snap := Snapshot{
		Source:    source,
		Rows:      table.Len(),
		Observed:  analytics.Observed(table).Len(),
		Predicted: analytics.Predicted(table).Len(),
	}
	if from, to, ok := table.DateRange(); ok {
		snap.From = from.Format(domain.DateLayout)
		snap.To = to.Format(domain.DateLayout)
	}
	return snap
}

// Snapshot describes the loaded dataset
func (s *DashboardService) Snapshot() Snapshot {
	return s.snapshot
}

// Alignment returns the default correlation alignment
func (s *DashboardService) Alignment() domain.Alignment {
	return s.alignment
}

// Entities returns the page metadata and the selectable companies. The
// default selection is the first company in file order.
func (s *DashboardService) Entities(ctx context.Context) (*EntitiesView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entities := s.table.Entities()
	return &EntitiesView{
		Title:       config.AppTitle,
		Description: config.AppDescription,
		Tabs: []Tab{
			{ID: ViewCorrelation, Title: config.TabCorrelation},
			{ID: ViewPrediction, Title: config.TabPrediction},
		},
		Entities: entities,
		Default:  entities[0],
		Snapshot: s.snapshot,
	}, nil
}

// Trend returns the observed price line of every company
func (s *DashboardService) Trend(ctx context.Context) (*TrendView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, done := s.tracer.TraceDerivation(ctx, ViewTrend)
	view := &TrendView{Lines: analytics.Trend(s.table)}
	done(nil)

	return view, nil
}

// Correlation returns the heatmap of pairwise correlations between observed
// prices. An empty alignment selects the configured default.
func (s *DashboardService) Correlation(ctx context.Context, alignment string) (*CorrelationView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	align, err := s.parseAlignment(alignment)
	if err != nil {
		return nil, err
	}

	_, done := s.tracer.TraceDerivation(ctx, ViewCorrelation,
		attribute.String("dashboard.alignment", string(align)))

	matrix := analytics.Correlate(s.table, analytics.WithAlignment(align))
	done(nil)

	s.logger.DebugContext(ctx, "correlation derived",
		slog.String("alignment", string(align)),
		slog.Int("entities", matrix.Size()))

	return &CorrelationView{
		Labels:    matrix.Entities,
		Z:         matrix.Cells(),
		Samples:   matrix.Samples,
		Alignment: matrix.Alignment,
		Matrix:    matrix,
	}, nil
}

// Prediction returns a company's history and its stitched prediction line.
// It fails with ErrEntityNotFound for an unknown company and with an
// *analytics.NoHistoryError when the company has no observed prices.
func (s *DashboardService) Prediction(ctx context.Context, entity string) (*PredictionView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entity, err := s.resolveEntity(entity)
	if err != nil {
		return nil, err
	}

	ctx, done := s.tracer.TraceDerivation(ctx, ViewPrediction,
		attribute.String("dashboard.entity", entity))

	view, err := s.prediction(entity)
	done(err)
	if err != nil {
		s.logger.WarnContext(ctx, "prediction unavailable",
			slog.String("entity", entity),
			slog.String("error", err.Error()))
		return nil, err
	}

	return view, nil
}

func (s *DashboardService) prediction(entity string) (*PredictionView, error) {
	observed, predicted := analytics.EntitySeries(s.table, entity)

	stitched, err := analytics.Stitch(observed, predicted)
	if err != nil {
		var nh *analytics.NoHistoryError
		if errors.As(err, &nh) {
			nh.Entity = entity
		}
		return nil, err
	}

	return &PredictionView{
		Entity:     entity,
		History:    observed.Points(),
		Prediction: stitched,
		Summary:    analytics.Summarize(stitched),
	}, nil
}

// Predictions derives every company's prediction concurrently. A company
// without history gets an error entry instead of failing the overview.
func (s *DashboardService) Predictions(ctx context.Context) (*PredictionsOverview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, done := s.tracer.TraceDerivation(ctx, ViewPredictions)

	entities := s.table.Entities()
	entries := make([]PredictionEntry, len(entities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, entity := range entities {
		i, entity := i, entity
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			entry := PredictionEntry{Entity: entity}
			view, err := s.prediction(entity)
			switch {
			case err == nil:
				entry.View = view
			case errors.Is(err, analytics.ErrNoHistory):
				entry.Error = err.Error()
				entry.Code = EntryCodeNoHistory
			default:
				return fmt.Errorf("prediction for %q: %w", entity, err)
			}

			entries[i] = entry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		done(err)
		return nil, err
	}
	done(nil)

	overview := &PredictionsOverview{Entries: entries}
	for _, e := range entries {
		if e.Error != "" {
			overview.Failed++
		}
	}

	s.logger.DebugContext(ctx, "predictions derived",
		slog.Int("entities", len(entries)),
		slog.Int("failed", overview.Failed))

	return overview, nil
}

// ExportInfo describes a written export
type ExportInfo struct {
	Filename    string
	Format      exporter.Format
	ContentType string
	Rows        int
}

// ExportTable validates an export request and derives the table it names
func (s *DashboardService) ExportTable(ctx context.Context, req ExportRequest) (exporter.Table, ExportRequest, error) {
	req, err := s.normalizeExport(req)
	if err != nil {
		return exporter.Table{}, req, err
	}

	switch req.View {
	case ViewCorrelation:
		view, err := s.Correlation(ctx, req.Alignment)
		if err != nil {
			return exporter.Table{}, req, err
		}
		return exporter.CorrelationTable(view.Matrix), req, nil

	case ViewTrend:
		view, err := s.Trend(ctx)
		if err != nil {
			return exporter.Table{}, req, err
		}
		return exporter.TrendTable(view.Lines), req, nil

	case ViewPrediction:
		view, err := s.Prediction(ctx, req.Entity)
		if err != nil {
			return exporter.Table{}, req, err
		}
		return exporter.PredictionTable(view.History, view.Prediction), req, nil
	}

	return exporter.Table{}, req, fmt.Errorf("%w: %q", ErrUnknownView, req.View)
}

// Export derives the requested view and writes it to w as CSV or XLSX
func (s *DashboardService) Export(ctx context.Context, w io.Writer, req ExportRequest) (*ExportInfo, error) {
	table, req, err := s.ExportTable(ctx, req)
	if err != nil {
		return nil, err
	}

	format := exporter.Format(req.Format)
	if err := exporter.Export(w, format, table); err != nil {
		return nil, fmt.Errorf("write %s export of %s: %w", format, req.View, err)
	}

	s.tracer.RecordExport(ctx, req.View, string(format))
	s.logger.InfoContext(ctx, "view exported",
		slog.String("view", req.View),
		slog.String("format", string(format)),
		slog.String("entity", req.Entity),
		slog.Int("rows", len(table.Rows)))

	return &ExportInfo{
		Filename:    exporter.Filename(req.View, req.Entity, format),
		Format:      format,
		ContentType: format.ContentType(),
		Rows:        len(table.Rows),
	}, nil
}

func (s *DashboardService) normalizeExport(req ExportRequest) (ExportRequest, error) {
	req.View = strings.ToLower(strings.TrimSpace(req.View))
	req.Format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(req.Format)), ".")
	req.Entity = strings.TrimSpace(req.Entity)
	req.Alignment = strings.ToLower(strings.TrimSpace(req.Alignment))

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return req, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		fe := verrs[0]
		switch fe.Field() {
		case "View":
			return req, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownView, req.View, strings.Join(ExportViews, ", "))
		case "Format":
			return req, fmt.Errorf("%w: %q (want csv or xlsx)", ErrInvalidFormat, req.Format)
		case "Alignment":
			return req, fmt.Errorf("%w: %q (want listwise or pairwise)", ErrInvalidAlignment, req.Alignment)
		default:
			return req, fmt.Errorf("%w: %s failed %s", ErrInvalidInput, strings.ToLower(fe.Field()), fe.Tag())
		}
	}

	return req, nil
}

func (s *DashboardService) parseAlignment(value string) (domain.Alignment, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return s.alignment, nil
	}

	alignment := domain.Alignment(value)
	if !alignment.Valid() {
		return "", fmt.Errorf("%w: %q (want listwise or pairwise)", ErrInvalidAlignment, value)
	}
	return alignment, nil
}

func (s *DashboardService) resolveEntity(entity string) (string, error) {
	entity = strings.TrimSpace(entity)
	if entity == "" {
		return "", fmt.Errorf("%w: entity is required", ErrInvalidInput)
	}
	if !s.table.HasEntity(entity) {
		return "", fmt.Errorf("%w: %q", ErrEntityNotFound, entity)
	}
	return entity, nil
}
