package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shipdash/internal/analytics"
	apierrors "shipdash/internal/errors"
	"shipdash/internal/services"
	"shipdash/internal/shared/testutil"
	"shipdash/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Entities(ctx context.Context) (*services.EntitiesView, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.EntitiesView), args.Error(1)
}

func (m *MockDashboardService) Trend(ctx context.Context) (*services.TrendView, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TrendView), args.Error(1)
}

func (m *MockDashboardService) Correlation(ctx context.Context, alignment string) (*services.CorrelationView, error) {
	args := m.Called(alignment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CorrelationView), args.Error(1)
}

func (m *MockDashboardService) Prediction(ctx context.Context, entity string) (*services.PredictionView, error) {
	args := m.Called(entity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PredictionView), args.Error(1)
}

func (m *MockDashboardService) Predictions(ctx context.Context) (*services.PredictionsOverview, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PredictionsOverview), args.Error(1)
}

func (m *MockDashboardService) Export(ctx context.Context, w io.Writer, req services.ExportRequest) (*services.ExportInfo, error) {
	args := m.Called(w, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ExportInfo), args.Error(1)
}

func newTestRouter(t *testing.T, svc DashboardServiceInterface) chi.Router {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	handler := NewDashboardHandler(svc, logger, apierrors.NewErrorHandler(logger, false))

	r := chi.NewRouter()
	r.Mount("/api/dashboard", handler.Routes())
	return r
}

func one() *float64 {
	v := 1.0
	return &v
}

func TestDashboardHandler_Views(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockDashboardService)
		expectedStatus int
		expectedBody   []string
	}{
		{
			name: "entities",
			path: "/api/dashboard/entities",
			setupMock: func(m *MockDashboardService) {
				m.On("Entities").Return(&services.EntitiesView{
					Entities: []string{"HD", "Samsung", "Hanwha"},
					Default:  "HD",
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"status":"success"`, `"count":3`, `"default":"HD"`},
		},
		{
			name: "trend",
			path: "/api/dashboard/trend",
			setupMock: func(m *MockDashboardService) {
				m.On("Trend").Return(&services.TrendView{Lines: []domain.Line{{
					Entity: "HD",
					Points: []domain.SeriesPoint{{Date: testutil.Day("2024-01-01"), Price: 100}},
				}}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"lines":[{"entity":"HD","points":[{"date":"2024-01-01","price":100}]}]`},
		},
		{
			name: "correlation passes alignment through",
			path: "/api/dashboard/correlation?align=pairwise",
			setupMock: func(m *MockDashboardService) {
				m.On("Correlation", "pairwise").Return(&services.CorrelationView{
					Labels:    []string{"HD", "Samsung"},
					Z:         [][]*float64{{one(), nil}, {nil, one()}},
					Alignment: domain.AlignPairwise,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"z":[[1,null],[null,1]]`, `"alignment":"pairwise"`},
		},
		{
			name: "correlation with bad alignment",
			path: "/api/dashboard/correlation?align=kendall",
			setupMock: func(m *MockDashboardService) {
				m.On("Correlation", "kendall").Return(nil, fmt.Errorf("%w: %q", services.ErrInvalidAlignment, "kendall"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   []string{`"type":"/errors/validation"`, `"field":"align"`},
		},
		{
			name: "prediction",
			path: "/api/dashboard/prediction/HD",
			setupMock: func(m *MockDashboardService) {
				m.On("Prediction", "HD").Return(&services.PredictionView{Entity: "HD"}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"entity":"HD"`},
		},
		{
			name: "prediction for escaped name",
			path: "/api/dashboard/prediction/Hyundai%20Mipo",
			setupMock: func(m *MockDashboardService) {
				m.On("Prediction", "Hyundai Mipo").Return(nil, fmt.Errorf("%w: %q", services.ErrEntityNotFound, "Hyundai Mipo"))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   []string{`"type":"/errors/data/entity-not-found"`, `"error_code":"ENTITY_NOT_FOUND"`, `Hyundai Mipo`},
		},
		{
			name: "prediction without history",
			path: "/api/dashboard/prediction/Daewoo",
			setupMock: func(m *MockDashboardService) {
				m.On("Prediction", "Daewoo").Return(nil, &analytics.NoHistoryError{Entity: "Daewoo", Predicted: 2})
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   []string{`"type":"/errors/data/no-history"`, `"status":422`},
		},
		{
			name: "predictions overview",
			path: "/api/dashboard/predictions",
			setupMock: func(m *MockDashboardService) {
				m.On("Predictions").Return(&services.PredictionsOverview{
					Entries: []services.PredictionEntry{
						{Entity: "HD", View: &services.PredictionView{Entity: "HD"}},
						{Entity: "Daewoo", Error: "no history", Code: services.EntryCodeNoHistory},
					},
					Failed: 1,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{`"count":2`, `"failed":1`, `"code":"no_history"`},
		},
		{
			name: "internal error is hidden",
			path: "/api/dashboard/predictions",
			setupMock: func(m *MockDashboardService) {
				m.On("Predictions").Return(nil, errors.New("worker exploded"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   []string{`"Internal Server Error"`},
		},
		{
			name: "cancelled derivation",
			path: "/api/dashboard/trend",
			setupMock: func(m *MockDashboardService) {
				m.On("Trend").Return(nil, context.DeadlineExceeded)
			},
			expectedStatus: http.StatusGatewayTimeout,
			expectedBody:   []string{`"/errors/timeout"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDashboardService)
			tt.setupMock(mockService)
			router := newTestRouter(t, mockService)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			for _, want := range tt.expectedBody {
				assert.Contains(t, rec.Body.String(), want)
			}
			assert.NotContains(t, rec.Body.String(), "worker exploded")
			mockService.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_EntityCtx(t *testing.T) {
	mockService := new(MockDashboardService)
	router := newTestRouter(t, mockService)

	rec := httptest.NewRecorder()
	long := strings.Repeat("x", maxEntityLength+1)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/prediction/"+long, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"entity"`)
	mockService.AssertNotCalled(t, "Prediction", mock.Anything)
}

func TestDashboardHandler_Export(t *testing.T) {
	t.Run("download", func(t *testing.T) {
		mockService := new(MockDashboardService)
		want := services.ExportRequest{View: "prediction", Format: "csv", Entity: "HD", Alignment: ""}
		mockService.On("Export", mock.Anything, want).
			Run(func(args mock.Arguments) {
				_, _ = io.WriteString(args.Get(0).(io.Writer), "Date,Company,Series,Price\n")
			}).
			Return(&services.ExportInfo{
				Filename:    "prediction_HD.csv",
				Format:      "csv",
				ContentType: "text/csv; charset=utf-8",
				Rows:        5,
			}, nil)

		router := newTestRouter(t, mockService)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/export/prediction.csv?entity=HD", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="prediction_HD.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "26", rec.Header().Get("Content-Length"))
		assert.Equal(t, "Date,Company,Series,Price\n", rec.Body.String())
		mockService.AssertExpectations(t)
	})

	tests := []struct {
		name           string
		path           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"unknown view", "/api/dashboard/export/volume.csv", services.ErrUnknownView, http.StatusBadRequest, `"field":"view"`},
		{"bad format", "/api/dashboard/export/trend.pdf", services.ErrInvalidFormat, http.StatusBadRequest, `"field":"format"`},
		{"missing entity", "/api/dashboard/export/prediction.xlsx", services.ErrInvalidInput, http.StatusBadRequest, `"field":"entity"`},
		{"unknown entity", "/api/dashboard/export/prediction.csv?entity=Nope", services.ErrEntityNotFound, http.StatusNotFound, `Nope`},
		{"encoder failure", "/api/dashboard/export/trend.xlsx", errors.New("disk full"), http.StatusInternalServerError, `"type":"/errors/export/failed"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockDashboardService)
			mockService.On("Export", mock.Anything, mock.Anything).Return(nil, tt.err)

			router := newTestRouter(t, mockService)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			assert.Empty(t, rec.Header().Get("Content-Disposition"))
		})
	}
}

// The handlers against the real service and the sample snapshot
func TestDashboardHandler_WithService(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc, err := services.NewDashboardServiceWithLogger(
		domain.NewPriceTable(testutil.WithPredictionOnly(testutil.SampleRecords(), "Daewoo")),
		services.DashboardOptions{Source: "ship_sample.csv"}, logger)
	require.NoError(t, err)
	router := newTestRouter(t, svc)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("prediction is stitched to history", func(t *testing.T) {
		rec := get("/api/dashboard/prediction/HD")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Status string `json:"status"`
			Data   struct {
				History    []map[string]interface{} `json:"history"`
				Prediction struct {
					Points []map[string]interface{} `json:"points"`
				} `json:"prediction"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		assert.Equal(t, "success", resp.Status)
		require.Len(t, resp.Data.History, 2)
		require.Len(t, resp.Data.Prediction.Points, 3)
		assert.Equal(t, resp.Data.History[1], resp.Data.Prediction.Points[0])
		assert.Equal(t, "2024-01-04", resp.Data.Prediction.Points[2]["date"])
		assert.Equal(t, 107.0, resp.Data.Prediction.Points[2]["price"])
	})

	t.Run("company without history", func(t *testing.T) {
		rec := get("/api/dashboard/prediction/Daewoo")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), `"entity":"Daewoo"`)
	})

	t.Run("overview keeps the other companies", func(t *testing.T) {
		rec := get("/api/dashboard/predictions")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"failed":1`)
	})

	t.Run("correlation export", func(t *testing.T) {
		rec := get("/api/dashboard/export/correlation.csv")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename="correlation.csv"`, rec.Header().Get("Content-Disposition"))
		assert.Contains(t, rec.Body.String(), "Company,HD,Samsung,Hanwha")
	})

	t.Run("export format is case insensitive", func(t *testing.T) {
		rec := get("/api/dashboard/export/trend.XLSX")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	})
}

func TestIsMappedError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{services.ErrEntityNotFound, true},
		{&analytics.NoHistoryError{Entity: "Daewoo"}, true},
		{services.ErrInvalidAlignment, true},
		{services.ErrUnknownView, true},
		{services.ErrInvalidFormat, true},
		{fmt.Errorf("export: %w", services.ErrInvalidInput), true},
		{errors.New("worker exploded"), false},
		{context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, isMappedError(tt.err))
		})
	}
}
