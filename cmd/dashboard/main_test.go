package main

import (
	"bytes"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipdash/internal/dataset"
	handlers "shipdash/internal/transport/http"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestWebFS(t *testing.T) {
	files := webFS()
	require.NotNil(t, files)

	for _, name := range []string{"index.html", "app.js", "style.css"} {
		t.Run(name, func(t *testing.T) {
			info, err := fs.Stat(files, name)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		})
	}
}

func TestWebFS_PageRenders(t *testing.T) {
	page, err := handlers.NewPageHandler(webFS(), handlers.PageData{
		Title:       "Ship prices",
		Description: "Three shipbuilders",
		Version:     "test",
		ChartCDN:    "https://cdn.plot.ly",
	}, nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	page.ServeIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Ship prices</title>")
	assert.Contains(t, body, `src="https://cdn.plot.ly/plotly-`)
	assert.Contains(t, body, `src="/app.js"`)
	// Scripts are external only
	assert.Equal(t, 2, strings.Count(body, "<script"))
	assert.Equal(t, 2, strings.Count(body, "<script src="))
}

func TestWebFS_ScriptUsesDashboardAPI(t *testing.T) {
	data, err := fs.ReadFile(webFS(), "app.js")
	require.NoError(t, err)

	script := string(data)
	for _, want := range []string{`"/api/dashboard"`, `"/entities"`, `"/trend"`, `"/correlation?align="`, `"/prediction/"`, "Plotly.newPlot"} {
		assert.Contains(t, script, want)
	}
}

func TestReportStartupError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name: "missing data file",
			err: &dataset.DataUnavailableError{
				Path: "data/ship_bigdata.csv",
				Err:  fs.ErrNotExist,
			},
			contains: []string{"Could not find or read the data file", "data/ship_bigdata.csv"},
		},
		{
			name: "malformed row is detailed",
			err: &dataset.DataUnavailableError{
				Path:   "data/ship_bigdata.csv",
				Line:   7,
				Reason: "unknown Type \"Forecast\"",
			},
			contains: []string{"Could not find or read the data file", "Details:", "line 7"},
		},
		{
			name:     "other startup failure",
			err:      errors.New("config validation failed"),
			contains: []string{"shipdash failed to start", "config validation failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := reportStartupError(&out, tt.err)

			assert.Equal(t, 1, code)
			for _, want := range tt.contains {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}
