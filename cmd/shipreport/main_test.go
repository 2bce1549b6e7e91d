package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shipdash/internal/dataset"
	"shipdash/internal/services"
	"shipdash/internal/shared/testutil"
)

var sampleFile = filepath.Join("..", "..", "internal", "dataset", "testdata", "ship_sample.csv")

// headerRow matches the correlation header whatever padding the renderer picks
var headerRow = regexp.MustCompile(`\|\s*Company\s*\|\s*HD\s*\|\s*Samsung\s*\|\s*Hanwha\s*\|`)

// execute runs the CLI with args and returns stdout and stderr
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEntities(t *testing.T) {
	out, _, err := execute(t, "entities", "--file", sampleFile, "--color", "never")
	require.NoError(t, err)

	assert.Contains(t, out, "12 rows (6 observed, 6 predicted)")
	assert.Contains(t, out, "* HD\n")
	assert.Contains(t, out, "  Samsung\n")
	assert.Contains(t, out, "  Hanwha\n")
	assert.Less(t, strings.Index(out, "HD"), strings.Index(out, "Samsung"))
}

func TestCorrelation(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains []string
	}{
		{
			name:     "listwise markdown table",
			args:     []string{"correlation", "--file", sampleFile, "--color", "never"},
			contains: []string{"Correlation (listwise alignment)", "1.00", "_3 rows_"},
		},
		{
			name:     "pairwise alignment",
			args:     []string{"correlation", "--file", sampleFile, "--align", "pairwise", "--color", "never"},
			contains: []string{"Correlation (pairwise alignment)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			assert.NotContains(t, out, "\x1b[")
			assert.Regexp(t, headerRow, out)
		})
	}
}

func TestCorrelation_UndefinedCellsAreBlank(t *testing.T) {
	// Samsung never moves, so every pair with it is undefined
	path := testutil.WriteCSV(t, [][]string{
		{"2024-01-01", "HD", "History", "100", ""},
		{"2024-01-01", "Samsung", "History", "8000", ""},
		{"2024-01-02", "HD", "History", "101", ""},
		{"2024-01-02", "Samsung", "History", "8000", ""},
		{"2024-01-03", "HD", "History", "103", ""},
		{"2024-01-03", "Samsung", "History", "8000", ""},
	})

	out, _, err := execute(t, "correlation", "--file", path, "--color", "never")
	require.NoError(t, err)

	assert.NotContains(t, out, "NaN")
	assert.Contains(t, out, "1.00")
	assert.Equal(t, 2, strings.Count(out, "1.00"))
}

func TestCorrelation_ColourAlways(t *testing.T) {
	out, _, err := execute(t, "correlation", "--file", sampleFile, "--color", "always")
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")
}

func TestPredict(t *testing.T) {
	out, _, err := execute(t, "predict", "--file", sampleFile, "--entity", "HD", "--color", "never")
	require.NoError(t, err)

	assert.Contains(t, out, "HD price outlook")
	assert.Contains(t, out, "2024-01-02 | History")
	assert.Contains(t, out, "2024-01-03 | Prediction")
	assert.Contains(t, out, "2024-01-04 | Prediction")
	assert.Contains(t, out, "_3 rows_")
	assert.Contains(t, out, "HD: last observed 102.00 on 2024-01-02, predicted 107.00 on 2024-01-04 over 2 points (+4.90%).")
}

func TestPredict_DefaultsToFirstCompany(t *testing.T) {
	out, _, err := execute(t, "predict", "--file", sampleFile, "--color", "never")
	require.NoError(t, err)
	assert.Contains(t, out, "HD price outlook")
}

func TestPredict_Errors(t *testing.T) {
	noHistory := testutil.WriteCSV(t, [][]string{
		{"2024-01-01", "HD", "History", "100", ""},
		{"2024-01-02", "HD", "Prediction", "", "101"},
		{"2024-01-02", "Daewoo", "Prediction", "", "50"},
	})

	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{
			name:   "unknown company",
			args:   []string{"predict", "--file", sampleFile, "--entity", "Mipo"},
			target: services.ErrEntityNotFound,
		},
		{
			name:   "company without history",
			args:   []string{"predict", "--file", noHistory, "--entity", "Daewoo"},
			target: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, err := execute(t, tt.args...)
			require.Error(t, err)
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target))
			}
			assert.Contains(t, stderr, "Error:")
		})
	}
}

func TestPredictions(t *testing.T) {
	path := testutil.WriteCSV(t, [][]string{
		{"2024-01-01", "HD", "History", "100", ""},
		{"2024-01-02", "HD", "Prediction", "", "110"},
		{"2024-01-02", "Daewoo", "Prediction", "", "50"},
	})

	out, _, err := execute(t, "predictions", "--file", path, "--color", "never")
	require.NoError(t, err)

	assert.Contains(t, out, "Prediction overview")
	assert.Contains(t, out, "+10.00%")
	assert.Contains(t, out, "Daewoo")
	assert.Contains(t, out, "1 of 2 companies have no prediction")
}

func TestExport(t *testing.T) {
	dir := t.TempDir()

	t.Run("csv by extension", func(t *testing.T) {
		target := filepath.Join(dir, "reports", "hd.csv")
		out, _, err := execute(t, "export", "--file", sampleFile, "--view", "prediction", "--entity", "HD", "--out", target, "--color", "never")
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote 5 rows of prediction to "+target)

		data, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Contains(t, string(data), "Date,Company,Series,Price")
	})

	t.Run("xlsx by flag", func(t *testing.T) {
		target := filepath.Join(dir, "correlation.xlsx")
		_, _, err := execute(t, "export", "--file", sampleFile, "--view", "correlation", "--format", "xlsx", "--out", target)
		require.NoError(t, err)

		f, err := excelize.OpenFile(target)
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows(f.GetSheetName(0))
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, []string{"Company", "HD", "Samsung", "Hanwha"}, rows[0])
	})

	t.Run("missing view flag", func(t *testing.T) {
		_, _, err := execute(t, "export", "--file", sampleFile)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "view")
	})

	t.Run("prediction without company", func(t *testing.T) {
		_, _, err := execute(t, "export", "--file", sampleFile, "--view", "prediction", "--out", filepath.Join(dir, "p.csv"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, services.ErrInvalidInput))
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, _, err := execute(t, "export", "--file", sampleFile, "--view", "trend", "--out", filepath.Join(dir, "trend.pdf"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, services.ErrInvalidFormat))
	})
}

func TestMissingDataFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "ship_bigdata.csv")

	_, stderr, err := execute(t, "entities", "--file", missing, "--color", "never")
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrDataUnavailable))
	assert.Contains(t, stderr, "Could not find or read the data file")
}

func TestInvalidColourMode(t *testing.T) {
	_, _, err := execute(t, "entities", "--file", sampleFile, "--color", "sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--color")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "shipreport version")
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"":                "csv",
		"out.csv":         "csv",
		"out.XLSX":        "xlsx",
		"reports/a.b.pdf": "pdf",
	}
	for path, want := range tests {
		assert.Equal(t, want, formatFromPath(path), path)
	}
}
