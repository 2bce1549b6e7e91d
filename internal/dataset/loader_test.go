package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shipdash/pkg/contracts/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLoad_SampleFile(t *testing.T) {
	table, err := Load(filepath.Join("testdata", "ship_sample.csv"))
	require.NoError(t, err)

	assert.Equal(t, 12, table.Len())
	assert.Equal(t, []string{"HD", "Samsung", "Hanwha"}, table.Entities())

	first := table.At(0)
	assert.Equal(t, "HD", first.Entity)
	assert.Equal(t, day("2024-01-01"), first.Date)
	assert.Equal(t, domain.KindObserved, first.Kind)
	assert.Equal(t, 100.0, first.Value())

	last, ok := table.Last()
	require.True(t, ok)
	assert.Equal(t, "Hanwha", last.Entity)
	assert.Equal(t, domain.KindPredicted, last.Kind)
	assert.Equal(t, 25600.0, last.Value())
}

func TestLoad_Idempotent(t *testing.T) {
	path := filepath.Join("testdata", "ship_sample.csv")

	first, err := Load(path)
	require.NoError(t, err)
	second, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Records(), second.Records())
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ship_bigdata.csv")

	table, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, table)
	assert.True(t, errors.Is(err, ErrDataUnavailable))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	var dataErr *DataUnavailableError
	require.True(t, errors.As(err, &dataErr))
	assert.Equal(t, path, dataErr.Path)
	assert.Contains(t, dataErr.UserMessage(), "ship_bigdata.csv")
}

func TestLoad_Directory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoad_SortsByDateKeepingFileOrder(t *testing.T) {
	path := writeCSV(t, `Date,Company,Type,Price,Predicted_Price
2024-01-02,B,History,20,
2024-01-01,A,History,10,
2024-01-02,A,History,11,
2024-01-01,B,History,19,
`)

	table, err := Load(path)
	require.NoError(t, err)

	records := table.Records()
	require.Len(t, records, 4)
	assert.Equal(t, []string{"B", "A"}, table.Entities())

	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.Entity + "@" + r.Date.Format(domain.DateLayout)
	}
	assert.Equal(t, []string{"A@2024-01-01", "B@2024-01-01", "B@2024-01-02", "A@2024-01-02"}, got)
}

func TestLoad_HeaderVariants(t *testing.T) {
	path := writeCSV(t, "\ufeff date , COMPANY,type,Volume,price,predicted_price\n"+
		"2024/01/01,HD,History,9000,100,\n"+
		"2024-01-02T15:04:05Z,HD,Prediction,9100,,105.5\n")

	table, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, day("2024-01-01"), table.At(0).Date)
	assert.Equal(t, day("2024-01-02"), table.At(1).Date)
	assert.Equal(t, 105.5, table.At(1).PredictedPrice)
}

func TestLoad_SkipsBlankLines(t *testing.T) {
	path := writeCSV(t, "Date,Company,Type,Price,Predicted_Price\n2024-01-01,HD,History,100,\n,,,,\n2024-01-02,HD,History,101,\n")

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine int
		reason   string
	}{
		{
			name:     "empty file",
			wantLine: 1,
			content:  "",
			reason:   "empty file",
		},
		{
			name:     "header only",
			wantLine: 1,
			content:  "Date,Company,Type,Price,Predicted_Price\n",
			reason:   "only a header",
		},
		{
			name:     "missing column",
			wantLine: 1,
			content:  "Date,Company,Type,Price\n2024-01-01,HD,History,100\n",
			reason:   "Predicted_Price",
		},
		{
			name:     "bad date",
			content:  "Date,Company,Type,Price,Predicted_Price\n2024-01-01,HD,History,100,\n01/02/2024,HD,History,101,\n",
			wantLine: 3,
			reason:   "parse date",
		},
		{
			name:     "unknown type",
			content:  "Date,Company,Type,Price,Predicted_Price\n2024-01-01,HD,Forecast,100,\n",
			wantLine: 2,
			reason:   "parse type",
		},
		{
			name:     "missing observed price",
			content:  "Date,Company,Type,Price,Predicted_Price\n2024-01-01,HD,History,,100\n",
			wantLine: 2,
			reason:   "missing Price",
		},
		{
			name:     "missing predicted price",
			content:  "Date,Company,Type,Price,Predicted_Price\n2024-01-01,HD,Prediction,100,\n",
			wantLine: 2,
			reason:   "missing Predicted_Price",
		},
		{
			name:     "unparseable price",
			content:  "Date,Company,Type,Price,Predicted_Price\n2024-01-01,HD,History,abc,\n",
			wantLine: 2,
			reason:   "parse Price",
		},
		{
			name:     "empty company",
			content:  "Date,Company,Type,Price,Predicted_Price\n2024-01-01, ,History,100,\n",
			wantLine: 2,
			reason:   "empty company",
		},
		{
			name:     "duplicate row",
			content:  "Date,Company,Type,Price,Predicted_Price\n2024-01-01,HD,History,100,\n2024-01-01,HD,History,101,\n",
			wantLine: 3,
			reason:   "duplicate",
		},
		{
			name:    "broken quoting",
			content: "Date,Company,Type,Price,Predicted_Price\n2024-01-01,\"HD,History,100,\n",
			reason:  "read file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Load(writeCSV(t, tt.content))
			require.Error(t, err)
			assert.Nil(t, table)
			assert.ErrorIs(t, err, ErrDataUnavailable)

			var dataErr *DataUnavailableError
			require.ErrorAs(t, err, &dataErr)
			assert.Equal(t, tt.wantLine, dataErr.Line)
			assert.Contains(t, dataErr.Error(), tt.reason)
		})
	}
}

func TestLoad_SameDateDifferentKindIsNotDuplicate(t *testing.T) {
	path := writeCSV(t, "Date,Company,Type,Price,Predicted_Price\n2024-01-01,HD,History,100,\n2024-01-01,HD,Prediction,,100\n")

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Date", "Company", "Type", "Price", "Predicted_Price"},
		{"2024-01-01", "HD", "History", 100, nil},
		{"2024-01-02", "HD", "History", 102, nil},
		{"2024-01-03", "HD", "Prediction", nil, 105},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"HD"}, table.Entities())
	assert.Equal(t, 102.0, table.At(1).Price)
	assert.Equal(t, 105.0, table.At(2).PredictedPrice)
}

func TestLoad_XLSXDateCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Date", "Company", "Type", "Price", "Predicted_Price"},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "HD", "History", 100, nil},
		{time.Date(2024, 1, 3, 15, 30, 0, 0, time.UTC), "HD", "History", 8100.5, nil},
		{"2024-01-04", "HD", "Prediction", nil, 105},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	dates := make([]string, table.Len())
	for i := range dates {
		dates[i] = table.At(i).Date.Format(domain.DateLayout)
	}
	assert.Equal(t, []string{"2024-01-02", "2024-01-03", "2024-01-04"}, dates)
	assert.Equal(t, 8100.5, table.At(1).Price)
	assert.Equal(t, 105.0, table.At(2).PredictedPrice)
}

func TestConvertSerialDates(t *testing.T) {
	rows := [][]string{
		{"\ufeffdate", "Company"},
		{"45293", "HD"},
		{"2024-01-03", "HD"},
		{},
	}
	convertSerialDates(rows, false)

	assert.Equal(t, "2024-01-02", rows[1][0])
	assert.Equal(t, "2024-01-03", rows[2][0])
	assert.Empty(t, rows[3])
}

func TestLoad_CorruptXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoadContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := LoadContext(ctx, filepath.Join("testdata", "ship_sample.csv"))
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2024-03-05", "2024-03-05", false},
		{"2024/03/05", "2024-03-05", false},
		{"2024-03-05 23:59:59", "2024-03-05", false},
		{"2024-03-05T10:00:00+09:00", "2024-03-05", false},
		{"05/03/2024", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format(domain.DateLayout))
			assert.Equal(t, time.UTC, got.Location())
			assert.Zero(t, got.Hour())
		})
	}
}
