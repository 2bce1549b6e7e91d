package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipdash/internal/shared/testutil"
)

type stubSnapshot struct {
	snap Snapshot
}

func (s stubSnapshot) Snapshot() Snapshot { return s.snap }

func TestHealthService_ReadinessCheck(t *testing.T) {
	dashboard, _ := newTestService(t, testutil.SampleRecords())

	tests := []struct {
		name       string
		data       SnapshotProvider
		wantStatus string
		wantData   string
	}{
		{"no snapshot", nil, "not_ready", "not_ready"},
		{"empty snapshot", stubSnapshot{}, "not_ready", "not_ready"},
		{"loaded snapshot", stubSnapshot{snap: Snapshot{Source: "x.csv", Rows: 3}}, "ready", "ready"},
		{"dashboard service", dashboard, "ready", "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService("1.2.3", tt.data, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "1.2.3", status.Version)

			data, ok := status.Services["data"].(ServiceHealth)
			require.True(t, ok)
			assert.Equal(t, tt.wantData, data.Status)
			assert.NotEmpty(t, data.Message)
		})
	}
}

func TestHealthService_ReadinessMessage(t *testing.T) {
	dashboard, _ := newTestService(t, testutil.SampleRecords())
	hs := NewHealthService("dev", dashboard, nil)

	data := hs.ReadinessCheck(context.Background()).Services["data"].(ServiceHealth)
	assert.Equal(t, "12 rows from ship_sample.csv (2024-01-01 to 2024-01-04)", data.Message)
}

func TestHealthService_HealthAndLiveness(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hs := NewHealthServiceWithBuildInfo("1.0.0", "2024-05-01T10:00:00Z", nil, logger)

	assert.True(t, logs.ContainsMessage("HealthService initialized"))

	health := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.0.0", health.Version)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "go_version")
	assert.Contains(t, live.Runtime, "goroutines")
}

func TestHealthService_Version(t *testing.T) {
	t.Run("with build time", func(t *testing.T) {
		hs := NewHealthServiceWithBuildInfo("1.0.0", "2024-05-01T10:00:00Z", nil, nil)
		info := hs.Version()
		assert.Equal(t, "1.0.0", info["version"])
		assert.Equal(t, "2024-05-01T10:00:00Z", info["build_time"])
		assert.Contains(t, info, "go_version")
	})

	t.Run("without build time", func(t *testing.T) {
		hs := NewHealthService("dev", nil, nil)
		assert.NotContains(t, hs.Version(), "build_time")
	})
}
