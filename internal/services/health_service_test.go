package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invdash/internal/config"
	apierrors "invdash/internal/errors"
	"invdash/internal/selection"
	"invdash/internal/shared/testutil"
)

type fakeCache struct{ hits, misses int64 }

func (f fakeCache) Stats() (int64, int64) { return f.hits, f.misses }
func (f fakeCache) Len() int              { return 2 }

func TestReadinessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	dir := t.TempDir()

	hs := NewHealthService("1.0.0", "", config.PathsConfig{DataDir: dir}, fakeCache{hits: 3, misses: 1}, logger)
	status := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "2 workbooks cached, 3 hits, 1 misses", status.Services["cache"].(ServiceHealth).Message)

	hs = NewHealthService("1.0.0", "", config.PathsConfig{DataDir: filepath.Join(dir, "absent")}, nil, logger)
	status = hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", status.Status)
	assert.Equal(t, "not_ready", status.Services["data"].(ServiceHealth).Status)
	assert.Equal(t, "ready", status.Services["cache"].(ServiceHealth).Status)
}

func TestSystemStats(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	dir := t.TempDir()
	testutil.WriteWorkbook(t, selection.PathFor(dir, drlKey), testutil.LongSheet("Reward"))
	testutil.WriteWorkbook(t, selection.TimingPathFor(dir, drlKey), testutil.LongSheet("Time taken"))
	testutil.WriteWorkbook(t, filepath.Join(dir, "nested", "b.xlsx"), testutil.LongSheet("Reward"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	hs := NewHealthService("1.0.0", "2026-01-01", config.PathsConfig{DataDir: dir}, fakeCache{hits: 5}, logger)
	stats, err := hs.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Workbooks)
	assert.Equal(t, 1, stats.TimingWorkbooks)
	assert.Equal(t, 1, stats.Unrecognized)
	assert.Positive(t, stats.TotalSizeBytes)
	require.NotNil(t, stats.DataUpdatedAt)
	assert.Equal(t, int64(5), stats.CacheHits)
	assert.Equal(t, 2, stats.CacheEntries)

	v := hs.Version()
	assert.Equal(t, "2026-01-01", v["build_time"])
	assert.Equal(t, config.AppName, v["name"])

	assert.Equal(t, "alive", hs.LivenessCheck(context.Background()).Status)
	assert.Equal(t, "ok", hs.HealthCheck(context.Background()).Status)

	hs = NewHealthService("1.0.0", "", config.PathsConfig{DataDir: filepath.Join(dir, "absent")}, nil, logger)
	_, err = hs.SystemStats(context.Background())
	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeUnavailable, appErr.Type)
}
