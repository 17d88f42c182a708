package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"time"

	"invdash/internal/config"
	apierrors "invdash/internal/errors"
	"invdash/internal/files"
)

// CacheStats is the workbook cache as seen by health checks.
type CacheStats interface {
	Stats() (hits, misses int64)
	Len() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	paths     config.PathsConfig
	cache     CacheStats
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemStats describes the dataset and the workbook cache.
type SystemStats struct {
	UptimeSeconds   float64    `json:"uptime_seconds"`
	Workbooks       int        `json:"workbooks"`
	TimingWorkbooks int        `json:"timing_workbooks"`
	Unrecognized    int        `json:"unrecognized_files"`
	TotalSizeBytes  int64      `json:"total_size_bytes"`
	DataUpdatedAt   *time.Time `json:"data_updated_at,omitempty"`
	CacheEntries    int        `json:"cache_entries"`
	CacheHits       int64      `json:"cache_hits"`
	CacheMisses     int64      `json:"cache_misses"`
	GoVersion       string     `json:"go_version"`
}

// NewHealthService creates a health service. cache may be nil when the
// loader is not cached.
func NewHealthService(version, buildTime string, paths config.PathsConfig, cache CacheStats, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("data_dir", paths.DataDir))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		paths:     paths,
		cache:     cache,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports ready once the data directory can be read.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"data":  hs.checkDataHealth(),
			"cache": hs.checkCacheHealth(),
		},
	}

	for name, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"name":         config.AppName,
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

// SystemStats inventories the data directory and reports cache
// effectiveness.
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
	}

	inv, err := files.NewDiscovery(hs.paths.DataDir).FindWorkbooks(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return stats, apierrors.NewUnavailableError("data directory missing", err)
	case err != nil:
		return stats, apierrors.NewStorageError("scan data directory", err)
	}
	stats.Workbooks = len(inv.Workbooks)
	stats.TimingWorkbooks = len(inv.Timing)
	stats.Unrecognized = len(inv.Unrecognized)
	stats.TotalSizeBytes = inv.TotalSize
	if latest, ok := files.GetLatestFile(inv.Workbooks); ok {
		stats.DataUpdatedAt = &latest.ModTime
	}
	if stats.Unrecognized > 0 {
		hs.logger.DebugContext(ctx, "unrecognized workbooks in data directory",
			slog.Int("count", stats.Unrecognized),
			slog.Any("paths", inv.Unrecognized))
	}

	if hs.cache != nil {
		stats.CacheHits, stats.CacheMisses = hs.cache.Stats()
		stats.CacheEntries = hs.cache.Len()
	}
	return stats, nil
}

// checkDataHealth checks that the data directory exists and is readable.
func (hs *HealthService) checkDataHealth() ServiceHealth {
	dataDir := hs.paths.DataDir
	info, err := os.Stat(dataDir)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Data directory not accessible: %v", err)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Data path is not a directory: %s", dataDir)}
	}
	if _, err := os.ReadDir(dataDir); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("Cannot read data directory: %v", err)}
	}
	return ServiceHealth{Status: "ready", Message: "Data directory is readable"}
}

func (hs *HealthService) checkCacheHealth() ServiceHealth {
	if hs.cache == nil {
		return ServiceHealth{Status: "ready", Message: "Workbook cache disabled"}
	}
	hits, misses := hs.cache.Stats()
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d workbooks cached, %d hits, %d misses", hs.cache.Len(), hits, misses),
	}
}
