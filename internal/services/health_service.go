package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"benfordlens/internal/config"
	ws "benfordlens/internal/websocket"
	"benfordlens/pkg/contracts"
)

// HealthService answers the liveness, readiness, and version probes.
type HealthService struct {
	version   contracts.VersionInfo
	paths     *config.Paths
	analysis  *AnalysisService
	hub       *ws.Hub
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health probe response body.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth describes one dependency inside a readiness response.
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemStats summarizes runtime state for the stats endpoint.
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	TotalFiles       int     `json:"total_files"`
	TotalSizeBytes   int64   `json:"total_size_bytes"`
	WebSocketClients int     `json:"websocket_clients"`
	ActiveAnalyses   int     `json:"active_analyses"`
	StoredJobs       int     `json:"stored_jobs"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a health service with its full dependency
// set. analysis and hub may be nil; the matching readiness checks then
// report not_ready.
func NewHealthService(version contracts.VersionInfo, paths *config.Paths, analysis *AnalysisService, hub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("health service initialized",
		slog.String("version", version.Version),
		slog.String("build_time", version.BuildTime),
		slog.String("git_commit", version.GitCommit))

	return &HealthService{
		version:   version,
		paths:     paths,
		analysis:  analysis,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health. The process is healthy as long as
// it can answer at all; readiness is the stricter probe.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
	}
}

// ReadinessCheck verifies every dependency the API needs to serve
// analysis traffic.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Services:  make(map[string]interface{}),
	}

	status.Services["analysis"] = hs.checkAnalysisHealth()
	status.Services["websocket"] = hs.checkWebSocketHealth()
	status.Services["storage"] = hs.checkStorageHealth()

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck reports that the process is alive plus basic runtime
// numbers.
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns the build identity plus uptime.
func (hs *HealthService) Version() map[string]interface{} {
	return map[string]interface{}{
		"version":      hs.version.Version,
		"build_time":   hs.version.BuildTime,
		"git_commit":   hs.version.GitCommit,
		"git_branch":   hs.version.GitBranch,
		"go_version":   hs.version.GoVersion,
		"platform":     hs.version.Platform,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

// SystemStats walks the data directory and samples runtime counters.
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	var totalFiles int
	var totalSize int64

	if hs.paths != nil {
		filepath.Walk(hs.paths.DataDir, func(path string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				totalFiles++
				totalSize += info.Size()
			}
			return nil
		})
	}

	stats := SystemStats{
		UptimeSeconds:  time.Since(hs.startTime).Seconds(),
		TotalFiles:     totalFiles,
		TotalSizeBytes: totalSize,
		GoVersion:      runtime.Version(),
		OS:             runtime.GOOS,
		Arch:           runtime.GOARCH,
	}
	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}
	if hs.analysis != nil {
		stats.ActiveAnalyses = hs.analysis.ActiveJobs()
		stats.StoredJobs = hs.analysis.JobCount()
	}
	return stats, nil
}

// GetDetailedHealth bundles every probe into one response for the
// diagnostics endpoint.
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	stats, _ := hs.SystemStats(ctx)

	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"version":   hs.Version(),
		"stats":     stats,
	}
}

// checkAnalysisHealth verifies the analysis service is attached and
// accepting work.
func (hs *HealthService) checkAnalysisHealth() ServiceHealth {
	if hs.analysis == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "analysis service not attached",
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d active analyses", hs.analysis.ActiveJobs()),
	}
}

// checkWebSocketHealth verifies the hub is attached.
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "websocket hub not attached",
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
	}
}

// checkStorageHealth verifies the workbook and report directories
// exist.
func (hs *HealthService) checkStorageHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "paths not configured",
		}
	}
	for _, dir := range []string{hs.paths.WorkbooksDir, hs.paths.ReportsDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("directory unavailable: %s", dir),
			}
		}
	}
	return ServiceHealth{
		Status: "ready",
	}
}
