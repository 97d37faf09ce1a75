package infrastructure

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestSystemMetricsCollect(t *testing.T) {
	meter := sdkmetric.NewMeterProvider().Meter("test")

	metrics, err := NewSystemMetrics(meter)
	require.NoError(t, err)

	start := time.Now().Add(-2 * time.Second)
	stats := metrics.Collect(context.Background(), start)
	require.NotNil(t, stats)

	assert.Greater(t, stats.GoRoutines, int64(0))
	assert.Greater(t, stats.MemoryUsage, int64(0))
	assert.Greater(t, stats.MemorySystem, int64(0))
	assert.Greater(t, stats.CPUCount, 0)
	assert.GreaterOrEqual(t, stats.ProcessUptime, 2*time.Second)
	assert.False(t, stats.Timestamp.IsZero())
}

func TestSystemMetricsCollector(t *testing.T) {
	meter := sdkmetric.NewMeterProvider().Meter("test")

	collector, err := NewSystemMetricsCollector(meter, 10*time.Millisecond)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		collector.Start(context.Background())
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	collector.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}

	stats := collector.GetCurrentStats(context.Background())
	require.NotNil(t, stats)
	assert.Greater(t, stats.GoRoutines, int64(0))
}

func TestSystemStatsFormat(t *testing.T) {
	stats := &SystemStats{
		GoRoutines:      12,
		MemoryUsage:     64 << 20,
		MemoryAllocated: 128 << 20,
		MemorySystem:    256 << 20,
		GCCount:         3,
		LastGCPause:     2 * time.Millisecond,
		CPUCount:        8,
		ProcessUptime:   90 * time.Second,
		Timestamp:       time.Date(2025, 7, 14, 10, 30, 0, 0, time.UTC),
	}

	formatted := stats.FormatStats()

	rt, ok := formatted["runtime"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, int64(12), rt["goroutines"])
	assert.Equal(t, int64(64), rt["memory_usage_mb"])
	assert.Equal(t, int64(2), rt["last_gc_pause_ms"])

	sys, ok := formatted["system"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 8, sys["cpu_count"])
	assert.Equal(t, 90.0, sys["uptime_seconds"])

	assert.Equal(t, "2025-07-14T10:30:00Z", formatted["timestamp"])
}
