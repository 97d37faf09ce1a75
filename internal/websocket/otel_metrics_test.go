package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTelMetrics(t *testing.T) {
	// The global meter provider defaults to a no-op implementation, so
	// instrument creation succeeds without an exporter installed.
	metrics, err := NewOTelMetrics()
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.connectionsTotal)
	assert.NotNil(t, metrics.connectionsActive)
	assert.NotNil(t, metrics.connectionDuration)
	assert.NotNil(t, metrics.messagesTotal)
	assert.NotNil(t, metrics.broadcastOperations)
	assert.NotNil(t, metrics.clientCount)
}

func TestOTelMetricsRecordingDoesNotPanic(t *testing.T) {
	metrics, err := NewOTelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordConnection(ctx, "client-1", "127.0.0.1:1234")
		metrics.RecordMessageSent(ctx, "server_message", "client-1", 128)
		metrics.RecordMessageReceived(ctx, "client_message", "client-1", 32)
		metrics.RecordBroadcast(ctx, "column:analyzed", 3, 3, 0)
		metrics.RecordClientCount(ctx, 3)
		metrics.RecordQueueDepth(ctx, 5, "broadcast")
		metrics.RecordDroppedMessage(ctx, "column:analyzed", "buffer_full")
		metrics.RecordDisconnection(ctx, "client-1", time.Minute, "normal")
	})
}

func TestInitOTelMetrics(t *testing.T) {
	original := globalOTelMetrics
	defer func() { globalOTelMetrics = original }()

	globalOTelMetrics = nil
	assert.Nil(t, GetOTelMetrics())

	require.NoError(t, InitOTelMetrics())
	assert.NotNil(t, GetOTelMetrics())
}
