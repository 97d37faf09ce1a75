package websocket

import (
	"time"

	"benfordlens/pkg/contracts/events"
)

// Connection abstracts the underlying websocket connection so client
// pumps can be tested against a mock.
type Connection interface {
	// WriteMessage writes a message with the given type and payload.
	WriteMessage(messageType int, data []byte) error

	// ReadMessage reads the next message from the connection.
	ReadMessage() (messageType int, p []byte, err error)

	// Close closes the connection.
	Close() error

	// SetReadDeadline sets the read deadline on the connection.
	SetReadDeadline(t time.Time) error

	// SetWriteDeadline sets the write deadline on the connection.
	SetWriteDeadline(t time.Time) error

	// SetReadLimit caps the size of messages read from the peer.
	SetReadLimit(limit int64)

	// SetPongHandler sets the handler for pong messages.
	SetPongHandler(h func(string) error)

	// SetPingHandler sets the handler for ping messages.
	SetPingHandler(h func(string) error)

	// SetCloseHandler sets the handler for close messages.
	SetCloseHandler(h func(code int, text string) error)

	// RemoteAddr returns the remote network address.
	RemoteAddr() string
}

// Broadcaster is the hub surface the analysis service depends on.
// Keeping it narrow lets service tests capture events without running
// a hub.
type Broadcaster interface {
	BroadcastEvent(eventType events.EventType, data interface{})
	BroadcastEventWithTrace(eventType events.EventType, data interface{}, traceID string)
	ClientCount() int
}

// MetricsCollector is the in-process counter surface shared by the hub
// and client pumps.
type MetricsCollector interface {
	RecordConnection()
	RecordDisconnection(duration time.Duration)
	RecordMessage(direction string, size int64, success bool)
	RecordError(errorType string)
	RecordQueueDepth(depth int64)
	RecordDroppedMessage()
	GetSnapshot() map[string]interface{}
	Reset()
}
