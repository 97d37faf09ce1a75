// Package websocket pushes analysis progress events to connected
// clients. The hub owns the client set; analyses never block on a
// slow consumer.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"benfordlens/internal/infrastructure"
	"benfordlens/pkg/contracts/events"
)

// Hub maintains the set of active clients and fans envelopes out to
// them. Register/unregister/broadcast all flow through the Run loop
// so client bookkeeping stays single-threaded.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	// Keepalive timing for client pumps, overridable from config.
	pingPeriod time.Duration
	pongWait   time.Duration

	totalConnections  int64
	activeConnections int64
	messagesSent      int64
	messagesReceived  int64
	connectionErrors  int64

	quit        chan struct{}
	running     bool
	metricsQuit chan struct{}
}

// NewHub creates a hub with default keepalive timing. Call Start to
// launch the run loop.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	return &Hub{
		broadcast:   make(chan []byte, 64),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		clients:     make(map[*Client]bool),
		logger:      logger,
		pingPeriod:  defaultPingPeriod,
		pongWait:    defaultPongWait,
		quit:        make(chan struct{}),
		metricsQuit: make(chan struct{}),
	}
}

// SetTiming overrides the keepalive timing before Start. Non-positive
// values keep the defaults; the ping period is clamped below the pong
// wait so a healthy peer is never timed out between pings.
func (h *Hub) SetTiming(pingPeriod, pongWait time.Duration) {
	if pongWait > 0 {
		h.pongWait = pongWait
	}
	if pingPeriod > 0 && pingPeriod < h.pongWait {
		h.pingPeriod = pingPeriod
	}
}

// Start launches the hub's run loop and metrics reporting.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
	go h.reportMetrics()
}

// Run processes register, unregister and broadcast requests until the
// hub is stopped.
func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.activeConnections = int64(count)
			h.mu.Unlock()

			ctx := context.Background()
			if client.traceID != "" {
				ctx = infrastructure.WithTraceID(ctx, client.traceID)
			}

			h.logger.InfoContext(ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			GetMetrics().RecordConnection()
			if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
				otelMetrics.RecordConnection(ctx, client.id, client.remoteAddr)
				otelMetrics.RecordClientCount(ctx, int64(count))
			}

			// Greet the new client so it can key on the contract
			// version before any progress events arrive.
			welcome := events.NewEnvelope(events.EventConnect, map[string]interface{}{
				"status":    "connected",
				"client_id": client.id,
			})
			welcome.ID = uuid.New().String()
			welcome.TraceID = client.traceID

			if jsonData, err := json.Marshal(welcome); err == nil {
				select {
				case client.send <- jsonData:
				default:
					h.logger.WarnContext(ctx, "connect event dropped, client buffer full",
						slog.String("client_id", client.id))
				}
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.activeConnections = int64(count)
				h.mu.Unlock()

				ctx := context.Background()
				if client.traceID != "" {
					ctx = infrastructure.WithTraceID(ctx, client.traceID)
				}

				h.logger.InfoContext(ctx, "client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))

				GetMetrics().RecordDisconnection(time.Since(client.connectedAt))
				if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
					otelMetrics.RecordDisconnection(ctx, client.id, time.Since(client.connectedAt), "normal")
					otelMetrics.RecordClientCount(ctx, int64(count))
				}
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			successCount := 0
			failCount := 0

			for _, client := range clients {
				select {
				case client.send <- message:
					successCount++
					h.messagesSent++
				default:
					// Slow consumer. Cut it loose rather than stall
					// the analysis feed for everyone else.
					failCount++
					h.mu.Lock()
					close(client.send)
					delete(h.clients, client)
					h.mu.Unlock()

					GetMetrics().RecordDroppedMessage()

					ctx := context.Background()
					if client.traceID != "" {
						ctx = infrastructure.WithTraceID(ctx, client.traceID)
					}
					h.logger.WarnContext(ctx, "client send buffer full, disconnecting",
						slog.String("client_id", client.id))
				}
			}

			h.logger.Debug("broadcast delivered",
				slog.Int("client_count", len(clients)),
				slog.Int("success_count", successCount),
				slog.Int("fail_count", failCount),
				slog.Int("message_size", len(message)))
		}
	}
}

// BroadcastEvent wraps data in a versioned envelope and fans it out to
// every connected client.
func (h *Hub) BroadcastEvent(eventType events.EventType, data interface{}) {
	h.BroadcastEventWithTrace(eventType, data, "")
}

// BroadcastEventWithTrace is BroadcastEvent carrying the trace ID of
// the request that triggered the event.
func (h *Hub) BroadcastEventWithTrace(eventType events.EventType, data interface{}, traceID string) {
	env := events.NewEnvelope(eventType, data)
	env.TraceID = traceID
	h.BroadcastEnvelope(env)
}

// BroadcastEnvelope sends a pre-built envelope, stamping an ID when the
// caller did not set one.
func (h *Hub) BroadcastEnvelope(env events.Envelope) {
	if env.ID == "" {
		env.ID = uuid.New().String()
	}

	jsonData, err := json.Marshal(env)
	if err != nil {
		ctx := context.Background()
		if env.TraceID != "" {
			ctx = infrastructure.WithTraceID(ctx, env.TraceID)
		}
		h.logger.ErrorContext(ctx, "error marshaling envelope",
			slog.String("error", err.Error()),
			slog.String("event_type", string(env.Type)))
		return
	}

	select {
	case h.broadcast <- jsonData:
	case <-h.quit:
		return
	}

	if otelMetrics := GetOTelMetrics(); otelMetrics != nil {
		otelMetrics.RecordBroadcast(context.Background(), string(env.Type), int64(h.ClientCount()), 0, 0)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop shuts the hub down and closes every client send channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	close(h.metricsQuit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// reportMetrics logs hub throughput every 30 seconds while running.
func (h *Hub) reportMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.metricsQuit:
			return

		case <-ticker.C:
			h.mu.RLock()
			activeClients := len(h.clients)
			h.mu.RUnlock()

			GetMetrics().RecordQueueDepth(int64(len(h.broadcast)))

			h.logger.Info("websocket hub metrics",
				slog.Int("active_clients", activeClients),
				slog.Int64("total_connections", h.totalConnections),
				slog.Int64("messages_sent", h.messagesSent),
				slog.Int64("messages_received", h.messagesReceived),
				slog.Int("broadcast_queue", len(h.broadcast)))
		}
	}
}

// GetHubMetrics returns current hub counters for the health endpoint.
func (h *Hub) GetHubMetrics() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_received": h.messagesReceived,
		"connection_errors": h.connectionErrors,
	}
}
