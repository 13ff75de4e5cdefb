// Package wsbroker broadcasts registry events to WebSocket clients. It backs
// the /v1/node-types/watch endpoint so UIs and tooling can follow publishes
// in real time.
package wsbroker

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/event"
	"github.com/AgentRuntimeProtocol/ARP-Template-NodeRegistry/metric"
)

const (
	// sendBuffer is the per-client outbound queue; a client that falls this
	// far behind is dropped rather than allowed to block the broadcast
	sendBuffer = 32

	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Broker fans registry events out to connected WebSocket clients
type Broker struct {
	logger  *slog.Logger
	metrics *metric.Metrics

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	closed  bool
}

// NewBroker creates a WebSocket event broker
func NewBroker(logger *slog.Logger, metrics *metric.Metrics) *Broker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Broker{
		logger:  logger.With("component", "wsbroker"),
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The watch stream is read-only public data; origin checks are
			// the deployment proxy's concern
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan []byte),
	}
}

// ServeHTTP upgrades the request and streams events until the client leaves
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("WebSocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	send := make(chan []byte, sendBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = conn.Close()
		return
	}
	b.clients[conn] = send
	count := len(b.clients)
	b.mu.Unlock()

	b.recordClients(count)
	b.logger.Debug("Watch client connected", "remote", r.RemoteAddr, "clients", count)

	go b.writePump(conn, send)
	b.readPump(conn)
}

// readPump discards client frames and detects disconnects
func (b *Broker) readPump(conn *websocket.Conn) {
	defer b.removeClient(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the client's send queue and keeps the connection alive
func (b *Broker) writePump(conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				b.removeClient(conn)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				b.removeClient(conn)
				return
			}
		}
	}
}

// Notify implements event.Notifier by broadcasting the event to all clients.
// Slow clients are dropped instead of blocking the caller.
func (b *Broker) Notify(ev event.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "type", ev.Type)
		return
	}

	b.mu.RLock()
	var slow []*websocket.Conn
	for conn, send := range b.clients {
		select {
		case send <- data:
		default:
			slow = append(slow, conn)
		}
	}
	delivered := len(b.clients) - len(slow)
	b.mu.RUnlock()

	for _, conn := range slow {
		b.logger.Warn("Dropping slow watch client", "remote", conn.RemoteAddr())
		b.removeClient(conn)
	}

	if b.metrics != nil && delivered > 0 {
		b.metrics.RecordEventPublished("websocket")
	}
}

// ClientCount returns the number of connected watch clients
func (b *Broker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Stop disconnects all clients and rejects new ones
func (b *Broker) Stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	clients := b.clients
	b.clients = make(map[*websocket.Conn]chan []byte)
	b.mu.Unlock()

	for conn, send := range clients {
		close(send)
		_ = conn.Close()
	}

	b.recordClients(0)
}

// removeClient drops a single client and closes its queue
func (b *Broker) removeClient(conn *websocket.Conn) {
	b.mu.Lock()
	send, exists := b.clients[conn]
	if exists {
		delete(b.clients, conn)
	}
	count := len(b.clients)
	b.mu.Unlock()

	if !exists {
		return
	}

	close(send)
	_ = conn.Close()
	b.recordClients(count)
}

func (b *Broker) recordClients(count int) {
	if b.metrics != nil {
		b.metrics.WatchClients.Set(float64(count))
	}
}
