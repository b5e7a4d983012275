package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/conneroisu/dxcwatch/internal/logging"
	"github.com/conneroisu/dxcwatch/internal/validation"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// HubOptions configures a Hub.
type HubOptions struct {
	// AllowedOrigins restricts browser clients by Origin header. Requests
	// without an Origin header (engines, tools) are always accepted.
	AllowedOrigins []string
	Logger         logging.Logger
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to every connected client. A single goroutine owns
// the client set; handlers talk to it over channels.
type Hub struct {
	allowedOrigins []string
	logger         logging.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	clients atomic.Int32
	// status is the most recent errors event, replayed to new clients.
	status []byte

	ctx          context.Context
	cancel       context.CancelFunc
	done         chan struct{}
	shutdownOnce sync.Once
}

// NewHub creates a hub and starts its goroutine.
func NewHub(opts HubOptions) *Hub {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		allowedOrigins: opts.AllowedOrigins,
		logger:         opts.Logger.WithComponent("notify"),
		register:       make(chan *client),
		unregister:     make(chan *client),
		broadcast:      make(chan []byte, 256),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	clients := make(map[*client]struct{})
	drop := func(c *client) {
		if _, ok := clients[c]; ok {
			delete(clients, c)
			close(c.send)
			h.clients.Store(int32(len(clients)))
		}
	}

	for {
		select {
		case c := <-h.register:
			clients[c] = struct{}{}
			h.clients.Store(int32(len(clients)))
			if h.status != nil {
				c.send <- h.status
			}

		case c := <-h.unregister:
			drop(c)

		case message := <-h.broadcast:
			if isStatus(message) {
				h.status = message
			}
			for c := range clients {
				select {
				case c.send <- message:
				default:
					h.logger.Warn(h.ctx, nil, "Dropping slow notify client")
					drop(c)
				}
			}

		case <-h.ctx.Done():
			for c := range clients {
				drop(c)
			}
			return
		}
	}
}

func isStatus(message []byte) bool {
	var probe struct {
		Type EventType `json:"type"`
	}
	return json.Unmarshal(message, &probe) == nil && probe.Type == EventErrors
}

// ServeHTTP upgrades the request to a WebSocket and streams events to it
// until either side goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.ctx.Err() != nil {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}
	if origin := r.Header.Get("Origin"); origin != "" && len(h.allowedOrigins) > 0 {
		if err := validation.ValidateOrigin(origin, h.allowedOrigins); err != nil {
			h.logger.Warn(r.Context(), err, "Rejected notify client", "remote", r.RemoteAddr)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Origins were checked above.
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	h.logger.Debug(r.Context(), "Notify client connected", "remote", r.RemoteAddr)

	h.write(c)

	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
	h.logger.Debug(r.Context(), "Notify client disconnected", "remote", r.RemoteAddr)
}

// write pumps queued messages to the client. Inbound messages are ignored;
// CloseRead keeps control frames flowing and reports when the peer leaves.
func (h *Hub) write(c *client) {
	readCtx := c.conn.CloseRead(h.ctx)
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			ctx, cancel := context.WithTimeout(readCtx, writeTimeout)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(readCtx, writeTimeout)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}

		case <-readCtx.Done():
			_ = c.conn.Close(websocket.StatusNormalClosure, "")
			return
		}
	}
}

// Publish queues e for every connected client. It never blocks; when the
// queue is full the event is dropped.
func (h *Hub) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Error(h.ctx, err, "Failed to encode notify event")
		return
	}
	if h.ctx.Err() != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn(h.ctx, nil, "Notify queue full, dropping event", "type", string(e.Type))
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int { return int(h.clients.Load()) }

// Shutdown disconnects every client and stops the hub goroutine.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.shutdownOnce.Do(h.cancel)
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
