// Package websocket broadcasts chat bubble updates to browser clients.
package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/chatstream"
	csjson "github.com/fwojciec/chatstream/json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultWriteTimeout = 10 * time.Second
	readLimit           = 4 << 10
)

// Interface compliance checks.
var (
	_ chatstream.Surface = (*Hub)(nil)
	_ http.Handler       = (*Hub)(nil)
)

// Hub is a Surface that fans every update out to connected websocket
// clients. New clients first receive the store contents, so a page opened
// mid-conversation sees every bubble in its latest state.
//
// Writes are serialized under one lock: clients observe updates in the
// order Render was called, and a replay is never interleaved with a live
// broadcast.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	store    chatstream.Store
	logger   *zap.Logger
	upgrader websocket.Upgrader
	timeout  time.Duration
}

// Option configures a Hub.
type Option func(*Hub)

// WithStore replays st.List() to every client on connect.
func WithStore(st chatstream.Store) Option {
	return func(h *Hub) { h.store = st }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// WithWriteTimeout bounds each write to a single client.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) { h.timeout = d }
}

// WithAllowAnyOrigin disables the same-origin check on upgrade.
func WithAllowAnyOrigin() Option {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
}

// NewHub creates a Hub with no clients.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		logger:  zap.NewNop(),
		timeout: defaultWriteTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     sameOrigin,
		},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// sameOrigin accepts non-browser clients (no Origin header) and browser
// clients served from the same host.
func sameOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// ServeHTTP upgrades the request, replays the store and keeps the
// connection registered until the client goes away. Incoming messages are
// discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	if err := h.register(conn); err != nil {
		h.logger.Warn("replay failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		_ = conn.Close()
		return
	}
	h.logger.Info("client connected", zap.String("remote", r.RemoteAddr))

	conn.SetReadLimit(readLimit)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
	h.logger.Info("client disconnected", zap.String("remote", r.RemoteAddr))
}

func (h *Hub) register(conn *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.store != nil {
		updates, err := h.store.List()
		if err != nil {
			return err
		}
		for _, u := range updates {
			if err := h.write(conn, u); err != nil {
				return err
			}
		}
	}
	h.clients[conn] = struct{}{}
	return nil
}

// Render sends u to every connected client. A client whose write fails is
// disconnected; the failure is logged and not returned, so one slow browser
// never fails a stream.
func (h *Hub) Render(u chatstream.MessageUpdate) error {
	data, err := csjson.MarshalUpdate(u)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(h.timeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("dropping client", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	return nil
}

func (h *Hub) write(conn *websocket.Conn, u chatstream.MessageUpdate) error {
	data, err := csjson.MarshalUpdate(u)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(h.timeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	_ = conn.Close()
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close sends a close frame to every client and disconnects them.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
		delete(h.clients, conn)
	}
	return nil
}
