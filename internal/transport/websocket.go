// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	applog "audioviz/internal/log"
)

// WebSocketHub serves analysis frames as JSON over a /ws endpoint.
// Frames queue on a buffered channel; when it fills the newest frame
// is dropped rather than stalling the publisher.
type WebSocketHub struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan *Frame
	doneChan  chan struct{}
	server    *http.Server
	listener  net.Listener
	closeOnce sync.Once
}

var _ Transport = (*WebSocketHub)(nil)

// NewWebSocketHub creates a hub that will listen on addr
// (host:port; an empty host binds all interfaces).
func NewWebSocketHub(addr string) *WebSocketHub {
	return &WebSocketHub{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Render clients come from anywhere.
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan *Frame, 256),
		doneChan:  make(chan struct{}),
	}
}

// Start binds the listener and launches the HTTP server and broadcast
// pump goroutines.
func (h *WebSocketHub) Start() error {
	l, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("websocket hub: listen on %s: %w", h.addr, err)
	}
	h.listener = l

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	h.server = &http.Server{Handler: mux}

	go func() {
		applog.Infof("WebSocketHub: serving frames on ws://%s/ws", l.Addr())
		if err := h.server.Serve(l); err != nil && err != http.ErrServerClosed {
			applog.Errorf("WebSocketHub: server error: %v", err)
		}
	}()
	go h.pumpBroadcasts()

	return nil
}

// Addr returns the bound listener address, useful when the configured
// port was 0.
func (h *WebSocketHub) Addr() string {
	if h.listener == nil {
		return h.addr
	}
	return h.listener.Addr().String()
}

// ClientCount reports the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

func (h *WebSocketHub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Errorf("WebSocketHub: upgrade error: %v", err)
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.clientsMu.Unlock()
	applog.Infof("WebSocketHub: client connected, total: %d", total)

	// Drain reads until the peer goes away, then unregister.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.clientsMu.Lock()
				delete(h.clients, conn)
				total := len(h.clients)
				h.clientsMu.Unlock()
				conn.Close()
				applog.Infof("WebSocketHub: client disconnected, total: %d", total)
				return
			}
		}
	}()
}

// pumpBroadcasts drains the frame queue into every connected client.
// Write failures evict the client.
func (h *WebSocketHub) pumpBroadcasts() {
	for {
		select {
		case frame := <-h.broadcast:
			h.clientsMu.Lock()
			for client := range h.clients {
				if err := client.WriteJSON(frame); err != nil {
					applog.Debugf("WebSocketHub: dropping client: %v", err)
					client.Close()
					delete(h.clients, client)
				}
			}
			h.clientsMu.Unlock()
		case <-h.doneChan:
			return
		}
	}
}

// Send queues a frame for broadcast, dropping it when the queue is
// full. Returns an error only after Close.
func (h *WebSocketHub) Send(frame *Frame) error {
	select {
	case <-h.doneChan:
		return fmt.Errorf("websocket hub: closed")
	default:
	}

	select {
	case h.broadcast <- frame:
	default:
		// Queue full, shed the frame.
	}
	return nil
}

// Close disconnects all clients and shuts the server down. Idempotent.
func (h *WebSocketHub) Close() error {
	var err error
	h.closeOnce.Do(func() {
		applog.Infof("WebSocketHub: closing")
		close(h.doneChan)

		h.clientsMu.Lock()
		for client := range h.clients {
			client.Close()
		}
		h.clients = make(map[*websocket.Conn]bool)
		h.clientsMu.Unlock()

		if h.server != nil {
			err = h.server.Close()
		}
	})
	return err
}
