package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// BridgeRequest is one bridge invocation over the websocket.
type BridgeRequest struct {
	ID     string          `json:"id"`
	Action string          `json:"action"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// BridgeResponse answers one invocation. Status is "completed", "error" or
// "unhandled".
type BridgeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// wsCallback routes bridge callbacks back onto one connection, serialized by
// a shared write lock.
type wsCallback struct {
	mu     *sync.Mutex
	conn   *websocket.Conn
	id     string
	action string
}

func (c *wsCallback) Success(payload any) {
	bridgeActionsTotal.WithLabelValues(c.action, "completed").Inc()
	c.send(BridgeResponse{ID: c.id, Status: "completed", Result: payload})
}

func (c *wsCallback) Error(msg string) {
	bridgeActionsTotal.WithLabelValues(c.action, "error").Inc()
	c.send(BridgeResponse{ID: c.id, Status: "error", Error: msg})
}

func (c *wsCallback) send(resp BridgeResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Encoding bridge response failed", "error", err)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Writing bridge response failed", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// bridgeWebSocketHandler carries bridge request/response traffic over one
// websocket connection.
func (s *Server) bridgeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	connID := uuid.NewString()
	slog.Info("Bridge connection established", "conn_id", connID, "remote_addr", r.RemoteAddr)

	s.handleBridgeConnection(conn, connID)
}

func (s *Server) handleBridgeConnection(conn *websocket.Conn, connID string) {
	// Read deadline plus pong refresh keeps half-dead connections from
	// hanging around.
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	writeMu := &sync.Mutex{}
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("Bridge connection error", "conn_id", connID, "error", err)
			}
			break
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType != websocket.TextMessage {
			continue
		}
		s.handleBridgeMessage(conn, writeMu, connID, data)
	}
}

func (s *Server) handleBridgeMessage(conn *websocket.Conn, writeMu *sync.Mutex, connID string, data []byte) {
	var req BridgeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		cb := &wsCallback{mu: writeMu, conn: conn}
		cb.send(BridgeResponse{Status: "error", Error: "malformed bridge request"})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	slog.Debug("Bridge request", "conn_id", connID, "request_id", req.ID, "action", req.Action)

	cb := &wsCallback{mu: writeMu, conn: conn, id: req.ID, action: req.Action}
	if !s.adapter.Execute(req.Action, req.Args, cb) {
		bridgeActionsTotal.WithLabelValues(req.Action, "unhandled").Inc()
		cb.send(BridgeResponse{ID: req.ID, Status: "unhandled"})
	}
}
