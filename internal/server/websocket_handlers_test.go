package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialBridge(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/bridge"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) BridgeResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var resp BridgeResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestBridgeWebSocketDecode(t *testing.T) {
	conn := dialBridge(t, newTestServer(t, nil))

	args, err := json.Marshal([]string{qrPayload(t, "dock-4")})
	require.NoError(t, err)
	req := BridgeRequest{ID: "req-1", Action: "decode", Args: args}
	require.NoError(t, conn.WriteJSON(req))

	resp := readResponse(t, conn)
	assert.Equal(t, "req-1", resp.ID)
	assert.Equal(t, "completed", resp.Status)

	result, ok := resp.Result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "dock-4", result["text"])
	assert.Equal(t, "QR_CODE", result["format"])
}

func TestBridgeWebSocketUnhandledAction(t *testing.T) {
	conn := dialBridge(t, newTestServer(t, nil))

	require.NoError(t, conn.WriteJSON(BridgeRequest{ID: "req-2", Action: "calibrate"}))

	resp := readResponse(t, conn)
	assert.Equal(t, "req-2", resp.ID)
	assert.Equal(t, "unhandled", resp.Status)
}

func TestBridgeWebSocketMalformedRequest(t *testing.T) {
	conn := dialBridge(t, newTestServer(t, nil))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	resp := readResponse(t, conn)
	assert.Equal(t, "error", resp.Status)
	assert.Contains(t, resp.Error, "malformed")
}

func TestBridgeWebSocketAssignsRequestID(t *testing.T) {
	conn := dialBridge(t, newTestServer(t, nil))

	args, err := json.Marshal([]string{"U1VSRQ"})
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(BridgeRequest{Action: "decode", Args: args}))

	resp := readResponse(t, conn)
	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.ID, "the server correlates even id-less requests")
}
