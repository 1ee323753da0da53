package testfixtures

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// WSHandler serves one accepted websocket connection.
type WSHandler func(*websocket.Conn)

// TestServer starts an httptest server that upgrades every request and
// hands the connection to handler. It is closed when the test ends.
func TestServer(t *testing.T, handler WSHandler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("failed to upgrade: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// WebSocketURL returns the ws:// form of srv's URL.
func WebSocketURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/websocket"
}

// AuthFlowHandler runs the Home Assistant auth handshake and hands the
// connection to afterAuth when the token matches.
func AuthFlowHandler(token string, afterAuth WSHandler) WSHandler {
	return func(conn *websocket.Conn) {
		if err := conn.WriteJSON(NewAuthRequiredMessage()); err != nil {
			return
		}

		var authMsg map[string]any
		if err := conn.ReadJSON(&authMsg); err != nil {
			return
		}

		if authMsg["type"] != "auth" || authMsg["access_token"] != token {
			_ = conn.WriteJSON(NewAuthInvalidMessage("Invalid access token or password"))
			return
		}
		if err := conn.WriteJSON(NewAuthOKMessage()); err != nil {
			return
		}
		if afterAuth != nil {
			afterAuth(conn)
		}
	}
}

// StatesHandler answers every get_states request with states until the
// client disconnects. calls, when non-nil, counts the requests answered.
func StatesHandler(states []HAState, calls *atomic.Int32) WSHandler {
	return func(conn *websocket.Conn) {
		for {
			var req map[string]any
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			id := GetRequestID(req)
			if req["type"] != "get_states" {
				_ = conn.WriteJSON(NewErrorMessage(id, "unknown_command", "Unknown command."))
				continue
			}
			if calls != nil {
				calls.Add(1)
			}
			if err := conn.WriteJSON(NewSuccessMessage(id, states)); err != nil {
				return
			}
		}
	}
}

// ErrorHandler answers every request with an unsuccessful result.
func ErrorHandler(code, message string) WSHandler {
	return func(conn *websocket.Conn) {
		for {
			var req map[string]any
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			if err := conn.WriteJSON(NewErrorMessage(GetRequestID(req), code, message)); err != nil {
				return
			}
		}
	}
}

// ReadThenCloseHandler reads one request and drops the connection.
func ReadThenCloseHandler() WSHandler {
	return func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
		conn.Close()
	}
}

// SilentHandler reads requests and never answers them.
func SilentHandler() WSHandler {
	return func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// ReadRequest reads and decodes one JSON request.
func ReadRequest(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(data, &req))
	return req
}

// GetRequestID extracts the request id from a decoded request.
func GetRequestID(req map[string]any) int {
	if id, ok := req["id"].(float64); ok {
		return int(id)
	}
	return 0
}
