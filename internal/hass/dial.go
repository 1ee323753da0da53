package hass

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

// DialOptions configures Dial.
type DialOptions struct {
	URL      string
	Token    string
	Insecure bool
	Timeout  time.Duration
}

// Dial connects to url, authenticates with token and returns a running Client.
func Dial(ctx context.Context, opts DialOptions) (*Client, error) {
	if opts.Token == "" {
		return nil, errs.ErrMissingToken()
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: opts.Timeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	if opts.Insecure {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for self-signed instances
	}

	dialCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	conn, resp, err := dialer.DialContext(dialCtx, opts.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, errs.ErrConnect(opts.URL, err)
	}

	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}
	if err := authenticate(conn, opts.Token); err != nil {
		conn.Close()
		return nil, err
	}
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	return NewClient(conn), nil
}

func authenticate(conn *websocket.Conn, token string) error {
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		return errs.ErrAuthFailed("failed to read auth_required").WithCause(err)
	}
	if msg.Type != "auth_required" {
		return errs.ErrAuthFailed("unexpected message type: " + msg.Type)
	}

	authMsg := map[string]string{
		"type":         "auth",
		"access_token": token,
	}
	if err := conn.WriteJSON(authMsg); err != nil {
		return errs.ErrMessageSend(err)
	}

	var result Message
	if err := conn.ReadJSON(&result); err != nil {
		return errs.ErrAuthFailed("failed to read auth result").WithCause(err)
	}
	if result.Type != "auth_ok" {
		return errs.ErrAuthFailed(result.Message)
	}
	return nil
}
