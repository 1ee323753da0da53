package langserver

import (
	glspserver "github.com/tliron/glsp/server"

	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

// Transport selects how the server talks to its client.
type Transport string

const (
	TransportStdio     Transport = "stdio"
	TransportTCP       Transport = "tcp"
	TransportWebSocket Transport = "ws"
)

// NewServer wraps h in a glsp server.
func NewServer(h *Handler, debug bool) *glspserver.Server {
	return glspserver.NewServer(h.Protocol(), h.opts.Name, debug)
}

// Run serves srv on transport until the connection ends. addr is only used
// by the TCP and websocket transports.
func Run(srv *glspserver.Server, transport Transport, addr string) error {
	switch transport {
	case TransportStdio, "":
		return srv.RunStdio()
	case TransportTCP:
		if addr == "" {
			return errs.ErrInvalidSetting("tcp", "listen address required")
		}
		return srv.RunTCP(addr)
	case TransportWebSocket:
		if addr == "" {
			return errs.ErrInvalidSetting("ws", "listen address required")
		}
		return srv.RunWebSocket(addr)
	default:
		return errs.ErrInvalidSetting("transport", "unknown transport "+string(transport))
	}
}
