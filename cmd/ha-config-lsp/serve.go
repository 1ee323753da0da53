package main

import (
	"context"
	"errors"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/completion"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/config"
	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/langserver"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/shutdown"
)

// transportFromFlags picks the transport; at most one may be selected.
func transportFromFlags(cmd *cli.Command) (langserver.Transport, string, error) {
	tcp, ws := cmd.String("tcp"), cmd.String("ws")

	selected := 0
	for _, set := range []bool{cmd.Bool("stdio"), tcp != "", ws != ""} {
		if set {
			selected++
		}
	}
	if selected > 1 {
		return "", "", errs.ErrInvalidSetting("transport", "choose only one of --stdio, --tcp and --ws")
	}

	switch {
	case tcp != "":
		return langserver.TransportTCP, tcp, nil
	case ws != "":
		return langserver.TransportWebSocket, ws, nil
	default:
		return langserver.TransportStdio, "", nil
	}
}

// entitySource returns the Home Assistant backed source, or an empty one
// when no token is configured. The returned func releases the connection.
func entitySource(cfg config.Config, logger *zap.SugaredLogger) (completion.EntitySource, func(context.Context) error, error) {
	if !cfg.HasToken() {
		logger.Warnw("No Home Assistant token configured, entity completions are disabled",
			"hint", "set --token, HASS_TOKEN or SUPERVISOR_TOKEN",
		)
		empty := completion.SourceFunc(func(context.Context) ([]completion.Candidate, error) {
			return nil, nil
		})
		return empty, func(context.Context) error { return nil }, nil
	}

	conn, err := newConnection(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return conn, func(context.Context) error { return conn.Close() }, nil
}

// newService wires the entity id contribution to source.
func newService(cfg config.Config, source completion.EntitySource, logger *zap.SugaredLogger) (*langserver.Service, error) {
	props, err := cfg.PropertySet()
	if err != nil {
		return nil, err
	}
	return langserver.NewService(logger, completion.NewEntityIDs(source, completion.WithProperties(props))), nil
}

func serveAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	transport, addr, err := transportFromFlags(cmd)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	coord, baseCtx := shutdown.New(shutdown.WithLogger(logger))
	stopSignals := coord.HandleSignals()
	defer stopSignals()

	source, release, err := entitySource(cfg, logger)
	if err != nil {
		return err
	}
	coord.RegisterCleanup("home-assistant", release)

	service, err := newService(cfg, source, logger)
	if err != nil {
		return err
	}

	var cleanExit bool
	handler := langserver.NewHandler(baseCtx, service, langserver.HandlerOptions{
		Name:           appName,
		Version:        Version,
		Logger:         logger,
		MaxDocuments:   cfg.MaxDocuments,
		RequestTimeout: cfg.Timeout,
		OnExit: func(clean bool) {
			cleanExit = clean
			go coord.Shutdown("client exit")
		},
	})
	srv := langserver.NewServer(handler, cfg.LogLevel == "debug")

	logger.Infow("Starting language server",
		"version", Version,
		"transport", string(transport),
		"addr", addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- langserver.Run(srv, transport, addr)
	}()

	select {
	case err := <-errCh:
		coord.Shutdown("server stopped")
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case <-coord.Done():
		if coord.ShutdownReason() == "client exit" && !cleanExit {
			return cli.Exit("client exited without shutdown", 1)
		}
		return nil
	}
}
