// Package main is the entry point for the ha-config-lsp language server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/config"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/hass"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/logging"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const (
	appName        = "ha-config-lsp"
	defaultEnvFile = ".env"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// env files must be loaded before flags read their env sources
	if err := config.LoadEnvFile(envFileFromArgs(args[1:])); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := newApp(stdout, stderr).Run(context.Background(), args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			if msg := exitErr.Error(); msg != "" {
				fmt.Fprintf(stderr, "Error: %s\n", msg)
			}
			return exitErr.ExitCode()
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:    appName,
		Usage:   "Home Assistant configuration language server",
		Version: fmt.Sprintf("%s (built %s, commit %s)", Version, BuildTime, GitCommit),
		Writer:  stdout,
		// exit codes are mapped in run
		ErrWriter:      stderr,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Flags:          globalFlags(),
		Action:         serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the language server (default)",
				Action: serveAction,
			},
			{
				Name:  "entities",
				Usage: "List the entities offered as completions",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the raw states as JSON"},
				},
				Action: entitiesAction,
			},
			{
				Name:      "complete",
				Usage:     "Print the completions at a position in a file",
				ArgsUsage: "FILE LINE COLUMN",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print candidates as JSON"},
				},
				Action: completeAction,
			},
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		// Home Assistant connection
		&cli.StringFlag{
			Name:    "url",
			Usage:   "Home Assistant URL (http(s):// or ws(s)://); defaults to the supervisor",
			Sources: cli.EnvVars("HASS_SERVER"),
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Long-lived access token",
			Sources: cli.EnvVars("HASS_TOKEN", "SUPERVISOR_TOKEN"),
		},
		&cli.BoolFlag{
			Name:    "insecure",
			Usage:   "Skip TLS certificate verification",
			Sources: cli.EnvVars("HASS_IGNORE_CERTIFICATES"),
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Timeout for connecting and for each request",
			Value: config.DefaultTimeout,
		},
		&cli.DurationFlag{
			Name:  "entity-cache-ttl",
			Usage: "How long fetched entities are reused (0 disables caching)",
			Value: config.DefaultEntityCacheTTL,
		},
		&cli.StringSliceFlag{
			Name:  "entity-property",
			Usage: "Property that holds entity ids (repeatable, replaces the defaults)",
		},
		&cli.IntFlag{
			Name:  "max-documents",
			Usage: "Maximum number of open documents",
			Value: config.DefaultMaxDocuments,
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "File with KEY=value pairs loaded before flags are read",
			Value: defaultEnvFile,
		},
		// Logging
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn or error",
			Value:   config.DefaultLogLevel,
			Sources: cli.EnvVars("HA_LSP_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:  "log-json",
			Usage: "Log as JSON instead of console text",
		},
		// Transport
		&cli.BoolFlag{Name: "stdio", Usage: "Talk to the client over stdin/stdout (default)"},
		&cli.StringFlag{Name: "tcp", Usage: "Listen for a client on this TCP address"},
		&cli.StringFlag{Name: "ws", Usage: "Listen for a client on this websocket address"},
	}
}

// envFileFromArgs finds --env-file in args without a full flag parse.
func envFileFromArgs(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
		if after, ok := strings.CutPrefix(arg, "--env-file="); ok {
			return after
		}
	}
	return defaultEnvFile
}

// loadConfig builds and validates the configuration from parsed flags.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	cfg.URL = cmd.String("url")
	cfg.Token = cmd.String("token")
	cfg.Insecure = cmd.Bool("insecure")
	cfg.Timeout = cmd.Duration("timeout")
	cfg.EntityCacheTTL = cmd.Duration("entity-cache-ttl")
	cfg.EntityProperties = cmd.StringSlice("entity-property")
	cfg.MaxDocuments = cmd.Int("max-documents")
	cfg.LogLevel = cmd.String("log-level")
	cfg.LogJSON = cmd.Bool("log-json")

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger logs to the command's error writer.
func newLogger(cmd *cli.Command, cfg config.Config) (*zap.SugaredLogger, error) {
	return logging.New(logging.Options{
		Level:  cfg.LogLevel,
		JSON:   cfg.LogJSON,
		Output: zapcore.AddSync(cmd.Root().ErrWriter),
	})
}

func newConnection(cfg config.Config, logger *zap.SugaredLogger) (*hass.Connection, error) {
	url, err := cfg.WebSocketURL()
	if err != nil {
		return nil, err
	}
	return hass.NewConnection(
		hass.DialOptions{
			URL:      url,
			Token:    cfg.Token,
			Insecure: cfg.Insecure,
			Timeout:  cfg.Timeout,
		},
		hass.WithCacheTTL(cfg.EntityCacheTTL),
		hass.WithLogger(logger),
	), nil
}
