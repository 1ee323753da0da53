// Package logging builds the zap loggers used across the server.
//
// Logs always go to stderr: stdout carries the LSP stream when the server
// runs over stdio.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
)

// Options configures New.
type Options struct {
	// Level is a zap level name such as "debug", "info" or "warn".
	Level string
	// JSON selects the production JSON encoder instead of the console one.
	JSON bool
	// Output defaults to stderr.
	Output zapcore.WriteSyncer
}

// New returns a sugared logger for opts.
func New(opts Options) (*zap.SugaredLogger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(enc, out, level)
	return zap.New(core, zap.ErrorOutput(out)).Sugar(), nil
}

// ParseLevel accepts zap level names case-insensitively; empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zapcore.InfoLevel, errs.ErrInvalidSetting("log-level", err.Error())
	}
	return level, nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
