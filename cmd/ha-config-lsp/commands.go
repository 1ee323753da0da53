package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/completion"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/document"
	errs "github.com/home-assistant-blueprints/ha-config-lsp/internal/errors"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/hass"
)

func entitiesAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.HasToken() {
		return errs.ErrMissingToken()
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	conn, err := newConnection(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	states, err := conn.States(ctx)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(states)
	}
	printStates(w, states)
	return nil
}

func printStates(w io.Writer, states []hass.State) {
	cyan := color.New(color.FgCyan).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	for _, s := range states {
		if name := s.FriendlyName(); name != "" {
			fmt.Fprintf(w, "%s  %s  %s\n", cyan(s.EntityID), green(s.State), faint(name))
			continue
		}
		fmt.Fprintf(w, "%s  %s\n", cyan(s.EntityID), green(s.State))
	}
	fmt.Fprintf(w, "\n%d entities\n", len(states))
}

// candidateJSON is the --json form of a completion candidate.
type candidateJSON struct {
	Label         string `json:"label"`
	Detail        string `json:"detail,omitempty"`
	Documentation string `json:"documentation,omitempty"`
	FilterText    string `json:"filter_text,omitempty"`
	InsertText    string `json:"insert_text,omitempty"`
}

func completeAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 3 {
		return cli.Exit("usage: "+appName+" complete FILE LINE COLUMN", 2)
	}
	path := cmd.Args().Get(0)
	line, err := positiveArg("line", cmd.Args().Get(1))
	if err != nil {
		return err
	}
	column, err := positiveArg("column", cmd.Args().Get(2))
	if err != nil {
		return err
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	source, release, err := entitySource(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = release(ctx) }()

	service, err := newService(cfg, source, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// positions on the command line are 1-based
	pos := document.Position{Line: line - 1, Character: column - 1}
	candidates, err := service.Complete(ctx, path, string(text), pos)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	if cmd.Bool("json") {
		out := make([]candidateJSON, len(candidates))
		for i, c := range candidates {
			out[i] = candidateJSON{
				Label:         c.Label,
				Detail:        c.Detail,
				Documentation: c.Documentation,
				FilterText:    c.FilterText,
				InsertText:    c.InsertText,
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	printCandidates(w, candidates)
	return nil
}

func printCandidates(w io.Writer, candidates []completion.Candidate) {
	faint := color.New(color.Faint).SprintFunc()
	for _, c := range candidates {
		if c.Detail != "" {
			fmt.Fprintf(w, "%s  %s\n", c.Label, faint(c.Detail))
			continue
		}
		fmt.Fprintln(w, c.Label)
	}
}

func positiveArg(name, s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errs.ErrInvalidSetting(name, "must be a positive integer, got "+strconv.Quote(s))
	}
	return n, nil
}
