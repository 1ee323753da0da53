// Package langserver serves completion contributions over the Language
// Server Protocol.
package langserver

import (
	"context"

	"go.uber.org/zap"

	"github.com/home-assistant-blueprints/ha-config-lsp/internal/completion"
	"github.com/home-assistant-blueprints/ha-config-lsp/internal/document"
)

// Service resolves cursor positions and asks every contribution for
// candidates.
type Service struct {
	contributions []completion.Contribution
	logger        *zap.SugaredLogger
}

// NewService creates a Service. Contributions are consulted in order.
func NewService(logger *zap.SugaredLogger, contributions ...completion.Contribution) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{
		contributions: contributions,
		logger:        logger,
	}
}

// Complete returns the candidates for pos in text. A document that cannot
// be parsed yields no candidates and no error.
func (s *Service) Complete(ctx context.Context, uri, text string, pos document.Position) ([]completion.Candidate, error) {
	req, err := document.Resolve(text, pos)
	if err != nil {
		s.logger.Debugw("Cannot resolve completion position",
			"uri", uri,
			"line", pos.Line,
			"character", pos.Character,
			"error", err,
		)
		return []completion.Candidate{}, nil
	}

	s.logger.Debugw("Resolved completion position",
		"uri", uri,
		"kind", req.Kind.String(),
		"location", req.Location.String(),
		"current_word", req.CurrentWord,
	)

	var result completion.List
	for _, c := range s.contributions {
		if err := s.collect(ctx, c, uri, req, &result); err != nil {
			return nil, err
		}
	}
	return result.Items(), nil
}

func (s *Service) collect(ctx context.Context, c completion.Contribution, uri string, req document.Request, result completion.Collector) error {
	switch req.Kind {
	case document.KindProperty:
		return c.CollectPropertyCompletions(ctx, uri, req.Location, req.CurrentWord, req.AddValue, req.IsLast, result)
	case document.KindValue:
		return c.CollectValueCompletions(ctx, uri, req.Location, req.CurrentKey, result)
	default:
		return c.CollectDefaultCompletions(ctx, uri, result)
	}
}

// Hover returns the info strings every contribution has for the node
// under pos.
func (s *Service) Hover(ctx context.Context, uri, text string, pos document.Position) ([]string, error) {
	req, err := document.Resolve(text, pos)
	if err != nil || req.Kind == document.KindDefault {
		return []string{}, nil
	}

	var info []string
	for _, c := range s.contributions {
		items, err := c.InfoContribution(ctx, uri, req.Target)
		if err != nil {
			return nil, err
		}
		info = append(info, items...)
	}
	if info == nil {
		info = []string{}
	}
	return info, nil
}
