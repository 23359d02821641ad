package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"JournalDigest/internal/config"
	"JournalDigest/internal/domain"
	"JournalDigest/internal/logging"
	"JournalDigest/internal/ports"
	"JournalDigest/internal/scanner"
)

// ErrEmptyFeed reports a source that answered but yielded no usable entries.
var ErrEmptyFeed = errors.New("feed has no entries")

// StrategySource implements ports.FeedSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.FeedSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry.
func NewStrategySource(reg *scanner.Registry, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		logger:   logging.OrDiscard(log),
	}
}

// Fetch runs the scanner registered for source.Kind and bounds the result to source.MaxItems.
func (s *StrategySource) Fetch(ctx context.Context, source config.SourceConfig) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(source.Kind)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.Name, err)
	}

	results, err := strategy.Scan(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("scan source %s: %w", source.Name, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("source %s: %w", source.Name, ErrEmptyFeed)
	}

	if source.MaxItems > 0 && len(results) > source.MaxItems {
		results = results[:source.MaxItems]
	}
	for i := range results {
		results[i].Source = source.Name
	}

	s.logger.Debug("source produced articles", "source", source.Name, "kind", source.Kind, "count", len(results))
	return results, nil
}
