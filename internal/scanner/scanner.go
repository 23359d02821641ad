package scanner

import (
	"context"
	"errors"
	"fmt"

	"JournalDigest/internal/config"
	"JournalDigest/internal/domain"
)

// ErrUnknown is returned by Resolve for a kind nobody registered.
var ErrUnknown = errors.New("scanner is not registered")

// Scanner captures a single retrieval strategy (syndication feed, HTML listing, ...).
type Scanner interface {
	Kind() string
	Scan(ctx context.Context, source config.SourceConfig) ([]domain.Article, error)
}

// Registry keeps a mapping from source kinds to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds a registry holding the given scanners.
func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: map[string]Scanner{}}
	for _, s := range scanners {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Kind()] = scanner
}

// Resolve returns a scanner by kind.
func (r *Registry) Resolve(kind string) (Scanner, error) {
	if scanner, ok := r.scanners[kind]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknown, kind)
}
