package ports

import (
	"context"
	"time"

	"JournalDigest/internal/config"
	"JournalDigest/internal/domain"
)

// FeedSource pulls candidate articles from a single configured source.
type FeedSource interface {
	Fetch(ctx context.Context, source config.SourceConfig) ([]domain.Article, error)
}

// SourceCount is the number of stored records for one source.
type SourceCount struct {
	Source string
	Count  int
}

// NoveltyStore remembers which links were already delivered.
type NoveltyStore interface {
	Exists(ctx context.Context, link string) (bool, error)
	CommitBatch(ctx context.Context, articles []domain.Article) error
	Stats(ctx context.Context) ([]SourceCount, error)
}

// JudgeRequest carries everything the semantic judge sees about an article.
type JudgeRequest struct {
	Interest string
	Title    string
	Summary  string
}

// SemanticJudge asks an external model whether an article matches the interest profile.
// It returns the raw categorical answer.
type SemanticJudge interface {
	Judge(ctx context.Context, req JudgeRequest) (string, error)
}

// Message is a fully rendered digest ready for a transport.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Sender submits a message; a nil error means the transport acknowledged it.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
