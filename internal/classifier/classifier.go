// Package classifier decides whether an unseen article is relevant, first by keyword
// and then, when that is inconclusive, by asking a semantic judge.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"JournalDigest/internal/domain"
	"JournalDigest/internal/logging"
	"JournalDigest/internal/ports"
)

// AffirmativeToken is the only judge answer that marks an article relevant.
const AffirmativeToken = "YES"

// Verdict is the outcome for one article. Err holds a judge failure that was
// downgraded to a negative answer.
type Verdict struct {
	Relevant bool
	Method   domain.RelevanceMethod
	Keyword  string
	Answer   string
	Err      error
}

// Apply copies the decision onto the article.
func (v Verdict) Apply(a domain.Article) domain.Article {
	a.Relevant = v.Relevant
	a.Method = v.Method
	return a
}

// Options tune the semantic tier.
type Options struct {
	Interest string
	// MinInterval separates the start of successive judge calls across all callers.
	MinInterval time.Duration
	// Timeout bounds a single judge call; zero means no extra bound.
	Timeout time.Duration
}

// Classifier is safe for concurrent use; the judge limiter is shared by every caller.
type Classifier struct {
	keywords *KeywordMatcher
	judge    ports.SemanticJudge
	opts     Options
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New builds a classifier. judge may be nil, in which case keyword misses are
// reported with MethodNone.
func New(keywords *KeywordMatcher, judge ports.SemanticJudge, opts Options, logger *slog.Logger) *Classifier {
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Classifier{
		keywords: keywords,
		judge:    judge,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logging.OrDiscard(logger),
	}
}

// Classify runs the keyword tier and falls back to the judge.
func (c *Classifier) Classify(ctx context.Context, article domain.Article) Verdict {
	if kw, ok := c.keywords.Match(article.Title, article.Summary); ok {
		return Verdict{Relevant: true, Method: domain.MethodKeyword, Keyword: kw}
	}
	if c.judge == nil {
		return Verdict{Method: domain.MethodNone}
	}

	answer, err := c.askJudge(ctx, article)
	if err != nil {
		c.logger.Warn("semantic judge failed, treating as not relevant",
			"source", article.Source, "link", article.Link, "error", err)
		return Verdict{Method: domain.MethodSemantic, Err: err}
	}

	relevant := IsAffirmative(answer)
	c.logger.Debug("semantic verdict", "link", article.Link, "answer", answer, "relevant", relevant)
	return Verdict{Relevant: relevant, Method: domain.MethodSemantic, Answer: answer}
}

func (c *Classifier) askJudge(ctx context.Context, article domain.Article) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("wait for judge slot: %w", err)
	}

	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	return c.judge.Judge(ctx, ports.JudgeRequest{
		Interest: c.opts.Interest,
		Title:    article.Title,
		Summary:  article.Summary,
	})
}

// IsAffirmative reports whether a raw judge answer is exactly the affirmative token,
// ignoring surrounding whitespace and letter case.
func IsAffirmative(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), AffirmativeToken)
}
