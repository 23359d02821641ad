package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"JournalDigest/internal/classifier"
	"JournalDigest/internal/config"
	"JournalDigest/internal/digest"
	"JournalDigest/internal/domain"
	"JournalDigest/internal/logging"
	"JournalDigest/internal/ports"
)

var (
	// ErrDeliveryFailed means nothing was committed and the same articles will be retried next run.
	ErrDeliveryFailed = errors.New("digest delivery failed")
	// ErrCommitFailed means the digest went out but its articles were not recorded,
	// so the next run delivers them again.
	ErrCommitFailed = errors.New("commit after delivery failed")
)

// ArticleClassifier decides relevance for one article.
type ArticleClassifier interface {
	Classify(ctx context.Context, article domain.Article) classifier.Verdict
}

// Deliverer sends a digest and reports whether the transport acknowledged it.
type Deliverer interface {
	Deliver(ctx context.Context, d *digest.Digest) bool
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources     []config.SourceConfig
	Source      ports.FeedSource
	Store       ports.NoveltyStore
	Classifier  ArticleClassifier
	Delivery    Deliverer
	Concurrency int
	Logger      *slog.Logger
}

// SourceResult is the outcome of processing one source: the unseen articles it
// claimed first, classified and in feed order, or the error that made the run skip it.
type SourceResult struct {
	Source   string
	Articles []domain.Article
	Err      error
}

// RunReport summarizes one pipeline execution.
type RunReport struct {
	RunID         string
	TotalNew      int
	TotalRelevant int
	Delivered     bool
	Committed     int
	Skipped       []string
}

// Pipeline implements the fetch, deduplicate, classify, deliver and commit workflow.
type Pipeline struct {
	sources     []config.SourceConfig
	source      ports.FeedSource
	store       ports.NoveltyStore
	classifier  ArticleClassifier
	delivery    Deliverer
	concurrency int
	logger      *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	concurrency := deps.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		sources:     deps.Sources,
		source:      deps.Source,
		store:       deps.Store,
		classifier:  deps.Classifier,
		delivery:    deps.Delivery,
		concurrency: concurrency,
		logger:      logging.OrDiscard(deps.Logger),
	}
}

// Run executes one pass. Articles are committed only after the digest was delivered.
func (p *Pipeline) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{RunID: uuid.NewString()}
	log := p.logger.With("run_id", report.RunID)
	log.Info("run started", "sources", len(p.sources))

	d, results := p.Collect(ctx, log)
	for _, res := range results {
		if res.Err != nil {
			report.Skipped = append(report.Skipped, res.Source)
		}
	}
	report.TotalNew = d.TotalNew
	report.TotalRelevant = d.TotalRelevant

	if d.IsEmpty() {
		log.Info("no new articles", "skipped_sources", len(report.Skipped))
		return report, nil
	}

	log.Info("delivering digest", "new", d.TotalNew, "relevant", d.TotalRelevant)
	if !p.delivery.Deliver(ctx, d) {
		return report, ErrDeliveryFailed
	}
	report.Delivered = true

	batch := d.All()
	// The digest is already out; finish recording it even if the run is being cancelled.
	if err := p.store.CommitBatch(context.WithoutCancel(ctx), batch); err != nil {
		log.Error("commit failed after delivery, articles will be delivered again next run",
			"articles", len(batch), "error", err)
		return report, fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	report.Committed = len(batch)

	log.Info("run finished", "committed", report.Committed)
	return report, nil
}

// Collect fetches, deduplicates and classifies every source and aggregates the
// outcome into a digest. Nothing is delivered or committed.
func (p *Pipeline) Collect(ctx context.Context, log *slog.Logger) (*digest.Digest, []SourceResult) {
	if log == nil {
		log = p.logger
	}

	results := make([]SourceResult, len(p.sources))
	p.forEachSource(func(i int, src config.SourceConfig) {
		results[i] = p.unseen(ctx, src, log.With("source", src.Name))
	})

	// A link shared by several sources belongs to the first one in configured order
	// and is classified only there.
	claimed := map[string]bool{}
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		kept := results[i].Articles[:0]
		for _, a := range results[i].Articles {
			if claimed[a.Link] {
				continue
			}
			claimed[a.Link] = true
			kept = append(kept, a)
		}
		results[i].Articles = kept
	}

	p.forEachSource(func(i int, _ config.SourceConfig) {
		if results[i].Err != nil {
			return
		}
		for j, a := range results[i].Articles {
			results[i].Articles[j] = p.classifier.Classify(ctx, a).Apply(a)
		}
	})

	d := digest.New()
	for _, res := range results {
		if res.Err != nil {
			log.Warn("source skipped for this run", "source", res.Source, "error", res.Err)
			continue
		}
		for _, a := range res.Articles {
			d.Add(a)
		}
	}
	return d, results
}

// forEachSource runs fn for every configured source on the bounded pool and waits.
func (p *Pipeline) forEachSource(fn func(i int, src config.SourceConfig)) {
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, src := range p.sources {
		g.Go(func() error {
			fn(i, src)
			return nil
		})
	}
	_ = g.Wait()
}

// unseen fetches one source and keeps the candidates the store has not recorded,
// dropping repeated links within the source.
func (p *Pipeline) unseen(ctx context.Context, src config.SourceConfig, log *slog.Logger) SourceResult {
	res := SourceResult{Source: src.Name}

	candidates, err := p.source.Fetch(ctx, src)
	if err != nil {
		res.Err = fmt.Errorf("fetch: %w", err)
		return res
	}

	local := map[string]bool{}
	for _, article := range candidates {
		if local[article.Link] {
			continue
		}
		local[article.Link] = true

		seen, err := p.store.Exists(ctx, article.Link)
		if err != nil {
			res.Err = fmt.Errorf("check %s: %w", article.Link, err)
			res.Articles = nil
			return res
		}
		if !seen {
			res.Articles = append(res.Articles, article)
		}
	}

	log.Debug("source checked", "fetched", len(candidates), "unseen", len(res.Articles))
	return res
}
