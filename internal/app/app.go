package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"JournalDigest/internal/classifier"
	"JournalDigest/internal/config"
	"JournalDigest/internal/domain"
	"JournalDigest/internal/infrastructure/llm"
	"JournalDigest/internal/infrastructure/mail"
	"JournalDigest/internal/infrastructure/ml"
	"JournalDigest/internal/infrastructure/parser"
	"JournalDigest/internal/infrastructure/render"
	"JournalDigest/internal/infrastructure/scheduler"
	"JournalDigest/internal/infrastructure/storage"
	"JournalDigest/internal/infrastructure/telegram"
	"JournalDigest/internal/logging"
	"JournalDigest/internal/ports"
	"JournalDigest/internal/scanner"
	"JournalDigest/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Option overrides an adapter that New would otherwise build from config.
type Option func(*options)

type options struct {
	httpClient *http.Client
	sender     ports.Sender
	judge      ports.SemanticJudge
}

// WithHTTPClient sets the client used by the source scanners.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithSender replaces the configured transport.
func WithSender(s ports.Sender) Option {
	return func(o *options) { o.sender = s }
}

// WithJudge replaces the configured semantic judge.
func WithJudge(j ports.SemanticJudge) Option {
	return func(o *options) { o.judge = j }
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.SQLStore
	renderer  *render.Renderer
	pipeline  *usecase.Pipeline
	cron      *scheduler.CronScheduler
	scheduler *usecase.Scheduler
}

// New opens the novelty store and builds every adapter named by cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts ...Option) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	registry := scanner.NewRegistry(
		parser.NewFeedScanner(o.httpClient, cfg.Fetch),
		parser.NewListingScanner(o.httpClient, cfg.Fetch),
	)
	source := parser.NewStrategySource(registry, baseLogger.With("component", "source"))

	judge := o.judge
	if judge == nil {
		if judge, err = newJudge(cfg.Judge); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	cls := classifier.New(
		classifier.NewKeywordMatcher(cfg.Keywords.Allow, cfg.Keywords.MatchSummary),
		judge,
		classifier.Options{
			Interest:    cfg.Judge.Interest,
			MinInterval: cfg.Judge.MinInterval,
			Timeout:     cfg.Judge.Timeout,
		},
		baseLogger.With("component", "classifier"),
	)

	sender := o.sender
	if sender == nil {
		sender = newSender(cfg.Delivery)
	}
	renderer := render.New(cfg.Delivery.SubjectPrefix, cfg.Delivery.SummaryLength)
	delivery := usecase.NewDelivery(renderer, sender, baseLogger.With("component", "delivery"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources:     cfg.Sources,
		Source:      source,
		Store:       store,
		Classifier:  cls,
		Delivery:    delivery,
		Concurrency: cfg.Fetch.Concurrency,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	cron := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location(),
		baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		renderer:  renderer,
		pipeline:  pipeline,
		cron:      cron,
		scheduler: usecase.NewScheduler(cron, pipeline, baseLogger.With("component", "scheduler")),
	}, nil
}

func newJudge(cfg config.JudgeConfig) (ports.SemanticJudge, error) {
	switch cfg.Backend {
	case config.JudgeOpenAI:
		j, err := llm.NewOpenAIJudge(cfg)
		if err != nil {
			return nil, fmt.Errorf("build judge: %w", err)
		}
		return j, nil
	case config.JudgeHTTP:
		return ml.NewClient(cfg.Endpoint, cfg.APIKey, cfg.Timeout), nil
	default:
		return nil, nil
	}
}

func newSender(cfg config.DeliveryConfig) ports.Sender {
	if cfg.Transport == config.TransportTelegram {
		return telegram.NewNotifier(cfg.Telegram, cfg.Timeout)
	}
	return mail.NewSender(cfg.SMTP, cfg.Timeout)
}

// Run performs a single pipeline execution.
func (a *Application) Run(ctx context.Context) (usecase.RunReport, error) {
	return a.pipeline.Run(ctx)
}

// DryRun collects and classifies like Run, writes the rendered digest to w and
// neither delivers nor commits.
func (a *Application) DryRun(ctx context.Context, w io.Writer) error {
	d, results := a.pipeline.Collect(ctx, a.logger.With("component", "pipeline", "dry_run", true))
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(w, "skipped %s: %v\n", res.Source, res.Err)
		}
	}
	if d.IsEmpty() {
		_, err := fmt.Fprintln(w, "no new articles")
		return err
	}
	_, err := fmt.Fprintf(w, "%s\n\n%s", a.renderer.Subject(d), a.renderer.Markdown(d))
	return err
}

// Daemon runs the pipeline on the configured cron schedule until ctx is done.
func (a *Application) Daemon(ctx context.Context) error {
	if err := a.cron.Validate(); err != nil {
		return err
	}
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("daemon started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Location().String(),
		"sources", len(a.cfg.Sources))

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("daemon stopped")
	return nil
}

// Stats reports stored records per source.
func (a *Application) Stats(ctx context.Context) ([]ports.SourceCount, error) {
	return a.store.Stats(ctx)
}

// Record returns the stored record for link.
func (a *Application) Record(ctx context.Context, link string) (domain.SeenRecord, error) {
	return a.store.Record(ctx, link)
}

// Close releases the novelty store.
func (a *Application) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}
