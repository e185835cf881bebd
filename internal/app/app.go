package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsTracker/internal/classifier"
	"NewsTracker/internal/config"
	"NewsTracker/internal/domain"
	"NewsTracker/internal/infrastructure/absa"
	"NewsTracker/internal/infrastructure/llm"
	"NewsTracker/internal/infrastructure/metrics"
	"NewsTracker/internal/infrastructure/ml"
	"NewsTracker/internal/infrastructure/newsapi"
	"NewsTracker/internal/infrastructure/parser"
	"NewsTracker/internal/infrastructure/scheduler"
	"NewsTracker/internal/infrastructure/snapshot"
	"NewsTracker/internal/infrastructure/storage"
	"NewsTracker/internal/infrastructure/telegram"
	"NewsTracker/internal/logging"
	"NewsTracker/internal/ports"
	"NewsTracker/internal/usecase"
)

// Retry hook keys accepted in classifier.retry.
const (
	RetryNone    = "none"
	RetryRefetch = "refetch"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	source      *newsapi.Client
	classifiers *classifier.Registry
	retrier     ports.UnknownRetrier
	recorder    *metrics.Recorder
	notifier    ports.Notifier
	repository  *storage.Repository
}

// New builds the application. The database is opened on first use.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	source := newsapi.NewClient(newsapi.Options{
		BaseURL:           cfg.Source.BaseURL,
		APIKey:            cfg.Source.APIKey,
		Language:          cfg.Source.Language,
		RequestsPerSecond: cfg.Source.RequestsPerSecond,
		HTTPClient:        &http.Client{Timeout: cfg.Source.Timeout},
		Logger:            baseLogger.With("component", "source.newsapi"),
	})

	retrier, err := newRetrier(cfg.Classifier.Retry, baseLogger.With("component", "retry"))
	if err != nil {
		return nil, err
	}

	application := &Application{
		cfg:         cfg,
		logger:      baseLogger,
		source:      source,
		classifiers: NewClassifierRegistry(cfg, baseLogger),
		retrier:     retrier,
		recorder:    metrics.NewRecorder(),
	}
	if cfg.Telegram.Enabled() {
		application.notifier = telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	return application, nil
}

// NewClassifierRegistry registers both sentiment strategies. Each constructor
// builds its own backend handles, so a classifier never shares model state with
// another topic.
func NewClassifierRegistry(cfg config.Config, logger *slog.Logger) *classifier.Registry {
	registry := classifier.NewRegistry()

	registry.Register(classifier.KindLLM, func(topic string) (ports.Classifier, error) {
		chatModel, err := llm.NewChatModel(context.Background(), cfg.LLM)
		if err != nil {
			return nil, err
		}
		return llm.New(topic, chatModel, logger.With("component", "classifier.llm", "topic", topic)), nil
	})

	registry.Register(classifier.KindABSA, func(topic string) (ports.Classifier, error) {
		if cfg.ABSA.RelevanceURL == "" || cfg.ABSA.SentimentURL == "" {
			return nil, fmt.Errorf("absa model endpoints are not configured")
		}
		relevance := ml.NewClient(cfg.ABSA.RelevanceURL, cfg.ABSA.APIKey, cfg.ABSA.Timeout)
		sentiment := ml.NewClient(cfg.ABSA.SentimentURL, cfg.ABSA.APIKey, cfg.ABSA.Timeout)
		return absa.New(topic, relevance, sentiment, logger.With("component", "classifier.absa", "topic", topic)), nil
	})

	return registry
}

func newRetrier(kind string, logger *slog.Logger) (ports.UnknownRetrier, error) {
	switch kind {
	case "", RetryNone:
		return usecase.NoopRetrier{}, nil
	case RetryRefetch:
		return parser.NewRefetchRetrier(parser.NewPageReader(nil, 0), logger), nil
	default:
		return nil, fmt.Errorf("unknown retry hook %q", kind)
	}
}

// Close releases the database pool if it was opened.
func (a *Application) Close() error {
	if a.repository == nil {
		return nil
	}
	return a.repository.Close()
}

// Migrate creates the articles table.
func (a *Application) Migrate(ctx context.Context) error {
	_, err := a.store(ctx)
	return err
}

// Scrape backfills days ending at the configured end date; nil days runs until
// the source gives out.
func (a *Application) Scrape(ctx context.Context, days *int) error {
	end, err := a.cfg.EndDate()
	if err != nil {
		return err
	}

	orchestrator, err := a.orchestrator(ctx, nil, nil)
	if err != nil {
		return err
	}
	return orchestrator.Backfill(ctx, end, days)
}

// Maintain runs the daily schedule until ctx is cancelled, serving metrics when
// an address is configured.
func (a *Application) Maintain(ctx context.Context) error {
	sched, err := scheduler.NewDailyScheduler(
		a.cfg.Scheduler.At,
		a.cfg.Scheduler.Location(),
		a.cfg.Scheduler.PollInterval,
		a.logger.With("component", "scheduler"),
	)
	if err != nil {
		return err
	}

	orchestrator, err := a.orchestrator(ctx, sched, a.notifier)
	if err != nil {
		return err
	}

	if addr := a.cfg.Metrics.Addr; addr != "" {
		go func() {
			if err := a.recorder.Serve(ctx, addr, a.logger.With("component", "metrics")); err != nil {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	return orchestrator.Maintain(ctx)
}

// Capture fetches one topic/day batch and saves it to path without classifying.
func (a *Application) Capture(ctx context.Context, topic string, day time.Time, path string) (int, error) {
	batch, err := a.source.Fetch(ctx, topic, day)
	if err != nil {
		return 0, err
	}
	if err := snapshot.Save(path, batch); err != nil {
		return 0, err
	}
	return len(batch.Articles), nil
}

// Replay classifies and stores a saved batch.
func (a *Application) Replay(ctx context.Context, topic, path string) (usecase.Report, error) {
	batch, err := snapshot.Load(path)
	if err != nil {
		return usecase.Report{Topic: topic}, err
	}

	job, err := a.job(ctx)
	if err != nil {
		return usecase.Report{Topic: topic}, err
	}
	return job.Process(ctx, topic, batch)
}

// Report returns per-day sentiment counts for topic over [from, to).
func (a *Application) Report(ctx context.Context, topic string, from, to time.Time) ([]domain.DailySentiment, error) {
	repo, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	return repo.DailySentiment(ctx, topic, from, to)
}

func (a *Application) orchestrator(ctx context.Context, sched ports.Scheduler, notifier ports.Notifier) (*usecase.Orchestrator, error) {
	job, err := a.job(ctx)
	if err != nil {
		return nil, err
	}
	return usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Job:       job,
		Topics:    a.cfg.Topics,
		Scheduler: sched,
		Notifier:  notifier,
		Location:  a.cfg.Scheduler.Location(),
		Logger:    a.logger.With("component", "orchestrator"),
	}), nil
}

func (a *Application) job(ctx context.Context) (*usecase.Job, error) {
	repo, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	return usecase.NewJob(usecase.JobDeps{
		Source:      a.source,
		Classifiers: a.classifiers,
		Strategy:    a.cfg.Classifier.Strategy,
		Retrier:     a.retrier,
		Repository:  repo,
		Recorder:    a.recorder,
		Logger:      a.logger.With("component", "job"),
	}), nil
}

func (a *Application) store(ctx context.Context) (*storage.Repository, error) {
	if a.repository != nil {
		return a.repository, nil
	}
	repo, err := storage.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	a.repository = repo
	return repo, nil
}
