package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/ports"
)

// Failure stages reported to the metrics recorder.
const (
	StageFetch    = "fetch"
	StageClassify = "classify"
	StageRetry    = "retry"
	StagePersist  = "persist"
)

// JobDeps wires all driven adapters into the ingestion job.
type JobDeps struct {
	Source      ports.ArticleSource
	Classifiers ports.ClassifierFactory
	// Strategy is the classifier key handed to Classifiers ("llm" or "absa").
	Strategy   string
	Retrier    ports.UnknownRetrier
	Repository ports.ArticleRepository
	Recorder   ports.Recorder
	Logger     *slog.Logger
}

// Job fetches, classifies and stores one topic for one day.
type Job struct {
	source      ports.ArticleSource
	classifiers ports.ClassifierFactory
	strategy    string
	retrier     ports.UnknownRetrier
	repository  ports.ArticleRepository
	recorder    ports.Recorder
	logger      *slog.Logger
}

// Report summarises one job invocation.
type Report struct {
	Topic   string
	Fetched int
	Stored  int
	Invalid int
	Unknown int
	Failed  int
}

// NewJob constructs the ingestion job. A nil Retrier falls back to NoopRetrier.
func NewJob(deps JobDeps) *Job {
	retrier := deps.Retrier
	if retrier == nil {
		retrier = NoopRetrier{}
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Job{
		source:      deps.Source,
		classifiers: deps.Classifiers,
		strategy:    deps.Strategy,
		retrier:     retrier,
		repository:  deps.Repository,
		recorder:    recorder,
		logger:      logger,
	}
}

// Run fetches the topic's articles for day and processes them. A fetch failure
// aborts the invocation before anything is classified or stored.
func (j *Job) Run(ctx context.Context, topic string, day time.Time) (Report, error) {
	if j.source == nil {
		return Report{Topic: topic}, fmt.Errorf("article source is not configured")
	}

	batch, err := j.source.Fetch(ctx, topic, day)
	if err != nil {
		j.recorder.ArticleFailed(topic, StageFetch)
		return Report{Topic: topic}, fmt.Errorf("fetch %q for %s: %w", topic, day.Format(time.DateOnly), err)
	}

	return j.Process(ctx, topic, batch)
}

// Process classifies and stores every article of batch sequentially. Per-article
// failures are logged and counted; only a classifier that cannot be built fails
// the whole call.
func (j *Job) Process(ctx context.Context, topic string, batch domain.ArticleBatch) (Report, error) {
	report := Report{Topic: topic, Fetched: len(batch.Articles)}

	if j.classifiers == nil {
		return report, fmt.Errorf("classifier factory is not configured")
	}
	classifier, err := j.classifiers.New(j.strategy, topic)
	if err != nil {
		return report, fmt.Errorf("select classifier: %w", err)
	}

	log := j.logger.With("topic", topic)
	log.Info("processing batch", "articles", len(batch.Articles), "strategy", j.strategy)

	for _, article := range batch.Articles {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		sentiment, ok := j.classify(ctx, log, classifier, article)
		if !ok {
			report.Failed++
			continue
		}

		switch sentiment {
		case domain.SentimentInvalid:
			log.Debug("skipping invalid article", "url", article.URL)
			report.Invalid++
			continue
		case domain.SentimentUnknown:
			report.Unknown++
		}

		if j.repository == nil {
			continue
		}
		if err := j.repository.Upsert(ctx, topic, article, sentiment); err != nil {
			log.Error("persist article failed", "url", article.URL, "error", err)
			j.recorder.ArticleFailed(topic, StagePersist)
			report.Failed++
			continue
		}

		log.Info("stored article", "title", article.Label(), "sentiment", sentiment)
		j.recorder.ArticleStored(topic, sentiment)
		report.Stored++
	}

	log.Info("batch done",
		"fetched", report.Fetched,
		"stored", report.Stored,
		"invalid", report.Invalid,
		"unknown", report.Unknown,
		"failed", report.Failed)
	return report, nil
}

// classify runs the classifier and, for unknown answers, the retry hook. The
// bool is false when the article must be dropped because classification failed.
func (j *Job) classify(ctx context.Context, log *slog.Logger, classifier ports.Classifier, article domain.Article) (domain.Sentiment, bool) {
	sentiment, err := classifier.Classify(ctx, article.Excerpt())
	if err == nil && !sentiment.Valid() {
		err = fmt.Errorf("%w: %q", domain.ErrContractViolation, sentiment)
	}
	if err != nil {
		if errors.Is(err, domain.ErrContractViolation) {
			log.Error("classifier broke its contract", "url", article.URL, "error", err)
		} else {
			log.Error("classify article failed", "url", article.URL, "error", err)
		}
		j.recorder.ArticleFailed(classifier.Topic(), StageClassify)
		return "", false
	}

	if sentiment != domain.SentimentUnknown {
		return sentiment, true
	}

	retried, err := j.retrier.Retry(ctx, classifier, article)
	if err == nil && !retried.Valid() {
		err = fmt.Errorf("%w: %q", domain.ErrContractViolation, retried)
	}
	switch {
	case errors.Is(err, domain.ErrContractViolation):
		log.Error("classifier broke its contract on retry", "url", article.URL, "error", err)
		j.recorder.ArticleFailed(classifier.Topic(), StageClassify)
		return "", false
	case err != nil:
		log.Warn("unknown retry failed", "url", article.URL, "error", err)
		j.recorder.ArticleFailed(classifier.Topic(), StageRetry)
		retried = domain.SentimentUnknown
	case retried == domain.SentimentInvalid:
		retried = domain.SentimentUnknown
	}
	log.Debug("retried unknown article", "url", article.URL, "previous", sentiment, "current", retried)
	return retried, true
}

type nopRecorder struct{}

func (nopRecorder) ArticleStored(string, domain.Sentiment) {}
func (nopRecorder) ArticleFailed(string, string)           {}
