package ports

import (
	"context"
	"time"

	"NewsTracker/internal/domain"
)

// ArticleSource pulls one day of articles about a topic from the upstream API.
type ArticleSource interface {
	Fetch(ctx context.Context, topic string, asOf time.Time) (domain.ArticleBatch, error)
}

// Classifier scores an article excerpt against the topic it was built for.
// Malformed input yields domain.SentimentInvalid, never an error.
type Classifier interface {
	Topic() string
	Classify(ctx context.Context, excerpt domain.Excerpt) (domain.Sentiment, error)
}

// ClassifierFactory builds a classifier bound to a topic.
type ClassifierFactory interface {
	New(kind, topic string) (Classifier, error)
}

// UnknownRetrier gets a second chance at articles classified as unknown.
type UnknownRetrier interface {
	Retry(ctx context.Context, classifier Classifier, article domain.Article) (domain.Sentiment, error)
}

// ArticleRepository persists classifications keyed by article URL.
type ArticleRepository interface {
	Upsert(ctx context.Context, topic string, article domain.Article, sentiment domain.Sentiment) error
}

// Scheduler controls when recurring runs execute.
type Scheduler interface {
	Run(ctx context.Context, job func(ctx context.Context, trigger time.Time)) error
}

// Recorder receives pipeline counters.
type Recorder interface {
	ArticleStored(topic string, sentiment domain.Sentiment)
	ArticleFailed(topic, stage string)
}

// Notifier publishes the summary of a scheduled run.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}
