package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/ports"
)

type fakeSource struct {
	batches map[string]domain.ArticleBatch
	err     error
	calls   []string
}

func (f *fakeSource) Fetch(_ context.Context, topic string, asOf time.Time) (domain.ArticleBatch, error) {
	f.calls = append(f.calls, topic+"@"+asOf.Format(time.DateOnly))
	if f.err != nil {
		return domain.ArticleBatch{}, f.err
	}
	return f.batches[topic], nil
}

// scriptedClassifier answers per article URL, read from the excerpt content.
type scriptedClassifier struct {
	topic   string
	answers map[string]domain.Sentiment
	errs    map[string]error
	seen    []string
}

func (c *scriptedClassifier) Topic() string { return c.topic }

func (c *scriptedClassifier) Classify(_ context.Context, excerpt domain.Excerpt) (domain.Sentiment, error) {
	if excerpt.Title == nil || excerpt.Description == nil || excerpt.Content == nil {
		return domain.SentimentInvalid, nil
	}
	key := *excerpt.Content
	c.seen = append(c.seen, key)
	if err := c.errs[key]; err != nil {
		return "", err
	}
	if s, ok := c.answers[key]; ok {
		return s, nil
	}
	return domain.SentimentNeutral, nil
}

type fakeFactory struct {
	classifier *scriptedClassifier
	err        error
	built      []string
}

func (f *fakeFactory) New(kind, topic string) (ports.Classifier, error) {
	f.built = append(f.built, kind+":"+topic)
	if f.err != nil {
		return nil, f.err
	}
	f.classifier.topic = topic
	return f.classifier, nil
}

type fakeRetrier struct {
	result domain.Sentiment
	err    error
	calls  []string
}

func (r *fakeRetrier) Retry(_ context.Context, _ ports.Classifier, article domain.Article) (domain.Sentiment, error) {
	r.calls = append(r.calls, article.URL)
	return r.result, r.err
}

type stored struct {
	topic     string
	url       string
	sentiment domain.Sentiment
}

type fakeRepository struct {
	failFor map[string]bool
	writes  []stored
}

func (r *fakeRepository) Upsert(_ context.Context, topic string, article domain.Article, sentiment domain.Sentiment) error {
	if r.failFor[article.URL] {
		return errors.New("connection reset")
	}
	r.writes = append(r.writes, stored{topic: topic, url: article.URL, sentiment: sentiment})
	return nil
}

type countingRecorder struct {
	mu       sync.Mutex
	stored   map[domain.Sentiment]int
	failures map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{stored: map[domain.Sentiment]int{}, failures: map[string]int{}}
}

func (r *countingRecorder) ArticleStored(_ string, sentiment domain.Sentiment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored[sentiment]++
}

func (r *countingRecorder) ArticleFailed(_ string, stage string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[stage]++
}

// articleWith builds an article whose content doubles as the classifier script key.
func articleWith(url string) domain.Article {
	return domain.Article{
		Title:       domain.Ptr("title " + url),
		Description: domain.Ptr("description"),
		Content:     domain.Ptr(url),
		URL:         url,
	}
}

func batchOf(articles ...domain.Article) domain.ArticleBatch {
	return domain.ArticleBatch{Status: "ok", TotalResults: len(articles), Articles: articles}
}
