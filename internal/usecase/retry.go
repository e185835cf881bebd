package usecase

import (
	"context"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/ports"
)

// NoopRetrier confirms the unknown verdict without another attempt.
type NoopRetrier struct{}

var _ ports.UnknownRetrier = NoopRetrier{}

// Retry always answers unknown.
func (NoopRetrier) Retry(context.Context, ports.Classifier, domain.Article) (domain.Sentiment, error) {
	return domain.SentimentUnknown, nil
}
