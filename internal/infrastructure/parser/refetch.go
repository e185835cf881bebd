package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/ports"
)

// RefetchRetrier re-classifies an unknown article using the full page text
// instead of the truncated content returned by the search API.
type RefetchRetrier struct {
	reader *PageReader
	logger *slog.Logger
}

var _ ports.UnknownRetrier = (*RefetchRetrier)(nil)

// NewRefetchRetrier wires a page reader.
func NewRefetchRetrier(reader *PageReader, logger *slog.Logger) *RefetchRetrier {
	if reader == nil {
		reader = NewPageReader(nil, 0)
	}
	return &RefetchRetrier{reader: reader, logger: logger}
}

// Retry downloads the article and classifies the richer excerpt. Pages without
// text and invalid verdicts fall back to unknown.
func (r *RefetchRetrier) Retry(ctx context.Context, classifier ports.Classifier, article domain.Article) (domain.Sentiment, error) {
	text, err := r.reader.Text(ctx, article.URL)
	if err != nil {
		return domain.SentimentUnknown, fmt.Errorf("refetch %s: %w", article.URL, err)
	}
	if strings.TrimSpace(text) == "" {
		r.debug("refetched page has no text", "url", article.URL)
		return domain.SentimentUnknown, nil
	}

	excerpt := article.Excerpt()
	excerpt.Content = &text

	sentiment, err := classifier.Classify(ctx, excerpt)
	if err != nil {
		return domain.SentimentUnknown, fmt.Errorf("reclassify %s: %w", article.URL, err)
	}
	if sentiment == domain.SentimentInvalid {
		return domain.SentimentUnknown, nil
	}
	return sentiment, nil
}

func (r *RefetchRetrier) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
