// Package absa implements the aspect-based sentiment strategy: an NLI relevance
// gate followed by an aspect sentiment model scored against the topic.
package absa

import (
	"context"
	"fmt"
	"log/slog"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/infrastructure/ml"
	"NewsTracker/internal/ports"
	"NewsTracker/internal/validation"
)

// RelevanceThreshold is the "neutral" entailment score at or above which the
// text is treated as not discussing the topic.
const RelevanceThreshold = 0.6

// Model is a text-pair classification backend.
type Model interface {
	Classify(ctx context.Context, text, textPair string) ([]ml.Prediction, error)
}

// Classifier is the aspect-based strategy bound to one topic.
type Classifier struct {
	topic     string
	relevance Model
	sentiment Model
	validator *validation.Validator
	logger    *slog.Logger
}

var _ ports.Classifier = (*Classifier)(nil)

// New binds both inference backends to topic.
func New(topic string, relevance, sentiment Model, logger *slog.Logger) *Classifier {
	return &Classifier{
		topic:     topic,
		relevance: relevance,
		sentiment: sentiment,
		validator: validation.New(),
		logger:    logger,
	}
}

// Topic returns the bound topic.
func (c *Classifier) Topic() string {
	return c.topic
}

// Classify runs the relevance gate and, when the text is on topic, the aspect model.
func (c *Classifier) Classify(ctx context.Context, excerpt domain.Excerpt) (domain.Sentiment, error) {
	if err := c.validator.Struct("excerpt", excerpt); err != nil {
		c.debug("excerpt rejected", "error", err)
		return domain.SentimentInvalid, nil
	}

	text := Prompt(excerpt)

	relevant, err := c.isRelevant(ctx, text)
	if err != nil {
		return "", err
	}
	if !relevant {
		return domain.SentimentUnknown, nil
	}

	preds, err := c.sentiment.Classify(ctx, text, c.topic)
	if err != nil {
		return "", fmt.Errorf("aspect sentiment: %w", err)
	}
	if len(preds) == 0 {
		return "", fmt.Errorf("aspect sentiment: no predictions")
	}
	c.debug("aspect sentiment", "title", domain.Text(excerpt.Title), "label", preds[0].Label, "score", preds[0].Score)

	return labelToSentiment(preds[0].Label)
}

// Prompt formats the excerpt the way both models receive it.
func Prompt(excerpt domain.Excerpt) string {
	return fmt.Sprintf("Title: %s\nDescription: %s\nInitial Words: %s",
		domain.Text(excerpt.Title),
		domain.Text(excerpt.Description),
		domain.Text(excerpt.Content))
}

func (c *Classifier) isRelevant(ctx context.Context, text string) (bool, error) {
	hypothesis := fmt.Sprintf("The article discusses %s.", c.topic)

	preds, err := c.relevance.Classify(ctx, text, hypothesis)
	if err != nil {
		return false, fmt.Errorf("relevance check: %w", err)
	}
	if len(preds) == 0 {
		return false, fmt.Errorf("relevance check: no predictions")
	}

	top := preds[0]
	c.debug("relevance", "label", top.Label, "score", top.Score)

	switch top.Label {
	case "contradiction":
		return false, nil
	case "neutral":
		return top.Score < RelevanceThreshold, nil
	default:
		return true, nil
	}
}

func labelToSentiment(label string) (domain.Sentiment, error) {
	switch label {
	case "Positive":
		return domain.SentimentPositive, nil
	case "Negative":
		return domain.SentimentNegative, nil
	case "Neutral":
		return domain.SentimentNeutral, nil
	default:
		return "", fmt.Errorf("%w: aspect label %q", domain.ErrContractViolation, label)
	}
}

func (c *Classifier) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
