package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/ports"
	"NewsTracker/internal/validation"
)

const promptTemplate = `You are required to tell me if the article portrays a topic in a good or bad light

Here is the information
Title: {title}
Description: {description}
Summary: {content}

You must analyse with respect to the following topic
Topic: {topic}

Please return one of the following sentiments
- positive
- negative
- neutral
- unknown

Only return a single lowercase word`

// Classifier is the prompted-model strategy bound to one topic.
type Classifier struct {
	topic     string
	model     model.BaseChatModel
	template  prompt.ChatTemplate
	validator *validation.Validator
	logger    *slog.Logger
}

var _ ports.Classifier = (*Classifier)(nil)

// New binds a chat model to topic.
func New(topic string, chatModel model.BaseChatModel, logger *slog.Logger) *Classifier {
	return &Classifier{
		topic:     topic,
		model:     chatModel,
		template:  prompt.FromMessages(schema.FString, schema.UserMessage(promptTemplate)),
		validator: validation.New(),
		logger:    logger,
	}
}

// Topic returns the bound topic.
func (c *Classifier) Topic() string {
	return c.topic
}

// Classify renders the prompt, asks the model once and parses its one-word answer.
func (c *Classifier) Classify(ctx context.Context, excerpt domain.Excerpt) (domain.Sentiment, error) {
	if err := c.validator.Struct("excerpt", excerpt); err != nil {
		c.debug("excerpt rejected", "error", err)
		return domain.SentimentInvalid, nil
	}

	messages, err := c.template.Format(ctx, map[string]any{
		"title":       domain.Text(excerpt.Title),
		"description": domain.Text(excerpt.Description),
		"content":     domain.Text(excerpt.Content),
		"topic":       c.topic,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	resp, err := c.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("generate: empty response")
	}

	c.debug("model answered", "title", domain.Text(excerpt.Title), "answer", resp.Content)
	return parseAnswer(resp.Content)
}

// parseAnswer accepts exactly one lowercase vocabulary word, ignoring surrounding
// whitespace. The model is never allowed to claim the input was invalid; that
// verdict belongs to validation.
func parseAnswer(raw string) (domain.Sentiment, error) {
	sentiment := domain.Sentiment(strings.TrimSpace(raw))
	if !sentiment.Valid() {
		return "", fmt.Errorf("%w: model answered %q", domain.ErrContractViolation, raw)
	}
	if sentiment == domain.SentimentInvalid {
		return "", fmt.Errorf("%w: model answered %q", domain.ErrContractViolation, raw)
	}
	return sentiment, nil
}

func (c *Classifier) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
