package domain

import (
	"fmt"
	"strings"
	"time"
)

// Sentiment is the closed vocabulary every classifier strategy answers with.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	// SentimentUnknown means the classifier could not tell, usually because the
	// text does not discuss the topic.
	SentimentUnknown Sentiment = "unknown"
	// SentimentInvalid means the input was malformed and nothing was classified.
	SentimentInvalid Sentiment = "invalid"
)

// Sentiments lists the vocabulary in a stable order.
func Sentiments() []Sentiment {
	return []Sentiment{
		SentimentPositive,
		SentimentNegative,
		SentimentNeutral,
		SentimentUnknown,
		SentimentInvalid,
	}
}

// ParseSentiment maps a raw label onto the vocabulary. Surrounding whitespace and
// case are ignored; anything outside the vocabulary is a contract violation.
func ParseSentiment(raw string) (Sentiment, error) {
	switch s := Sentiment(strings.ToLower(strings.TrimSpace(raw))); s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentUnknown, SentimentInvalid:
		return s, nil
	default:
		return "", fmt.Errorf("%w: sentiment %q", ErrContractViolation, raw)
	}
}

// Valid reports whether s is exactly one of the vocabulary words.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentUnknown, SentimentInvalid:
		return true
	default:
		return false
	}
}

func (s Sentiment) String() string {
	return string(s)
}

// Record is the persisted classification row, keyed by URL.
type Record struct {
	Topic       string
	PublishedAt *time.Time
	SourceName  *string
	Author      *string
	Title       *string
	Description *string
	URL         string
	ImageURL    *string
	Content     *string
	Sentiment   Sentiment
	CreatedAt   time.Time
}

// NewRecord flattens an article and its classification into a row.
func NewRecord(topic string, article Article, sentiment Sentiment, at time.Time) Record {
	return Record{
		Topic:       topic,
		PublishedAt: article.PublishedAt,
		SourceName:  article.Source.Name,
		Author:      article.Author,
		Title:       article.Title,
		Description: article.Description,
		URL:         article.URL,
		ImageURL:    article.URLToImage,
		Content:     article.Content,
		Sentiment:   sentiment,
		CreatedAt:   at,
	}
}

// DailySentiment is one bucket of the per-day trend read-out.
type DailySentiment struct {
	Day       time.Time
	Sentiment Sentiment
	Count     int
}
