package domain

import (
	"strings"
	"time"
)

// Source identifies the publisher of an article as reported by the news API.
type Source struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

// Article is one published news item. Every field except URL is optional upstream.
type Article struct {
	Source      Source     `json:"source"`
	Author      *string    `json:"author"`
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	URL         string     `json:"url" validate:"required"`
	URLToImage  *string    `json:"urlToImage"`
	PublishedAt *time.Time `json:"publishedAt"`
	Content     *string    `json:"content"`
}

// ArticleBatch is the validated result of one (topic, date) query.
type ArticleBatch struct {
	Status       string    `json:"status" validate:"required,eq=ok"`
	TotalResults int       `json:"totalResults" validate:"gte=0"`
	Articles     []Article `json:"articles" validate:"dive"`
}

// Excerpt carries the three text fields a classifier reads.
type Excerpt struct {
	Title       *string `json:"title" validate:"required"`
	Description *string `json:"description" validate:"required"`
	Content     *string `json:"content" validate:"required"`
}

// Excerpt extracts the classifier input from the article.
func (a Article) Excerpt() Excerpt {
	return Excerpt{
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
	}
}

// Label returns a short human readable identifier for logs.
func (a Article) Label() string {
	if title := strings.TrimSpace(Text(a.Title)); title != "" {
		return title
	}
	return a.URL
}

// Text dereferences an optional string, returning "" for nil.
func Text(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
