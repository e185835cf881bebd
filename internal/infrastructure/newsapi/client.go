// Package newsapi adapts the NewsAPI /v2/everything search endpoint to the
// ArticleSource port.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/ports"
	"NewsTracker/internal/validation"
)

const (
	// DefaultBaseURL is the public NewsAPI host.
	DefaultBaseURL = "https://newsapi.org"
	everythingPath = "/v2/everything"
	sortByPublish  = "publishedAt"
	dateLayout     = "2006-01-02"
	lookbackDays   = 1
)

// Options configures the client.
type Options struct {
	BaseURL  string
	APIKey   string
	Language string
	// RequestsPerSecond paces outgoing calls; zero disables pacing.
	RequestsPerSecond float64
	HTTPClient        *http.Client
	Logger            *slog.Logger
}

// Client fetches one day of articles for a topic.
type Client struct {
	baseURL   string
	apiKey    string
	language  string
	http      *http.Client
	limiter   *rate.Limiter
	validator *validation.Validator
	logger    *slog.Logger
}

var _ ports.ArticleSource = (*Client)(nil)

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("newsapi returned status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("newsapi returned status %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap lets callers match errors.Is(err, domain.ErrNoMoreData) when the API
// refuses a date older than the plan allows.
func (e *StatusError) Unwrap() error {
	if e.StatusCode == http.StatusUpgradeRequired {
		return domain.ErrNoMoreData
	}
	if e.Code == "parameterInvalid" && strings.Contains(strings.ToLower(e.Message), "too far in the past") {
		return domain.ErrNoMoreData
	}
	return nil
}

// NewClient wires an HTTP client; BaseURL and Language default to the public API in English.
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		apiKey:    opts.APIKey,
		language:  opts.Language,
		http:      opts.HTTPClient,
		limiter:   limiter,
		validator: validation.New(),
		logger:    opts.Logger,
	}
}

// Fetch queries [asOf-1 day, asOf] for topic, newest first.
func (c *Client) Fetch(ctx context.Context, topic string, asOf time.Time) (domain.ArticleBatch, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ArticleBatch{}, fmt.Errorf("wait for rate limiter: %w", err)
	}

	endpoint, err := c.buildURL(topic, asOf)
	if err != nil {
		return domain.ArticleBatch{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ArticleBatch{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("User-Agent", "NewsTracker/1.0")

	c.debug("fetch articles", "topic", topic, "as_of", asOf.Format(dateLayout))

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ArticleBatch{}, fmt.Errorf("request articles: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ArticleBatch{}, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return domain.ArticleBatch{}, statusError(resp.StatusCode, body)
	}

	var batch domain.ArticleBatch
	if err := json.Unmarshal(body, &batch); err != nil {
		return domain.ArticleBatch{}, &domain.ValidationError{
			Subject: "article batch",
			Fields:  map[string]string{"body": err.Error()},
		}
	}

	if err := c.validator.Struct("article batch", batch); err != nil {
		return domain.ArticleBatch{}, err
	}

	c.debug("fetched articles", "topic", topic, "count", len(batch.Articles), "total", batch.TotalResults)
	return batch, nil
}

func (c *Client) buildURL(topic string, asOf time.Time) (string, error) {
	u, err := url.Parse(c.baseURL + everythingPath)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	q.Set("q", topic)
	q.Set("from", asOf.AddDate(0, 0, -lookbackDays).Format(dateLayout))
	q.Set("to", asOf.Format(dateLayout))
	q.Set("language", c.language)
	q.Set("sortBy", sortByPublish)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func statusError(status int, body []byte) error {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	out := &StatusError{StatusCode: status}
	if err := json.Unmarshal(body, &payload); err == nil {
		out.Code = payload.Code
		out.Message = payload.Message
	}
	if out.Message == "" {
		out.Message = strings.TrimSpace(string(body))
	}
	return out
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
