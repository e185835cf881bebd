package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const defaultMaxChars = 4000

// PageReader downloads an article page and extracts its body paragraphs.
type PageReader struct {
	client   *http.Client
	maxChars int
}

// NewPageReader wires an HTTP client; maxChars caps the extracted text.
func NewPageReader(client *http.Client, maxChars int) *PageReader {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &PageReader{client: client, maxChars: maxChars}
}

// Text returns the page's paragraph text, preferring paragraphs inside <article>.
func (p *PageReader) Text(ctx context.Context, pageURL string) (string, error) {
	doc, err := p.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return p.extract(doc), nil
}

func (p *PageReader) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsTracker/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func (p *PageReader) extract(doc *goquery.Document) string {
	doc.Find("script, style, nav, header, footer, aside").Remove()

	paragraphs := doc.Find("article p")
	if paragraphs.Length() == 0 {
		paragraphs = doc.Find("p")
	}

	var sb strings.Builder
	paragraphs.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return true
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
		return sb.Len() < p.maxChars
	})

	return truncate(sb.String(), p.maxChars)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
