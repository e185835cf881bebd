package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const articlePage = `<html>
<head><script>var x = 1;</script><style>p { color: red }</style></head>
<body>
  <nav><p>Home | World</p></nav>
  <header><p>Site banner</p></header>
  <p>Sidebar teaser</p>
  <article>
    <p>First   paragraph
       of the story.</p>
    <p></p>
    <p>Second paragraph.</p>
  </article>
  <footer><p>Copyright</p></footer>
</body>
</html>`

func TestTextPrefersArticleParagraphs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	text, err := NewPageReader(nil, 0).Text(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Text returned error: %v", err)
	}

	want := "First paragraph of the story.\nSecond paragraph."
	if text != want {
		t.Fatalf("unexpected text:\n%q\nwant\n%q", text, want)
	}
}

func TestExtractFallsBackToAllParagraphs(t *testing.T) {
	t.Parallel()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<body><nav><p>menu</p></nav><p>One.</p><div><p>Two.</p></div></body>`))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	if got := NewPageReader(nil, 0).extract(doc); got != "One.\nTwo." {
		t.Fatalf("extract() = %q", got)
	}
}

func TestTextNon200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := NewPageReader(nil, 0).Text(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 page")
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	t.Parallel()

	s := strings.Repeat("é", 10)
	got := truncate(s, 5)
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid utf-8: %q", got)
	}
	if got != "éé" {
		t.Fatalf("truncate() = %q", got)
	}
	if truncate("short", 10) != "short" {
		t.Fatal("short strings must be untouched")
	}
}
