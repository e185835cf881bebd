package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPublishDigestPostsForm(t *testing.T) {
	t.Parallel()

	var gotPath, gotChat, gotText, gotMode string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		gotMode = r.PostForm.Get("parse_mode")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier("token", "42").WithAPIBase(srv.URL + "/")
	if err := n.PublishDigest(context.Background(), "*AI*: 2 stored"); err != nil {
		t.Fatalf("PublishDigest error: %v", err)
	}

	if gotPath != "/bottoken/sendMessage" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotChat != "42" || gotText != "*AI*: 2 stored" || gotMode != "Markdown" {
		t.Fatalf("unexpected form: chat=%q text=%q mode=%q", gotChat, gotText, gotMode)
	}
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "42").PublishDigest(context.Background(), "x"); err == nil {
		t.Fatal("expected misconfiguration error")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	if err := NewNotifier("token", "42").WithAPIBase(srv.URL).PublishDigest(context.Background(), "x"); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestPublishDigestSkipsEmpty(t *testing.T) {
	t.Parallel()

	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	if err := NewNotifier("token", "42").WithAPIBase(srv.URL).PublishDigest(context.Background(), "  "); err != nil {
		t.Fatalf("PublishDigest error: %v", err)
	}
	if called {
		t.Fatal("empty digest must not be sent")
	}
}
