package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":   slog.LevelError,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" info ":  slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithFileAppends(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "news.log")

	logger, closeFn, err := NewWithFile("info", path)
	if err != nil {
		t.Fatalf("NewWithFile error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("stored article", "topic", "AI")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, "stored article") || !strings.Contains(out, "topic=AI") {
		t.Fatalf("log file missing entry: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry leaked at info level: %s", out)
	}
}

func TestNewWithFileWithoutPath(t *testing.T) {
	t.Parallel()

	logger, closeFn, err := NewWithFile("info", "")
	if err != nil || logger == nil {
		t.Fatalf("NewWithFile returned %v, %v", logger, err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
