package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, newsAPIKeyEnv, topicsEnv, sentimentModelEnv, unknownRetryEnv,
		scrapeEndDateEnv, dbDriverEnv, dbHostEnv, dbPortEnv, dbNameEnv, dbUserEnv,
		dbPasswordEnv, dbPathEnv, logLevelEnv, logFileEnv, llmBaseURLEnv, llmAPIKeyEnv,
		llmModelEnv, absaRelevanceEnv, absaSentimentEnv, absaAPIKeyEnv, metricsAddrEnv,
		telegramTokenEnv, telegramChatEnv,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "absa", cfg.Classifier.Strategy)
	assert.Equal(t, "none", cfg.Classifier.Retry)
	assert.Equal(t, []string{"Cloud Computing"}, cfg.Topics)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "23:55", cfg.Scheduler.At)
	assert.Equal(t, time.Minute, cfg.Scheduler.PollInterval)
	assert.Equal(t, time.UTC.String(), cfg.Scheduler.Location().String())
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: warn
database:
  driver: sqlite
  path: /var/lib/news.db
scheduler:
  at: "06:30"
  timezone: Europe/Berlin
classifier:
  strategy: llm
  retry: refetch
llm:
  model: mistral
  temperature: 0.2
topics:
  - AI
  - Cloud Computing
`), 0o644))

	t.Setenv(configPathEnv, path)
	t.Setenv(sentimentModelEnv, "absa")
	t.Setenv(topicsEnv, " Quantum , ,Chips")
	t.Setenv(dbPortEnv, "6543")
	t.Setenv(newsAPIKeyEnv, "secret")

	cfg := Load()

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/var/lib/news.db", cfg.Database.Path)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "06:30", cfg.Scheduler.At)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	assert.Equal(t, "absa", cfg.Classifier.Strategy, "environment wins over the file")
	assert.Equal(t, "refetch", cfg.Classifier.Retry)
	assert.Equal(t, "mistral", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-6)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout, "unset fields keep defaults")
	assert.Equal(t, []string{"Quantum", "Chips"}, cfg.Topics)
	assert.Equal(t, "secret", cfg.Source.APIKey)
}

func TestLoadFallsBackOnBadInput(t *testing.T) {
	clearEnv(t)

	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv(dbPortEnv, "not-a-port")

	cfg := Load()
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "absa", cfg.Classifier.Strategy)
}

func TestEndDate(t *testing.T) {
	clearEnv(t)
	t.Setenv(scrapeEndDateEnv, "2024-03-10")

	day, err := Load().EndDate()
	require.NoError(t, err)
	assert.True(t, day.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))

	_, err = Config{Scrape: ScrapeConfig{EndDate: "10/03/2024"}}.EndDate()
	assert.Error(t, err)

	today, err := Config{}.EndDate()
	require.NoError(t, err)
	assert.Zero(t, today.Hour())
}

func TestTelegramEnabled(t *testing.T) {
	clearEnv(t)
	t.Setenv(telegramTokenEnv, "token")
	t.Setenv(telegramChatEnv, "42")

	assert.True(t, Load().Telegram.Enabled())
}
