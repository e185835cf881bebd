package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone     = "UTC"
	defaultTriggerAt    = "23:55"
	defaultPollInterval = time.Minute
	dateLayout          = "2006-01-02"

	configPathEnv     = "NEWSTRACKER_CONFIG"
	newsAPIKeyEnv     = "NEWS_API_KEY"
	topicsEnv         = "TOPICS"
	sentimentModelEnv = "SENTIMENT_MODEL"
	unknownRetryEnv   = "UNKNOWN_RETRY"
	scrapeEndDateEnv  = "SCRAPING_END_DATE"
	dbDriverEnv       = "DB_DRIVER"
	dbHostEnv         = "DB_HOST"
	dbPortEnv         = "DB_PORT"
	dbNameEnv         = "DB_NAME"
	dbUserEnv         = "DB_USER"
	dbPasswordEnv     = "DB_PASSWORD"
	dbPathEnv         = "DB_PATH"
	logLevelEnv       = "LOG_LEVEL"
	logFileEnv        = "LOG_FILE"
	llmBaseURLEnv     = "LLM_BASE_URL"
	llmAPIKeyEnv      = "LLM_API_KEY"
	llmModelEnv       = "LLM_MODEL"
	absaRelevanceEnv  = "ABSA_RELEVANCE_URL"
	absaSentimentEnv  = "ABSA_SENTIMENT_URL"
	absaAPIKeyEnv     = "HF_API_KEY"
	metricsAddrEnv    = "METRICS_ADDR"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv   = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Database   DatabaseConfig   `yaml:"database"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Source     SourceConfig     `yaml:"source"`
	Classifier ClassifierConfig `yaml:"classifier"`
	LLM        LLMConfig        `yaml:"llm"`
	ABSA       ABSAConfig       `yaml:"absa"`
	Scrape     ScrapeConfig     `yaml:"scrape"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Topics     []string         `yaml:"topics"`
}

// LoggingConfig sets verbosity and an optional log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DatabaseConfig describes the article store connection.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslMode"`
	// Path is the database file when Driver is sqlite.
	Path string `yaml:"path"`
}

// SchedulerConfig defines when the daily run fires.
type SchedulerConfig struct {
	At           string         `yaml:"at"`
	Timezone     string         `yaml:"timezone"`
	PollInterval time.Duration  `yaml:"pollInterval"`
	location     *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SourceConfig configures the article search API.
type SourceConfig struct {
	BaseURL           string        `yaml:"baseUrl"`
	APIKey            string        `yaml:"apiKey"`
	Language          string        `yaml:"language"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Timeout           time.Duration `yaml:"timeout"`
}

// ClassifierConfig picks the sentiment strategy and the unknown-retry hook.
type ClassifierConfig struct {
	Strategy string `yaml:"strategy"`
	Retry    string `yaml:"retry"`
}

// LLMConfig defines how to contact an OpenAI-compatible chat endpoint.
type LLMConfig struct {
	BaseURL     string        `yaml:"baseUrl"`
	APIKey      string        `yaml:"apiKey"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ABSAConfig points at the two text-classification model endpoints.
type ABSAConfig struct {
	RelevanceURL string        `yaml:"relevanceUrl"`
	SentimentURL string        `yaml:"sentimentUrl"`
	APIKey       string        `yaml:"apiKey"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ScrapeConfig fixes the last day of a backfill.
type ScrapeConfig struct {
	EndDate string `yaml:"endDate"`
}

// MetricsConfig enables the Prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// TelegramConfig enables the daily digest when both fields are set.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Enabled reports whether the digest notifier can be built.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads .env, YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot read .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if fileCfg, err := ReadFile(path); err != nil {
			log.Printf("config: %v (falling back to defaults)", err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Topics) == 0 {
		cfg.Topics = defaultConfig().Topics
	}

	return cfg
}

// ReadFile parses a YAML config file without applying defaults.
func ReadFile(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return fileCfg, nil
}

// EndDate returns the configured last backfill day, or today in the scheduler timezone.
func (c Config) EndDate() (time.Time, error) {
	loc := c.Scheduler.Location()
	if c.Scrape.EndDate == "" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	day, err := time.ParseInLocation(dateLayout, c.Scrape.EndDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse scrape end date %q: %w", c.Scrape.EndDate, err)
	}
	return day, nil
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Source.APIKey, newsAPIKeyEnv)
	setString(&c.Classifier.Strategy, sentimentModelEnv)
	setString(&c.Classifier.Retry, unknownRetryEnv)
	setString(&c.Scrape.EndDate, scrapeEndDateEnv)

	if v := os.Getenv(topicsEnv); v != "" {
		c.Topics = splitList(v)
	}

	setString(&c.Database.Driver, dbDriverEnv)
	setString(&c.Database.Host, dbHostEnv)
	setString(&c.Database.Name, dbNameEnv)
	setString(&c.Database.User, dbUserEnv)
	setString(&c.Database.Password, dbPasswordEnv)
	setString(&c.Database.Path, dbPathEnv)
	if v := os.Getenv(dbPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err != nil {
			log.Printf("config: invalid %s %q, keeping %d", dbPortEnv, v, c.Database.Port)
		} else {
			c.Database.Port = port
		}
	}

	setString(&c.Logging.Level, logLevelEnv)
	setString(&c.Logging.File, logFileEnv)

	setString(&c.LLM.BaseURL, llmBaseURLEnv)
	setString(&c.LLM.APIKey, llmAPIKeyEnv)
	setString(&c.LLM.Model, llmModelEnv)

	setString(&c.ABSA.RelevanceURL, absaRelevanceEnv)
	setString(&c.ABSA.SentimentURL, absaSentimentEnv)
	setString(&c.ABSA.APIKey, absaAPIKeyEnv)

	setString(&c.Metrics.Addr, metricsAddrEnv)

	setString(&c.Telegram.BotToken, telegramTokenEnv)
	setString(&c.Telegram.ChatID, telegramChatEnv)
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	if override.Database.Driver != "" || override.Database.Host != "" || override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Scheduler.At != "" {
		base.Scheduler.At = override.Scheduler.At
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.PollInterval > 0 {
		base.Scheduler.PollInterval = override.Scheduler.PollInterval
	}

	if override.Source.BaseURL != "" {
		base.Source.BaseURL = override.Source.BaseURL
	}
	if override.Source.APIKey != "" {
		base.Source.APIKey = override.Source.APIKey
	}
	if override.Source.Language != "" {
		base.Source.Language = override.Source.Language
	}
	if override.Source.RequestsPerSecond > 0 {
		base.Source.RequestsPerSecond = override.Source.RequestsPerSecond
	}
	if override.Source.Timeout > 0 {
		base.Source.Timeout = override.Source.Timeout
	}

	if override.Classifier.Strategy != "" {
		base.Classifier.Strategy = override.Classifier.Strategy
	}
	if override.Classifier.Retry != "" {
		base.Classifier.Retry = override.Classifier.Retry
	}

	if override.LLM.BaseURL != "" {
		base.LLM.BaseURL = override.LLM.BaseURL
	}
	if override.LLM.APIKey != "" {
		base.LLM.APIKey = override.LLM.APIKey
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.Temperature != 0 {
		base.LLM.Temperature = override.LLM.Temperature
	}
	if override.LLM.Timeout > 0 {
		base.LLM.Timeout = override.LLM.Timeout
	}

	if override.ABSA.RelevanceURL != "" {
		base.ABSA.RelevanceURL = override.ABSA.RelevanceURL
	}
	if override.ABSA.SentimentURL != "" {
		base.ABSA.SentimentURL = override.ABSA.SentimentURL
	}
	if override.ABSA.APIKey != "" {
		base.ABSA.APIKey = override.ABSA.APIKey
	}
	if override.ABSA.Timeout > 0 {
		base.ABSA.Timeout = override.ABSA.Timeout
	}

	if override.Scrape.EndDate != "" {
		base.Scrape.EndDate = override.Scrape.EndDate
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.ChatID != "" {
		base.Telegram.ChatID = override.Telegram.ChatID
	}

	if len(override.Topics) > 0 {
		base.Topics = override.Topics
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Database: DatabaseConfig{
			Driver: "postgres",
			Host:   "localhost",
			Port:   5432,
			Name:   "news",
			User:   "postgres",
		},
		Scheduler: SchedulerConfig{
			At:           defaultTriggerAt,
			Timezone:     defaultTimezone,
			PollInterval: defaultPollInterval,
			location:     tz,
		},
		Source: SourceConfig{
			BaseURL:           "https://newsapi.org",
			Language:          "en",
			RequestsPerSecond: 1,
			Timeout:           30 * time.Second,
		},
		Classifier: ClassifierConfig{Strategy: "absa", Retry: "none"},
		LLM: LLMConfig{
			BaseURL: "http://localhost:11434/v1",
			Model:   "llama3.2",
			Timeout: 2 * time.Minute,
		},
		ABSA: ABSAConfig{
			RelevanceURL: "https://api-inference.huggingface.co/models/cross-encoder/nli-deberta-v3-base",
			SentimentURL: "https://api-inference.huggingface.co/models/yangheng/deberta-v3-large-absa-v1.1",
			Timeout:      30 * time.Second,
		},
		Topics: []string{"Cloud Computing"},
	}
}
