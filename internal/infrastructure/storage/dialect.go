package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsTracker/internal/config"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ParseDialect validates a configured driver name.
func ParseDialect(name string) (Dialect, error) {
	switch Dialect(name) {
	case DialectPostgres, "":
		return DialectPostgres, nil
	case DialectSQLite:
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

func (d Dialect) placeholder() sq.PlaceholderFormat {
	if d == DialectPostgres {
		return sq.Dollar
	}
	return sq.Question
}

func (d Dialect) schema() []string {
	if d == DialectPostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS articles (
				id BIGSERIAL PRIMARY KEY,
				topic TEXT NOT NULL,
				published_at TIMESTAMPTZ,
				source_name TEXT,
				author TEXT,
				title TEXT,
				description TEXT,
				url TEXT NOT NULL UNIQUE,
				image_url TEXT,
				content TEXT,
				sentiment TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_articles_topic_published ON articles (topic, published_at)`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			topic TEXT NOT NULL,
			published_at TIMESTAMP,
			source_name TEXT,
			author TEXT,
			title TEXT,
			description TEXT,
			url TEXT NOT NULL UNIQUE,
			image_url TEXT,
			content TEXT,
			sentiment TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_topic_published ON articles (topic, published_at)`,
	}
}

// DSN renders the connection string for the configured dialect.
func DSN(cfg config.DatabaseConfig) (string, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return "", err
	}

	if dialect == DialectSQLite {
		if cfg.Path == "" {
			return "", fmt.Errorf("sqlite path is not configured")
		}
		if strings.Contains(cfg.Path, "?") {
			return cfg.Path, nil
		}
		// Timestamps are written as sortable text so range filters compare correctly.
		return cfg.Path + "?_time_format=sqlite", nil
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String(), nil
}

// Open connects using cfg and verifies the connection. Idle connections are not
// kept, so nothing stays open between writes.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Repository, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	db.SetMaxIdleConns(0)
	db.SetConnMaxLifetime(5 * time.Minute)
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return NewRepository(db, dialect), nil
}
