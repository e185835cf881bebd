package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"NewsTracker/internal/domain"
	"NewsTracker/internal/ports"
)

const articlesTable = "articles"

var recordColumns = []string{
	"topic",
	"published_at",
	"source_name",
	"author",
	"title",
	"description",
	"url",
	"image_url",
	"content",
	"sentiment",
	"created_at",
}

// Repository persists classification records keyed by article URL.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.ArticleRepository = (*Repository)(nil)

// NewRepository wires an open database handle for the given dialect.
func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	return &Repository{
		db:      db,
		dialect: dialect,
		builder: sq.StatementBuilder.PlaceholderFormat(dialect.placeholder()),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the write timestamp source.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// Close releases the underlying pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Migrate creates the articles table when it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.schema() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Upsert inserts the article or, when the URL is already stored, overwrites only
// its sentiment and write timestamp. Descriptive fields keep their first value.
func (r *Repository) Upsert(ctx context.Context, topic string, article domain.Article, sentiment domain.Sentiment) error {
	if article.URL == "" {
		return fmt.Errorf("upsert article: empty url")
	}
	if !sentiment.Valid() || sentiment == domain.SentimentInvalid {
		return fmt.Errorf("upsert article %s: refusing sentiment %q", article.URL, sentiment)
	}

	rec := domain.NewRecord(topic, article, sentiment, r.now())

	query, args, err := r.builder.
		Insert(articlesTable).
		Columns(recordColumns...).
		Values(
			rec.Topic,
			nullTime(rec.PublishedAt),
			nullString(rec.SourceName),
			nullString(rec.Author),
			nullString(rec.Title),
			nullString(rec.Description),
			rec.URL,
			nullString(rec.ImageURL),
			nullString(rec.Content),
			string(rec.Sentiment),
			rec.CreatedAt,
		).
		Suffix("ON CONFLICT (url) DO UPDATE SET sentiment = EXCLUDED.sentiment, created_at = EXCLUDED.created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article %s: %w", article.URL, err)
	}
	return nil
}

// Get loads the record stored for url. It returns (nil, nil) when absent.
func (r *Repository) Get(ctx context.Context, url string) (*domain.Record, error) {
	query, args, err := r.builder.
		Select(recordColumns...).
		From(articlesTable).
		Where(sq.Eq{"url": url}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", url, err)
	}
	return &rec, nil
}

// ListByTopic returns the topic's records published in [from, to), newest first.
func (r *Repository) ListByTopic(ctx context.Context, topic string, from, to time.Time) ([]domain.Record, error) {
	query, args, err := r.builder.
		Select(recordColumns...).
		From(articlesTable).
		Where(sq.Eq{"topic": topic}).
		Where(sq.GtOrEq{"published_at": from.UTC()}).
		Where(sq.Lt{"published_at": to.UTC()}).
		OrderBy("published_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query topic %s: %w", topic, err)
	}

	var out []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return out, nil
}

// DailySentiment counts the topic's records per UTC publish day and sentiment.
func (r *Repository) DailySentiment(ctx context.Context, topic string, from, to time.Time) ([]domain.DailySentiment, error) {
	records, err := r.ListByTopic(ctx, topic, from, to)
	if err != nil {
		return nil, err
	}
	return aggregateDaily(records), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.Record, error) {
	var (
		rec         domain.Record
		publishedAt sql.NullTime
		sourceName  sql.NullString
		author      sql.NullString
		title       sql.NullString
		description sql.NullString
		imageURL    sql.NullString
		content     sql.NullString
		sentiment   string
	)

	err := row.Scan(
		&rec.Topic,
		&publishedAt,
		&sourceName,
		&author,
		&title,
		&description,
		&rec.URL,
		&imageURL,
		&content,
		&sentiment,
		&rec.CreatedAt,
	)
	if err != nil {
		return domain.Record{}, err
	}

	if publishedAt.Valid {
		t := publishedAt.Time.UTC()
		rec.PublishedAt = &t
	}
	rec.SourceName = stringPtr(sourceName)
	rec.Author = stringPtr(author)
	rec.Title = stringPtr(title)
	rec.Description = stringPtr(description)
	rec.ImageURL = stringPtr(imageURL)
	rec.Content = stringPtr(content)
	rec.Sentiment = domain.Sentiment(sentiment)
	rec.CreatedAt = rec.CreatedAt.UTC()

	return rec, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func nullTime(p *time.Time) sql.NullTime {
	if p == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: p.UTC(), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
