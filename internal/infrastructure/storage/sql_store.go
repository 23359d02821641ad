package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"JournalDigest/internal/config"
	"JournalDigest/internal/domain"
	"JournalDigest/internal/ports"
)

const (
	seenTable = "seen_articles"
	// commitChunk keeps each multi-row insert well under SQLite's bound-variable limit.
	commitChunk = 100
)

const schema = `CREATE TABLE IF NOT EXISTS seen_articles (
	link           TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	source         TEXT NOT NULL,
	published_date TEXT NOT NULL,
	seen_at        TEXT NOT NULL
)`

// SQLStore is the novelty store backed by SQLite or Postgres.
type SQLStore struct {
	db      *sql.DB
	driver  string
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.NoveltyStore = (*SQLStore)(nil)

// Open connects to the configured engine and makes sure the table exists.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*SQLStore, error) {
	var (
		db  *sql.DB
		err error
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		if dir := filepath.Dir(cfg.DSN); dir != "." && !strings.HasPrefix(cfg.DSN, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		db, err = sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// SQLite serializes writers; one connection avoids SQLITE_BUSY inside a run.
		db.SetMaxOpenConns(1)
	case config.DriverPostgres:
		db, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	store := NewSQLStore(db, cfg.Driver)
	if err := store.init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wraps an already opened database; driver selects the SQL dialect.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if driver == config.DriverPostgres {
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &SQLStore{db: db, driver: driver, builder: builder, now: time.Now}
}

func (s *SQLStore) init(ctx context.Context) error {
	if s.driver == config.DriverSQLite {
		if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			return fmt.Errorf("set busy timeout: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Exists reports whether link was committed by an earlier delivery.
func (s *SQLStore) Exists(ctx context.Context, link string) (bool, error) {
	query, args, err := s.builder.
		Select("1").
		From(seenTable).
		Where(sq.Eq{"link": link}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query seen link: %w", err)
	}
	return true, nil
}

// CommitBatch records every article in one transaction. Links already present are left untouched.
func (s *SQLStore) CommitBatch(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	seenAt := s.now().UTC()
	for start := 0; start < len(articles); start += commitChunk {
		end := min(start+commitChunk, len(articles))

		query, args, err := s.insertIgnore(articles[start:end], seenAt).ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert seen articles: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seen articles: %w", err)
	}
	return nil
}

func (s *SQLStore) insertIgnore(articles []domain.Article, seenAt time.Time) sq.InsertBuilder {
	insert := s.builder.
		Insert(seenTable).
		Columns("link", "title", "source", "published_date", "seen_at")

	for _, a := range articles {
		rec := domain.SeenRecordOf(a, seenAt)
		insert = insert.Values(rec.Link, rec.Title, rec.Source, rec.Published, rec.SeenAt.Format(time.RFC3339))
	}

	if s.driver == config.DriverPostgres {
		return insert.Suffix("ON CONFLICT (link) DO NOTHING")
	}
	return insert.Options("OR IGNORE")
}

// Stats counts stored records per source.
func (s *SQLStore) Stats(ctx context.Context) ([]ports.SourceCount, error) {
	query, args, err := s.builder.
		Select("source", "COUNT(*)").
		From(seenTable).
		GroupBy("source").
		OrderBy("source").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var counts []ports.SourceCount
	for rows.Next() {
		var c ports.SourceCount
		if err := rows.Scan(&c.Source, &c.Count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return counts, nil
}

// Record loads the stored row for link.
func (s *SQLStore) Record(ctx context.Context, link string) (domain.SeenRecord, error) {
	query, args, err := s.builder.
		Select("link", "title", "source", "published_date", "seen_at").
		From(seenTable).
		Where(sq.Eq{"link": link}).
		ToSql()
	if err != nil {
		return domain.SeenRecord{}, fmt.Errorf("build record query: %w", err)
	}

	var (
		rec    domain.SeenRecord
		seenAt string
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&rec.Link, &rec.Title, &rec.Source, &rec.Published, &seenAt)
	if err != nil {
		return domain.SeenRecord{}, fmt.Errorf("query record %s: %w", link, err)
	}
	if rec.SeenAt, err = time.Parse(time.RFC3339, seenAt); err != nil {
		return domain.SeenRecord{}, fmt.Errorf("parse seen_at: %w", err)
	}
	return rec, nil
}
