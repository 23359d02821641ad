package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"JournalDigest/internal/config"
	"JournalDigest/internal/domain"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "nested", "seen.db")
	store, err := Open(context.Background(), config.DatabaseConfig{Driver: config.DriverSQLite, DSN: dsn})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestExistsAndCommit(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()
	store.now = func() time.Time { return time.Date(2025, time.October, 1, 12, 0, 0, 0, time.UTC) }

	ok, err := store.Exists(ctx, "u1")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Fatalf("empty store reported u1 as seen")
	}

	batch := []domain.Article{
		{Link: "u1", Title: "ML in Asset Pricing", Source: "X", Published: "2025-09-30", Relevant: true},
		{Link: "u2", Title: "Unrelated Macro Note", Source: "X", Published: "2025-09-29"},
	}
	if err := store.CommitBatch(ctx, batch); err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}

	for _, link := range []string{"u1", "u2"} {
		ok, err := store.Exists(ctx, link)
		if err != nil {
			t.Fatalf("Exists(%s): %v", link, err)
		}
		if !ok {
			t.Fatalf("%s should be seen after commit", link)
		}
	}

	rec, err := store.Record(ctx, "u1")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.Title != "ML in Asset Pricing" || rec.Source != "X" || rec.Published != "2025-09-30" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.SeenAt.Equal(time.Date(2025, time.October, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected seen_at: %v", rec.SeenAt)
	}
}

func TestCommitBatchIsIdempotent(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	first := []domain.Article{{Link: "u1", Title: "Original", Source: "X", Published: "2025-01-01"}}
	if err := store.CommitBatch(ctx, first); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	again := []domain.Article{
		{Link: "u1", Title: "Changed", Source: "Y", Published: "2025-02-02"},
		{Link: "u1", Title: "Changed twice", Source: "Y", Published: "2025-02-02"},
		{Link: "u3", Title: "Fresh", Source: "Y", Published: "2025-02-02"},
	}
	if err := store.CommitBatch(ctx, again); err != nil {
		t.Fatalf("duplicate commit must not fail: %v", err)
	}

	rec, err := store.Record(ctx, "u1")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if rec.Title != "Original" || rec.Source != "X" {
		t.Fatalf("existing record must not be updated: %+v", rec)
	}

	counts, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(counts) != 2 || counts[0].Source != "X" || counts[0].Count != 1 || counts[1].Source != "Y" || counts[1].Count != 1 {
		t.Fatalf("unexpected stats: %+v", counts)
	}
}

func TestCommitBatchChunks(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	batch := make([]domain.Article, 0, commitChunk*2+7)
	for i := 0; i < cap(batch); i++ {
		batch = append(batch, domain.Article{Link: fmt.Sprintf("u%03d", i), Title: "t", Source: "X", Published: "2025-01-01"})
	}
	if err := store.CommitBatch(ctx, batch); err != nil {
		t.Fatalf("CommitBatch: %v", err)
	}

	counts, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(counts) != 1 || counts[0].Count != len(batch) {
		t.Fatalf("unexpected stats: %+v", counts)
	}
}

func TestCommitEmptyBatch(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if err := store.CommitBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestRecordMissing(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	_, err := store.Record(context.Background(), "nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestInsertDialects(t *testing.T) {
	t.Parallel()

	rows := []domain.Article{{Link: "u1", Title: "t", Source: "X", Published: "2025-01-01"}}
	seenAt := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	lite, _, err := NewSQLStore(nil, config.DriverSQLite).insertIgnore(rows, seenAt).ToSql()
	if err != nil {
		t.Fatalf("sqlite insert: %v", err)
	}
	if !strings.HasPrefix(lite, "INSERT OR IGNORE INTO seen_articles") || !strings.Contains(lite, "?") {
		t.Fatalf("unexpected sqlite insert: %s", lite)
	}

	pg, _, err := NewSQLStore(nil, config.DriverPostgres).insertIgnore(rows, seenAt).ToSql()
	if err != nil {
		t.Fatalf("postgres insert: %v", err)
	}
	if !strings.HasSuffix(pg, "ON CONFLICT (link) DO NOTHING") || !strings.Contains(pg, "$1") {
		t.Fatalf("unexpected postgres insert: %s", pg)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
