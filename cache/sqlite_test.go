package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// newTestSQLiteIndex opens a fresh database in a temp dir. The migrations
// path is relative to this package directory, where tests run.
func newTestSQLiteIndex(t *testing.T) *SQLiteIndex {
	t.Helper()

	cfg := SQLiteConfig{
		Path:           filepath.Join(t.TempDir(), "test.db"),
		MigrationsPath: "file://migrations",
	}
	index, err := NewSQLiteIndex(cfg)
	if err != nil {
		t.Fatalf("NewSQLiteIndex() error = %v", err)
	}
	t.Cleanup(func() {
		if err := index.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return index
}

func TestSQLiteIndexRequiresPath(t *testing.T) {
	if _, err := NewSQLiteIndex(SQLiteConfig{}); err == nil {
		t.Fatal("NewSQLiteIndex() with empty path should fail")
	}
}

func TestSQLiteIndexLookupMiss(t *testing.T) {
	index := newTestSQLiteIndex(t)

	_, err := index.Lookup(context.Background(), "no such key")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteIndexInsertThenLookup(t *testing.T) {
	index := newTestSQLiteIndex(t)
	ctx := context.Background()

	inserted, err := index.Insert(ctx, "sunset over mountains", "http://example.com/a.png")
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if inserted.CreatedAt.IsZero() {
		t.Error("inserted CreatedAt is zero")
	}

	found, err := index.Lookup(ctx, "sunset over mountains")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if found.ArtifactRef != "http://example.com/a.png" {
		t.Errorf("ArtifactRef = %q, want stored ref", found.ArtifactRef)
	}
	if found.CreatedAt.IsZero() {
		t.Error("Lookup CreatedAt is zero, timestamp round-trip failed")
	}
}

func TestSQLiteIndexKeysAreExact(t *testing.T) {
	index := newTestSQLiteIndex(t)
	ctx := context.Background()

	if _, err := index.Insert(ctx, "Sunset", "ref"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	// Different case and different whitespace are different keys.
	if _, err := index.Lookup(ctx, "sunset"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(lowercase) error = %v, want ErrNotFound", err)
	}
	if _, err := index.Lookup(ctx, "Sunset "); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup(trailing space) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteIndexDuplicateInsertsKeepOldest(t *testing.T) {
	index := newTestSQLiteIndex(t)
	ctx := context.Background()

	if _, err := index.Insert(ctx, "k", "ref-1"); err != nil {
		t.Fatalf("first Insert() error = %v", err)
	}
	if _, err := index.Insert(ctx, "k", "ref-2"); err != nil {
		t.Fatalf("second Insert() error = %v", err)
	}

	found, err := index.Lookup(ctx, "k")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if found.ArtifactRef != "ref-1" {
		t.Errorf("Lookup returned %q, want oldest entry ref-1", found.ArtifactRef)
	}
}

func TestSQLiteIndexDelete(t *testing.T) {
	index := newTestSQLiteIndex(t)
	ctx := context.Background()

	if _, err := index.Insert(ctx, "k", "ref-1"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := index.Insert(ctx, "k", "ref-2"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	if err := index.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := index.Lookup(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Lookup() after delete error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteIndexPing(t *testing.T) {
	index := newTestSQLiteIndex(t)
	if err := index.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
