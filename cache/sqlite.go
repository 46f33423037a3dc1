package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// migration source

	// SQLite driver (pure Go, no CGO required)
	_ "modernc.org/sqlite"
)

// SQLiteConfig holds configuration for the SQLite-backed index.
type SQLiteConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// MigrationsPath is the golang-migrate source URL (e.g. "file://cache/migrations").
	MigrationsPath string

	// BusyTimeoutMS is how long to wait for locks in milliseconds.
	BusyTimeoutMS int
}

// DefaultSQLiteConfig returns sensible defaults for the given database path.
func DefaultSQLiteConfig(path string) SQLiteConfig {
	return SQLiteConfig{
		Path:           path,
		MigrationsPath: "file://cache/migrations",
		BusyTimeoutMS:  5000,
	}
}

// SQLiteIndex is the durable SQLite-backed Index. WAL mode allows concurrent
// readers while request handlers insert.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex opens (creating if needed) the database, enables WAL mode,
// and applies pending migrations.
func NewSQLiteIndex(config SQLiteConfig) (*SQLiteIndex, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("cache: sqlite path is required")
	}
	if config.BusyTimeoutMS <= 0 {
		config.BusyTimeoutMS = 5000
	}

	if dir := filepath.Dir(config.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("cache: failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", config.Path)
	if err != nil {
		return nil, fmt.Errorf("cache: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", config.BusyTimeoutMS),
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cache: failed to set pragma: %w", err)
		}
	}

	// SQLite handles concurrency best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if config.MigrationsPath != "" {
		if err := migrateUp(db, config.MigrationsPath); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &SQLiteIndex{db: db}, nil
}

// migrateUp applies all pending migrations. ErrNoChange is not an error.
func migrateUp(db *sql.DB, migrationsPath string) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("cache: failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "main", driver)
	if err != nil {
		return fmt.Errorf("cache: failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("cache: failed to apply migrations: %w", err)
	}
	return nil
}

// Lookup returns the oldest entry for key, or ErrNotFound.
func (s *SQLiteIndex) Lookup(ctx context.Context, key string) (Entry, error) {
	query := `
		SELECT artifact_ref, created_at
		FROM cached_images
		WHERE cache_key = ?
		ORDER BY id
		LIMIT 1`

	var artifactRef, createdAtText string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&artifactRef, &createdAtText)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("cache: lookup failed: %w", err)
	}

	// Timestamps are stored as RFC3339 text so no driver-specific time
	// handling is needed. A parse failure still yields a usable entry.
	createdAt, _ := time.Parse(time.RFC3339Nano, createdAtText)

	return Entry{Key: key, ArtifactRef: artifactRef, CreatedAt: createdAt}, nil
}

// Insert records a new mapping. No uniqueness constraint: concurrent misses
// for the same key both succeed.
func (s *SQLiteIndex) Insert(ctx context.Context, key, artifactRef string) (Entry, error) {
	createdAt := time.Now().UTC()

	query := `
		INSERT INTO cached_images (cache_key, artifact_ref, created_at)
		VALUES (?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query, key, artifactRef, createdAt.Format(time.RFC3339Nano)); err != nil {
		return Entry{}, fmt.Errorf("cache: insert failed: %w", err)
	}

	return Entry{Key: key, ArtifactRef: artifactRef, CreatedAt: createdAt}, nil
}

// Delete removes all entries for key.
func (s *SQLiteIndex) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cached_images WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("cache: delete failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *SQLiteIndex) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

var _ Index = (*SQLiteIndex)(nil)
