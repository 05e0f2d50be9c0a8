// Package storage persists instances, recipes and runs in SQLite.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arnavsurve/scrapebot/pkg/types"
	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when a looked up row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store is the SQLite backed data layer.
type Store struct {
	db     *sqlx.DB
	logger types.Logger
}

// Open opens (and creates) the database at path and applies pending migrations.
func Open(ctx context.Context, path string, logger types.Logger) (*Store, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}
	// One connection keeps the per-connection pragmas in force and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrateUp(db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	drv, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("preparing migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("preparing migrations: %w", err)
	}
	// m.Close would close db as well, so only the source is released.
	defer src.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Now returns the database clock. Interval checks compare against it so that
// several instances sharing one database agree on time.
func (s *Store) Now(ctx context.Context) (time.Time, error) {
	var sec int64
	if err := s.db.GetContext(ctx, &sec, "SELECT CAST(strftime('%s', 'now') AS INTEGER)"); err != nil {
		return time.Time{}, fmt.Errorf("reading database time: %w", err)
	}
	return fromUnix(sec), nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func exec(ctx context.Context, e sqlx.ExecerContext, b sqlbuilder.Builder) (sql.Result, error) {
	query, args := b.Build()
	return e.ExecContext(ctx, query, args...)
}

func get(ctx context.Context, q sqlx.QueryerContext, dest any, b sqlbuilder.Builder) error {
	query, args := b.Build()
	err := sqlx.GetContext(ctx, q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func selectAll(ctx context.Context, q sqlx.QueryerContext, dest any, b sqlbuilder.Builder) error {
	query, args := b.Build()
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// nowSQL is the database clock as an insertable expression.
var nowSQL = sqlbuilder.Raw("CAST(strftime('%s', 'now') AS INTEGER)")
