package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Database is the SQLite-backed store for users, accounts, transactions and
// saved chat sessions.
type Database struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// New opens (or creates) the database at dbPath and applies any pending
// migrations.
func New(ctx context.Context, dbPath string, logger *zap.Logger) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	// SQLite allows a single writer at a time.
	db.SetMaxOpenConns(1)

	return NewFromDB(db, logger), nil
}

// NewFromDB wraps an already migrated connection.
func NewFromDB(db *sql.DB, logger *zap.Logger) *Database {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Database{db: db, logger: logger, now: time.Now}
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}
