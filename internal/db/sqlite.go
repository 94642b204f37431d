package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yigit/techroom/internal/config"
)

// NewSQLiteDB opens the SQLite database named in the application config
func NewSQLiteDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	maxLifetime, err := time.ParseDuration(cfg.Database.ConnMaxLifetime)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection max lifetime: %w", err)
	}
	return OpenSQLite(ctx, cfg.Database.SQLitePath, maxLifetime)
}

// EnsureSQLiteDir creates the directory that will hold the database file at path
func EnsureSQLiteDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// OpenSQLite opens (creating if needed) the database file at path.
// The pool holds a single connection so writers queue in process.
func OpenSQLite(ctx context.Context, path string, maxLifetime time.Duration) (*sql.DB, error) {
	if err := EnsureSQLiteDir(path); err != nil {
		return nil, err
	}

	pragmas := url.Values{}
	pragmas.Add("_pragma", "foreign_keys(1)")
	pragmas.Add("_pragma", "busy_timeout(5000)")
	pragmas.Add("_pragma", "journal_mode(WAL)")
	dsn := "file:" + path + "?" + pragmas.Encode()

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if maxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(maxLifetime)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}

	return sqlDB, nil
}
