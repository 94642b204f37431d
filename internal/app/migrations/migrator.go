package migrations

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"

	"github.com/yigit/techroom/internal/config"
	"github.com/yigit/techroom/internal/db"
	"github.com/yigit/techroom/internal/pkg/logger"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Migrator runs the embedded schema migrations against one database
type Migrator struct {
	dialect string
	dbURL   string
}

// NewMigrator creates a migrator for dbURL. The URL scheme selects the
// dialect: pgx5:// for PostgreSQL, sqlite:// for SQLite.
func NewMigrator(dbURL string) (*Migrator, error) {
	var dialect string
	switch {
	case strings.HasPrefix(dbURL, "pgx5://"):
		dialect = config.BackendPostgres
	case strings.HasPrefix(dbURL, "sqlite://"):
		dialect = config.BackendSQLite
	default:
		return nil, fmt.Errorf("unsupported migration url scheme: %q", dbURL)
	}
	return &Migrator{dialect: dialect, dbURL: dbURL}, nil
}

// ForConfig creates a migrator for the configured backend
func ForConfig(cfg *config.Config) (*Migrator, error) {
	dbURL, err := cfg.GetMigrationURL()
	if err != nil {
		return nil, err
	}
	return NewMigrator(dbURL)
}

func (m *Migrator) log() zerolog.Logger {
	return logger.Component("migrations").With().Str("dialect", m.dialect).Logger()
}

// sqlitePath returns the file path of a sqlite:// migration URL
func sqlitePath(dbURL string) string {
	path := strings.TrimPrefix(dbURL, "sqlite://")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	if m.dialect == config.BackendSQLite {
		if err := db.EnsureSQLiteDir(sqlitePath(m.dbURL)); err != nil {
			return nil, err
		}
	}

	sub, err := fs.Sub(files, m.dialect)
	if err != nil {
		return nil, fmt.Errorf("failed to get embedded migrations: %w", err)
	}

	d, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	mg, err := migrate.NewWithSourceInstance("iofs", d, m.dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return mg, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	mg, err := m.instance()
	if err != nil {
		return err
	}
	defer func() { _, _ = mg.Close() }()

	if err := mg.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			lg := m.log()
			lg.Info().Msg("No migrations to run - database is up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	version, _, _ := mg.Version()
	lg := m.log()
	lg.Info().Uint("version", version).Msg("Migrations applied successfully")
	return nil
}

// Down rolls back steps migrations
func (m *Migrator) Down(steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}

	mg, err := m.instance()
	if err != nil {
		return err
	}
	defer func() { _, _ = mg.Close() }()

	if err := mg.Steps(-steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	lg := m.log()
	lg.Info().Int("steps", steps).Msg("Migrations rolled back")
	return nil
}

// Version reports the applied schema version. A database without any
// applied migration reports version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	mg, err := m.instance()
	if err != nil {
		return 0, false, err
	}
	defer func() { _, _ = mg.Close() }()

	version, dirty, err = mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
