package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDBPath returns the default path for the diagnostics database.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".devhooks", "events.db"), nil
}

// OpenSQLite opens a SQLite database with WAL mode and a busy timeout.
// Several hook processes may write concurrently, so the busy timeout is what
// serializes them.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w",
			err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000",
		dbPath,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer, single reader: hook processes only live for one
	// event.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := configurePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	return db, nil
}

// configurePragmas applies the remaining pragmas that cannot be set from
// the DSN.
func configurePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// SqliteConfig configures NewSqliteStore.
type SqliteConfig struct {
	// DatabaseFileName is the path of the database file.
	DatabaseFileName string

	// SkipMigrations leaves the schema untouched. Only useful for
	// read-only inspection of a database written by a newer binary.
	SkipMigrations bool
}

// NewSqliteStore opens the database and brings the schema up to date.
func NewSqliteStore(cfg *SqliteConfig) (*Store, error) {
	sqlDB, err := OpenSQLite(cfg.DatabaseFileName)
	if err != nil {
		return nil, err
	}

	if !cfg.SkipMigrations {
		err := ApplyMigrations(sqlDB, TargetLatest)
		if err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate database: %w",
				err)
		}
	}

	return NewStore(sqlDB), nil
}
