package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	sqlite_migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
)

const (
	// LatestMigrationVersion is the latest migration version of the
	// database.
	//
	// NOTE: This MUST be updated when a new migration is added.
	LatestMigrationVersion uint = 1
)

// MigrationTarget selects the version applyMigrations migrates to.
type MigrationTarget func(mig *migrate.Migrate) error

var (
	// TargetLatest migrates to the newest embedded version.
	TargetLatest = func(mig *migrate.Migrate) error {
		return mig.Up()
	}

	// TargetVersion returns a MigrationTarget for a fixed version.
	TargetVersion = func(version uint) MigrationTarget {
		return func(mig *migrate.Migrate) error {
			return mig.Migrate(version)
		}
	}
)

// ErrMigrationDowngrade is returned when the database was written by a
// newer binary than this one.
var ErrMigrationDowngrade = errors.New("database downgrade detected")

// migrationLogger adapts the package logger to migrate.Logger.
type migrationLogger struct{}

// Printf implements the migrate.Logger interface.
func (migrationLogger) Printf(format string, v ...any) {
	log.Debugf(strings.TrimRight(format, "\n"), v...)
}

// Verbose implements the migrate.Logger interface.
func (migrationLogger) Verbose() bool {
	return false
}

// ApplyMigrations runs the embedded migrations against db.
func ApplyMigrations(db *sql.DB, target MigrationTarget) error {
	driver, err := sqlite_migrate.WithInstance(
		db, &sqlite_migrate.Config{},
	)
	if err != nil {
		return fmt.Errorf("unable to create migration driver: %w", err)
	}

	return applyMigrations(
		sqlSchemas, driver, "migrations", "sqlite3", target,
		LatestMigrationVersion,
	)
}

// applyMigrations executes the migration files found in fsys under path
// using driver, refusing to run on a dirty or newer database.
func applyMigrations(fsys fs.FS, driver database.Driver, path,
	dbName string, target MigrationTarget, latestVersion uint) error {

	src, err := httpfs.New(http.FS(fsys), path)
	if err != nil {
		return err
	}

	sqlMigrate, err := migrate.NewWithInstance(
		"migrations", src, dbName, driver,
	)
	if err != nil {
		return err
	}

	version, dirty, err := sqlMigrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("unable to determine current migration "+
			"version: %w", err)
	}

	// A dirty version means a previous migration failed half way; only a
	// human can sort that out.
	if dirty {
		return fmt.Errorf("database is in a dirty state at version "+
			"%v, manual intervention required", version)
	}

	if version > latestVersion {
		return fmt.Errorf("%w: db_version=%v, "+
			"latest_migration_version=%v", ErrMigrationDowngrade,
			version, latestVersion)
	}

	sqlMigrate.Log = migrationLogger{}

	err = target(sqlMigrate)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	newVersion, _, err := driver.Version()
	if err != nil {
		return fmt.Errorf("unable to get current db version: %w", err)
	}
	if newVersion != int(version) {
		log.Infof("Database migrated from version %d to %d",
			version, newVersion)
	}

	return nil
}
