// Package migrations owns the musiclist schema and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Source returns the embedded migration files.
func Source() (source.Driver, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	return src, nil
}

// Init brings the schema at dsn up to date. With drop set, every table is
// removed first. driverName is a registered database/sql driver ("pgx" or
// "postgres"); the handle opened here is closed before Init returns.
func Init(driverName, dsn string, drop bool) error {
	if drop {
		m, err := newMigrator(driverName, dsn)
		if err != nil {
			return err
		}
		dropErr := m.Drop()
		if err := closeMigrator(m); err != nil && dropErr == nil {
			dropErr = err
		}
		if dropErr != nil {
			return fmt.Errorf("drop schema: %w", dropErr)
		}
	}

	m, err := newMigrator(driverName, dsn)
	if err != nil {
		return err
	}
	upErr := m.Up()
	if errors.Is(upErr, migrate.ErrNoChange) {
		upErr = nil
	}
	if err := closeMigrator(m); err != nil && upErr == nil {
		upErr = err
	}
	if upErr != nil {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	return nil
}

// Version reports the applied schema version.
func Version(driverName, dsn string) (uint, bool, error) {
	m, err := newMigrator(driverName, dsn)
	if err != nil {
		return 0, false, err
	}
	defer closeMigrator(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

func newMigrator(driverName, dsn string) (*migrate.Migrate, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create postgres driver: %w", err)
	}

	src, err := Source()
	if err != nil {
		driver.Close()
		return nil, err
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

func closeMigrator(m *migrate.Migrate) error {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return fmt.Errorf("close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration database: %w", dbErr)
	}
	return nil
}
