package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrator applies the embedded schema scripts to the history database.
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

// Up applies every pending script. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	return m.step("up", (*migrate.Migrate).Up)
}

// Down reverts every applied script.
func (m *Migrator) Down() error {
	return m.step("down", (*migrate.Migrate).Down)
}

// Version reports the applied schema version. A database with no scripts
// applied reports version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	err = m.with(func(mg *migrate.Migrate) error {
		version, dirty, err = mg.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return err
	})
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

func (m *Migrator) step(direction string, apply func(*migrate.Migrate) error) error {
	err := m.with(func(mg *migrate.Migrate) error {
		if err := apply(mg); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", direction, err)
	}
	m.logger.Info("Database schema migrated", zap.String("direction", direction))
	return nil
}

func (m *Migrator) with(fn func(*migrate.Migrate) error) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	target, err := postgres.WithInstance(m.db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}
	mg, err := migrate.NewWithInstance("iofs", source, "postgres", target)
	if err != nil {
		return err
	}
	// Closing the instance would close the shared *sql.DB as well.
	return fn(mg)
}
