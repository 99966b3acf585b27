// Package postgres manages the library database: the pgx connection pool,
// transactions and schema migrations.
package postgres

import (
	stderrors "errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/turtacn/KeyIP-Substructure/internal/config"
	"github.com/turtacn/KeyIP-Substructure/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// DefaultMigrationsPath is used when the database config leaves it empty.
const DefaultMigrationsPath = "file://migrations"

func migrationsPath(cfg config.DatabaseConfig) string {
	if cfg.MigrationPath == "" {
		return DefaultMigrationsPath
	}
	return cfg.MigrationPath
}

func newMigrate(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	m, err := migrate.New(migrationsPath(cfg), BuildDSN(cfg, "pgx5"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return m, nil
}

// RunMigrations applies every pending migration. No pending work is not an error.
func RunMigrations(cfg config.DatabaseConfig, log logging.Logger) error {
	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to run migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		log.Warn("Failed to read migration version", logging.Err(err))
	}
	log.Info("Database migrations completed", logging.Int64("version", int64(version)), logging.Bool("dirty", dirty))
	return nil
}

// RollbackMigration reverts steps migrations.
func RollbackMigration(cfg config.DatabaseConfig, steps int) error {
	if steps <= 0 {
		return errors.InvalidParam("steps must be greater than 0")
	}
	m, err := newMigrate(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return errors.New(errors.ErrCodeDatabaseError, "no migrations to roll back")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to roll back migrations")
	}
	return nil
}

// MigrationStatus reports the applied version and whether it is dirty.
func MigrationStatus(cfg config.DatabaseConfig) (uint, bool, error) {
	m, err := newMigrate(cfg)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if stderrors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read migration version")
	}
	return version, dirty, nil
}

//Personal.AI order the ending
