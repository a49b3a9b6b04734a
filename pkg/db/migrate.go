package db

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"scango/pkg/config"
)

// DefaultMigrationsPath is used when MIGRATIONS_PATH is unset.
const DefaultMigrationsPath = "file://migrations"

// MigrateConfig applies all pending up migrations. A database already at the latest
// version is not an error.
func MigrateConfig(migrationsPath string, cfg config.Config) error {
	if !cfg.DatabaseConfigured() {
		return ErrNotConfigured
	}
	if migrationsPath == "" {
		migrationsPath = DefaultMigrationsPath
	}
	m, err := migrate.New(migrationsPath, migrationConnString(cfg))
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return err
	}
	return nil
}
