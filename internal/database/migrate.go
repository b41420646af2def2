package database

import (
	"embed"
	"errors"
	"fmt"
	"strconv"

	"skillbridge/internal/config"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate applies all pending schema migrations. Safe to run at every
// startup; a fully migrated database is a no-op.
func Migrate(cfg config.DatabaseConfig) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	databaseURL := "postgres://" + cfg.User + ":" + cfg.Password +
		"@" + cfg.Host + ":" + strconv.Itoa(cfg.Port) +
		"/" + cfg.Name + "?sslmode=" + cfg.SSLMode

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
