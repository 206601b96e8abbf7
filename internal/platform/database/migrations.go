package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/propgraph/propgraph/internal/platform/config"
)

// RunMigrations applies all pending goose migrations from migrationsDir
// against the configured database. It opens its own *sql.DB independent of
// the GORM connection pool, same as goose expects.
func RunMigrations(migrationsDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, absPath, err := openMigrationDB(cfg.Database, migrationsDir)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.Up(db, absPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// RollbackMigrations rolls back the most recently applied migration.
func RollbackMigrations(migrationsDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, absPath, err := openMigrationDB(cfg.Database, migrationsDir)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.Down(db, absPath); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	return nil
}

// MigrationStatus prints the current migration status to stdout.
func MigrationStatus(migrationsDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	db, absPath, err := openMigrationDB(cfg.Database, migrationsDir)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.Status(db, absPath); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}

	return nil
}

func openMigrationDB(cfg config.DatabaseConfig, migrationsDir string) (*sql.DB, string, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database connection for migrations: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to ping database: %w", err)
	}

	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to resolve migrations directory path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		db.Close()
		return nil, "", fmt.Errorf("migrations directory does not exist: %s", absPath)
	}

	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return db, absPath, nil
}
