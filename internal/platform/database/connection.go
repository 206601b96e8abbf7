package database

import (
	"fmt"

	"github.com/propgraph/propgraph/internal/platform/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is the process-wide database connection, mirroring the rest of this
// codebase's singleton platform clients (logger.Get).
var DB *gorm.DB

// Connect opens (or returns the existing) GORM connection. The driver is
// selected by DatabaseConfig.Driver so unit tests can run the exact same
// repository code against an in-memory sqlite database.
func Connect() (*gorm.DB, error) {
	if DB != nil {
		return DB, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	db, err := Open(cfg.Database)
	if err != nil {
		return nil, err
	}

	DB = db
	return DB, nil
}

// Open opens a fresh GORM connection for the given database config without
// touching the package-level singleton. Used by tests that need isolated
// databases.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		name := cfg.Name
		if name == "" {
			name = ":memory:"
		}
		dialector = sqlite.Open(name)
	default:
		dialector = postgres.Open(cfg.GetDSN())
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Close closes the package-level connection.
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
