package db

import (
	"fmt" // Error wrapping

	"promptionary/internal/config" // Database settings
	"promptionary/internal/store"  // Persistence implementations

	"gorm.io/driver/mysql"    // MySQL driver for GORM
	"gorm.io/driver/postgres" // Postgres driver for GORM
	"gorm.io/gorm"            // GORM ORM library
	"gorm.io/gorm/logger"     // GORM query logging
)

// Supported values of DB_DRIVER
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Dialector picks the GORM dialect for the configured driver
func Dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case DriverMySQL, "":
		return mysql.Open(cfg.DSN()), nil
	case DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

// Open connects to the configured SQL database
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}
	level := logger.Warn
	if cfg.IsProd {
		level = logger.Error
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true, // Unique violations surface as gorm.ErrDuplicatedKey
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	return db, nil
}

// OpenStore returns the store for the configured driver and a func releasing it.
// The memory driver needs no database and keeps everything in process.
func OpenStore(cfg *config.Config) (store.Store, func(), error) {
	if cfg.DBDriver == DriverMemory {
		return store.NewMemory(), func() {}, nil
	}
	db, err := Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("unwrap connection pool: %w", err)
	}
	return store.NewGorm(db), func() { _ = sqlDB.Close() }, nil
}
