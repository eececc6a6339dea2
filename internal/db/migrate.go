package db

import (
	"fmt" // Error wrapping

	"promptionary/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// mysqlTableOptions gives new MySQL tables a binary collation, so unique
// indexes and lookups on names compare case and accents exactly
const mysqlTableOptions = "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_bin"

// tableOptions returns the CREATE TABLE options for a dialect
func tableOptions(dialect string) string {
	if dialect == DriverMySQL {
		return mysqlTableOptions
	}
	return ""
}

// withTableOptions applies the dialect's table options to schema statements
func withTableOptions(db *gorm.DB) *gorm.DB {
	if opts := tableOptions(db.Dialector.Name()); opts != "" {
		return db.Set("gorm:table_options", opts)
	}
	return db
}

// Models lists every table the application owns, in creation order
func Models() []any {
	return []any{
		&domain.Account{},
		&domain.Category{},
		&domain.Entry{},
		&domain.EntryCategory{},
		&domain.Translation{},
		&domain.Transaction{},
	}
}

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	db = withTableOptions(db)
	// Entry.Categories goes through the explicit join model
	if err := db.SetupJoinTable(&domain.Entry{}, "Categories", &domain.EntryCategory{}); err != nil {
		return fmt.Errorf("setup join table: %w", err)
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}
