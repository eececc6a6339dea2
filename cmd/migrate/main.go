package main

import (
	"promptionary/internal/config" // Custom import path (Config)
	"promptionary/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus"
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.DBDriver == db.DriverMemory {
		logrus.Info("memory driver has no schema to migrate")
		return
	}
	conn, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	if err := db.Migrate(conn); err != nil {
		logrus.Fatal(err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
