package config

import (
	"database/sql"
	"time"
)

// OptimizeDatabaseConnection sizes the connection pool for a small,
// mostly idle history database.
func OptimizeDatabaseConnection(db *sql.DB) {
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
}

// ApplyPragmaOptimizations applies SQLite pragmas for the history database
func ApplyPragmaOptimizations(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",   // readers never block the writer
		"PRAGMA synchronous = NORMAL", // history is not worth an fsync per write
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return err
		}
	}

	return nil
}
