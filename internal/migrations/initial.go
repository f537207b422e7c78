package migrations

import (
	"database/sql"
)

// GetInitialMigrations returns all initial migrations
func GetInitialMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_recent_documents",
			Up: func(tx *sql.Tx) error {
				_, err := tx.Exec(`
					CREATE TABLE IF NOT EXISTS recent_documents (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						path TEXT NOT NULL UNIQUE,
						last_action TEXT NOT NULL CHECK (last_action IN ('load', 'save')),
						device_count INTEGER NOT NULL DEFAULT 0,
						connection_count INTEGER NOT NULL DEFAULT 0,
						accessed_at DATETIME NOT NULL,
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)
				`)
				return err
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec(`DROP TABLE IF EXISTS recent_documents`)
				return err
			},
		},
	}
}
