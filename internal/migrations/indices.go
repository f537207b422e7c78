package migrations

import (
	"database/sql"
)

// GetIndexMigrations returns migrations that add query indices
func GetIndexMigrations() []Migration {
	return []Migration{
		{
			Version: 10,
			Name:    "add_recent_documents_indices",
			Up: func(tx *sql.Tx) error {
				indices := []string{
					"CREATE INDEX IF NOT EXISTS idx_recent_documents_accessed_at ON recent_documents(accessed_at DESC)",
				}

				for _, indexSQL := range indices {
					if _, err := tx.Exec(indexSQL); err != nil {
						return err
					}
				}

				return nil
			},
			Down: func(tx *sql.Tx) error {
				_, err := tx.Exec("DROP INDEX IF EXISTS idx_recent_documents_accessed_at")
				return err
			},
		},
	}
}
