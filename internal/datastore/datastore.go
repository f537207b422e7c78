package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jbweber/homelab/netmap/internal/migrations"
)

// Document actions recorded in the history.
const (
	ActionLoad = "load"
	ActionSave = "save"
)

// RecentDocument is a row of the recent_documents table
type RecentDocument struct {
	ID              int64     // Unique identifier
	Path            string    // Absolute path of the config file, unique
	LastAction      string    // ActionLoad or ActionSave
	DeviceCount     int       // Devices in the document at that time
	ConnectionCount int       // Connections in the document at that time
	AccessedAt      time.Time // When the action happened
}

type Datastore struct {
	DB *sql.DB
}

// New opens the sqlite database at path and runs migrations.
func New(path string) (*Datastore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Datastore{DB: db}, nil
}

// NewWithDB wraps an already opened and migrated database.
func NewWithDB(db *sql.DB) *Datastore {
	return &Datastore{DB: db}
}

// Close closes the underlying database.
func (ds *Datastore) Close() error {
	return ds.DB.Close()
}

func validateRecentDocument(r RecentDocument) error {
	if r.Path == "" {
		return fmt.Errorf("document path is required")
	}
	if r.LastAction != ActionLoad && r.LastAction != ActionSave {
		return fmt.Errorf("invalid document action %q", r.LastAction)
	}
	if r.DeviceCount < 0 || r.ConnectionCount < 0 {
		return fmt.Errorf("document counts must not be negative")
	}
	return nil
}

// UpsertRecentDocument inserts a history row or refreshes the row for the same path.
func (ds *Datastore) UpsertRecentDocument(ctx context.Context, r RecentDocument) (RecentDocument, error) {
	if err := validateRecentDocument(r); err != nil {
		return RecentDocument{}, err
	}
	if r.AccessedAt.IsZero() {
		r.AccessedAt = time.Now()
	}
	r.AccessedAt = r.AccessedAt.UTC()

	err := ds.DB.QueryRowContext(ctx, `
		INSERT INTO recent_documents (path, last_action, device_count, connection_count, accessed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			last_action = excluded.last_action,
			device_count = excluded.device_count,
			connection_count = excluded.connection_count,
			accessed_at = excluded.accessed_at
		RETURNING id`,
		r.Path, r.LastAction, r.DeviceCount, r.ConnectionCount, r.AccessedAt,
	).Scan(&r.ID)
	if err != nil {
		return RecentDocument{}, err
	}
	return r, nil
}

const recentColumns = "id, path, last_action, device_count, connection_count, accessed_at"

func scanRecent(row interface{ Scan(...any) error }) (RecentDocument, error) {
	var r RecentDocument
	err := row.Scan(&r.ID, &r.Path, &r.LastAction, &r.DeviceCount, &r.ConnectionCount, &r.AccessedAt)
	return r, err
}

// GetRecentDocument retrieves a history row by ID.
func (ds *Datastore) GetRecentDocument(ctx context.Context, id int64) (*RecentDocument, error) {
	r, err := scanRecent(ds.DB.QueryRowContext(ctx, "SELECT "+recentColumns+" FROM recent_documents WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// GetRecentDocumentByPath retrieves a history row by its unique path.
func (ds *Datastore) GetRecentDocumentByPath(ctx context.Context, path string) (*RecentDocument, error) {
	r, err := scanRecent(ds.DB.QueryRowContext(ctx, "SELECT "+recentColumns+" FROM recent_documents WHERE path = ?", path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

// ListRecentDocuments returns history rows, most recently accessed first.
// A limit of zero or less returns every row.
func (ds *Datastore) ListRecentDocuments(ctx context.Context, limit int) ([]RecentDocument, error) {
	query := "SELECT " + recentColumns + " FROM recent_documents ORDER BY accessed_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := ds.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	docs := []RecentDocument{}
	for rows.Next() {
		r, err := scanRecent(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, r)
	}
	return docs, rows.Err()
}

// DeleteRecentDocument removes a history row by ID.
func (ds *Datastore) DeleteRecentDocument(ctx context.Context, id int64) error {
	_, err := ds.DB.ExecContext(ctx, "DELETE FROM recent_documents WHERE id = ?", id)
	return err
}

// PruneRecentDocuments keeps the newest keep rows and deletes the rest,
// returning how many rows were removed.
func (ds *Datastore) PruneRecentDocuments(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := ds.DB.ExecContext(ctx, `
		DELETE FROM recent_documents WHERE id NOT IN (
			SELECT id FROM recent_documents ORDER BY accessed_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
