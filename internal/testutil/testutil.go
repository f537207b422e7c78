package testutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/jbweber/homelab/netmap/internal/domain"
	"github.com/jbweber/homelab/netmap/internal/migrations"
)

// CleanupTestDB removes the test database file. In-memory databases have
// no file, so a missing file is not an error.
func CleanupTestDB(dsn string) error {
	if len(dsn) < 5 || dsn[:5] != "file:" {
		return fmt.Errorf("invalid DSN format")
	}

	path := dsn[5:]
	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SetupTestDB creates and returns a test database connection
func SetupTestDB(t *testing.T, testName string) (*sql.DB, func()) {
	t.Helper()
	dsn := NewTestDSN(testName)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One connection keeps the shared in-memory database alive and avoids
	// table locks between pooled connections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	cleanup := func() {
		db.Close()
		CleanupTestDB(dsn)
	}

	return db, cleanup
}

// SetupTestDBWithMigrations creates a test database with the full schema applied
func SetupTestDBWithMigrations(t *testing.T, testName string) (*sql.DB, func()) {
	t.Helper()
	db, cleanup := SetupTestDB(t, testName)

	if err := migrations.Run(db); err != nil {
		cleanup()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db, cleanup
}

// TempHome creates a temporary directory to act as a sandbox root and
// returns its symlink-free path.
func TempHome(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to resolve temp dir: %v", err)
	}
	return dir
}

// WriteFile writes content to name under dir, creating parent directories.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// RouterSwitchDocument is a two-device document with one solid connection
// between the router's eth0 and the switch's eth0.
func RouterSwitchDocument() domain.Document {
	return domain.Document{
		Devices: []domain.Device{
			{ID: "A", Type: "router", Icon: "/networkmap/icons/network/router.svg", X: 100, Y: 100},
			{ID: "B", Type: "switch", Icon: "/networkmap/icons/network/switch.svg", X: 300, Y: 100},
		},
		Connections: []domain.Connection{
			{
				ID:              "C",
				SourceDeviceID:  "A",
				TargetDeviceID:  "B",
				SourceInterface: domain.Interface{Name: "eth0"},
				TargetInterface: domain.Interface{Name: "eth0"},
				Type:            domain.LineSolid,
			},
		},
	}
}
