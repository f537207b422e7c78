package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetupTestDB(t *testing.T) {
	db, cleanup := SetupTestDB(t, "TestSetupTestDB")
	defer cleanup()

	if db == nil {
		t.Fatal("Expected non-nil database")
	}

	if err := db.Ping(); err != nil {
		t.Errorf("Database ping failed: %v", err)
	}

	var result string
	if err := db.QueryRow("SELECT 'test'").Scan(&result); err != nil {
		t.Errorf("Test query failed: %v", err)
	}
	if result != "test" {
		t.Errorf("Expected 'test', got '%s'", result)
	}
}

func TestSetupTestDBWithMigrations(t *testing.T) {
	db, cleanup := SetupTestDBWithMigrations(t, "TestSetupTestDBWithMigrations")
	defer cleanup()

	for _, table := range []string{"schema_migrations", "recent_documents"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		if err != nil {
			t.Errorf("Error checking for table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("Expected table %s to exist", table)
		}
	}

	_, err := db.Exec("INSERT INTO recent_documents (path, last_action, accessed_at) VALUES (?, ?, CURRENT_TIMESTAMP)", "/tmp/a.json", "load")
	if err != nil {
		t.Errorf("Failed to insert into recent_documents: %v", err)
	}
}

func TestCleanupTestDB(t *testing.T) {
	if err := CleanupTestDB(NewTestDSN("test-cleanup")); err != nil {
		t.Errorf("CleanupTestDB should not error on in-memory database: %v", err)
	}

	if err := CleanupTestDB("invalid-dsn"); err == nil {
		t.Error("Expected error for invalid DSN")
	}
}

func TestSetupTestDB_MultipleInstances(t *testing.T) {
	db1, cleanup1 := SetupTestDB(t, "TestSetupTestDB_MultipleInstances_1")
	defer cleanup1()

	db2, cleanup2 := SetupTestDB(t, "TestSetupTestDB_MultipleInstances_2")
	defer cleanup2()

	if err := db1.Ping(); err != nil {
		t.Errorf("First database failed: %v", err)
	}
	if err := db2.Ping(); err != nil {
		t.Errorf("Second database failed: %v", err)
	}
	if db1 == db2 {
		t.Error("Expected different database instances")
	}
}

func TestTempHomeAndWriteFile(t *testing.T) {
	home := TempHome(t)

	path := WriteFile(t, home, filepath.Join("maps", "lab.json"), "{}")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected '{}', got '%s'", data)
	}

	resolved, err := filepath.EvalSymlinks(home)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if resolved != home {
		t.Errorf("Expected TempHome to be symlink free, got %s -> %s", home, resolved)
	}
}

func TestRouterSwitchDocument(t *testing.T) {
	doc := RouterSwitchDocument()
	if err := doc.Validate(); err != nil {
		t.Errorf("Expected valid document, got %v", err)
	}
}
