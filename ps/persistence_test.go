package ps

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/nickyhof/tike/core"
)

func TestNewMemoryPersistence(t *testing.T) {
	persistence, err := NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create memory persistence: %v", err)
	}
	defer persistence.Close()

	if !persistence.IsInitialized() {
		t.Error("Expected persistence to be initialized")
	}
	if persistence.Backend() != BackendSQLite {
		t.Errorf("Expected sqlite backend, got %s", persistence.Backend())
	}
}

func TestPersistenceNotInitialized(t *testing.T) {
	var persistence Persistence

	if persistence.IsInitialized() {
		t.Error("Expected uninitialized persistence to return false")
	}

	if _, err := persistence.Exec("SELECT 1"); err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
	if err := persistence.Close(); err != nil {
		t.Errorf("Expected Close on uninitialized persistence to succeed, got %v", err)
	}
}

func TestExecAndQuery(t *testing.T) {
	persistence, err := NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	defer persistence.Close()

	if _, err := persistence.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	n, err := persistence.Exec("INSERT INTO users (id, name) VALUES (?, ?), (?, ?)", int64(1), "Alice", int64(2), "Bob")
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 affected rows, got %d", n)
	}

	rows, err := persistence.Query("SELECT name FROM users ORDER BY id")
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("Failed to scan: %v", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Row iteration failed: %v", err)
	}
	if len(names) != 2 || names[0] != "Alice" || names[1] != "Bob" {
		t.Errorf("Unexpected names: %v", names)
	}
}

func TestExecWrapsStorageErrors(t *testing.T) {
	persistence, err := NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	defer persistence.Close()

	_, err = persistence.Exec("INSERT INTO missing (x) VALUES (1)")
	if !errors.Is(err, core.ErrStorage) {
		t.Errorf("Expected ErrStorage, got %v", err)
	}
	if _, err := persistence.Query("SELECT * FROM missing"); !errors.Is(err, core.ErrStorage) {
		t.Errorf("Expected ErrStorage, got %v", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	persistence, err := NewMemoryPersistence()
	if err != nil {
		t.Fatalf("Failed to create persistence: %v", err)
	}
	defer persistence.Close()

	if _, err := persistence.Exec("CREATE TABLE items (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	tx, err := persistence.Begin()
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	if _, err := tx.Exec("INSERT INTO items (id) VALUES (1)"); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to roll back: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Errorf("Expected second rollback to be a no-op, got %v", err)
	}

	rows, err := persistence.Query("SELECT COUNT(*) FROM items")
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			t.Fatalf("Failed to scan: %v", err)
		}
	}
	if count != 0 {
		t.Errorf("Expected rollback to discard insert, got %d rows", count)
	}
}

func TestFilePersistenceReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tike.db")

	persistence, err := NewFilePersistence(path)
	if err != nil {
		t.Fatalf("Failed to create file persistence: %v", err)
	}
	if _, err := persistence.Exec("CREATE TABLE notes (body TEXT)"); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if _, err := persistence.Exec("INSERT INTO notes (body) VALUES ('kept')"); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if err := persistence.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	reopened, err := NewFilePersistence(path)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer reopened.Close()

	rows, err := reopened.Query("SELECT body FROM notes")
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	defer rows.Close()

	if !rows.Next() {
		t.Fatal("Expected a row after reopening")
	}
	var body string
	if err := rows.Scan(&body); err != nil {
		t.Fatalf("Failed to scan: %v", err)
	}
	if body != "kept" {
		t.Errorf("Expected 'kept', got %q", body)
	}
}

func TestDuckDBPersistence(t *testing.T) {
	persistence, err := Open(BackendDuckDB, MemoryPath)
	if err != nil {
		t.Fatalf("Failed to open duckdb: %v", err)
	}
	defer persistence.Close()

	if persistence.Backend() != BackendDuckDB {
		t.Errorf("Expected duckdb backend, got %s", persistence.Backend())
	}
	if _, err := persistence.Exec("CREATE TABLE t (id INTEGER)"); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	if _, err := persistence.Exec("INSERT INTO t VALUES (?)", int64(7)); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
}

func TestParseBackend(t *testing.T) {
	for name, want := range map[string]Backend{"": BackendSQLite, "SQLite": BackendSQLite, "duckdb": BackendDuckDB} {
		got, err := ParseBackend(name)
		if err != nil || got != want {
			t.Errorf("ParseBackend(%q): expected %s, got %s (%v)", name, want, got, err)
		}
	}
	if _, err := ParseBackend("mysql"); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(BackendSQLite, ""); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
