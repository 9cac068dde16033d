package ps

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/glebarez/go-sqlite"

	"github.com/nickyhof/tike/core"
)

var (
	ErrNotInitialized = errors.New("persistence layer not initialized")
)

// Backend names the relational engine behind a Persistence.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendDuckDB Backend = "duckdb"
)

// MemoryPath opens a private in-memory database on either backend.
const MemoryPath = ":memory:"

// sqlitePragmas are applied by the driver while each connection is set up.
const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(name)) {
	case BackendSQLite, "sqlite3", "":
		return BackendSQLite, nil
	case BackendDuckDB:
		return BackendDuckDB, nil
	default:
		return "", fmt.Errorf("%w: unknown backend %q", core.ErrInvalidInput, name)
	}
}

// driverName and dsn translate a backend and path into database/sql terms.
func (backend Backend) driverName() string {
	if backend == BackendDuckDB {
		return "duckdb"
	}
	return "sqlite"
}

func (backend Backend) dsn(path string) string {
	switch backend {
	case BackendDuckDB:
		if path == MemoryPath {
			return ""
		}
		return path
	default:
		return path + "?" + sqlitePragmas
	}
}

// Rows is the cursor returned by Query. *sql.Rows satisfies it.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Executor runs statements either directly on the connection or inside a
// transaction.
type Executor interface {
	Exec(query string, args ...any) (int64, error)
	Query(query string, args ...any) (Rows, error)
}

// Persistence owns the single database connection of a process.
type Persistence struct {
	db      *sql.DB
	backend Backend
	path    string
}

// IsInitialized returns true if the persistence layer has an open handle
func (p *Persistence) IsInitialized() bool {
	return p != nil && p.db != nil
}

// ensureInitialized checks if the persistence layer is initialized and returns an error if not
func (p *Persistence) ensureInitialized() error {
	if !p.IsInitialized() {
		return ErrNotInitialized
	}
	return nil
}

func (p *Persistence) Backend() Backend {
	return p.backend
}

func (p *Persistence) Path() string {
	return p.path
}

// Open connects to the database at path, creating the file and its parent
// directory when they do not exist. MemoryPath selects an in-memory store.
func Open(backend Backend, path string) (*Persistence, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty database path", core.ErrInvalidInput)
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("%w: failed to create database directory: %w", core.ErrStorage, err)
		}
	}

	db, err := sql.Open(backend.driverName(), backend.dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", core.ErrStorage, err)
	}

	// One connection keeps in-memory databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: failed to connect to database: %w", core.ErrStorage, err)
	}

	return &Persistence{
		db:      db,
		backend: backend,
		path:    path,
	}, nil
}

func NewMemoryPersistence() (*Persistence, error) {
	return Open(BackendSQLite, MemoryPath)
}

func NewFilePersistence(path string) (*Persistence, error) {
	return Open(BackendSQLite, path)
}

// Close releases the connection. Closing twice is a no-op.
func (p *Persistence) Close() error {
	if !p.IsInitialized() {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if err != nil {
		return fmt.Errorf("%w: failed to close database: %w", core.ErrStorage, err)
	}
	return nil
}

// Exec runs a statement and returns the number of affected rows.
func (p *Persistence) Exec(query string, args ...any) (int64, error) {
	if err := p.ensureInitialized(); err != nil {
		return 0, err
	}
	result, err := p.db.Exec(query, args...)
	return affected(result, err)
}

func (p *Persistence) Query(query string, args ...any) (Rows, error) {
	if err := p.ensureInitialized(); err != nil {
		return nil, err
	}
	rows, err := p.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute query: %w", core.ErrStorage, err)
	}
	return rows, nil
}

// Begin starts a database transaction. The caller must Commit or Rollback.
func (p *Persistence) Begin() (*Tx, error) {
	if err := p.ensureInitialized(); err != nil {
		return nil, err
	}
	tx, err := p.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", core.ErrStorage, err)
	}
	return &Tx{tx: tx}, nil
}

// Tx is an open database transaction.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Exec(query string, args ...any) (int64, error) {
	result, err := t.tx.Exec(query, args...)
	return affected(result, err)
}

func (t *Tx) Query(query string, args ...any) (Rows, error) {
	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute query: %w", core.ErrStorage, err)
	}
	return rows, nil
}

func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", core.ErrStorage, err)
	}
	return nil
}

// Rollback aborts the transaction. Rolling back a finished transaction is
// not an error.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: failed to roll back transaction: %w", core.ErrStorage, err)
	}
	return nil
}

func affected(result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, fmt.Errorf("%w: failed to execute statement: %w", core.ErrStorage, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		// Statements such as CREATE report no count on some drivers.
		return 0, nil
	}
	return n, nil
}
