package db

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/nickyhof/tike/core"
	"github.com/nickyhof/tike/ps"
	"github.com/nickyhof/tike/sql"
)

// NullPolicy decides how a NULL column value surfaces in a decoded Record.
type NullPolicy int

const (
	// NullAsEmptyText decodes NULL as Text("").
	NullAsEmptyText NullPolicy = iota
	// NullAsAbsent leaves the column out of the Record.
	NullAsAbsent
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(engine *Engine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

func WithNullPolicy(policy NullPolicy) Option {
	return func(engine *Engine) {
		engine.nullPolicy = policy
	}
}

// WithPrimaryKey declares the primary key of a table created outside this
// process, so pseudo-IDs and GetAllRecords rank by it.
func WithPrimaryKey(table, column string) Option {
	return func(engine *Engine) {
		engine.keys.set(table, column)
	}
}

// WithS3 sets credentials and endpoint for s3:// import and export URLs.
// Without it the AWS default credential chain is used.
func WithS3(cfg S3Config) Option {
	return func(engine *Engine) {
		engine.s3 = &cfg
	}
}

// Engine is the record-level interface to a Persistence. Every method is one
// atomic unit of work unless it runs inside Transaction.
type Engine struct {
	persistence *ps.Persistence
	executor    ps.Executor
	builder     sql.Builder
	logger      *slog.Logger
	nullPolicy  NullPolicy
	keys        *keyRegistry
	s3          *S3Config
	inTx        bool
}

func NewEngine(persistence *ps.Persistence, opts ...Option) *Engine {
	engine := &Engine{
		persistence: persistence,
		executor:    persistence,
		builder:     sql.NewBuilder(dialectOf(persistence.Backend())),
		logger:      slog.New(slog.DiscardHandler),
		keys:        &keyRegistry{keys: make(map[string]string)},
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

func dialectOf(backend ps.Backend) sql.Dialect {
	if backend == ps.BackendDuckDB {
		return sql.DuckDB
	}
	return sql.SQLite
}

// Persistence returns the handle the engine writes through.
func (engine *Engine) Persistence() *ps.Persistence {
	return engine.persistence
}

// keyRegistry remembers primary keys learned from CreateTable.
type keyRegistry struct {
	mu   sync.RWMutex
	keys map[string]string
}

func (registry *keyRegistry) set(table, column string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.keys[table] = column
}

// setIfAbsent records column unless table already has a key.
func (registry *keyRegistry) setIfAbsent(table, column string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.keys[table]; !ok {
		registry.keys[table] = column
	}
}

func (registry *keyRegistry) get(table string) (string, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	column, ok := registry.keys[table]
	return column, ok
}

// primaryKey returns the column pseudo-IDs rank by for table.
func (engine *Engine) primaryKey(table string) string {
	if column, ok := engine.keys.get(table); ok {
		return column
	}
	return core.DefaultPrimaryKey
}

func (engine *Engine) exec(stmt sql.Statement) (int64, error) {
	engine.logger.Debug("exec", "query", stmt.Query, "args", len(stmt.Args))
	return engine.executor.Exec(stmt.Query, stmt.BindArgs()...)
}

func (engine *Engine) query(table string, stmt sql.Statement) ([]core.Record, error) {
	engine.logger.Debug("query", "query", stmt.Query, "args", len(stmt.Args))

	rows, err := engine.executor.Query(stmt.Query, stmt.BindArgs()...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return decodeRows(table, rows, engine.nullPolicy)
}

// CreateTable declares table unless it already exists. A primary key column
// in columns becomes the ranking column for pseudo-IDs, unless the engine
// already knows a key for table from WithPrimaryKey or an earlier
// CreateTable. Re-declaring a table never changes its ranking column.
func (engine *Engine) CreateTable(table string, columns []core.Column) error {
	stmts, err := engine.builder.CreateTable(table, columns)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := engine.exec(stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}
	}

	if pk, ok := (core.Table{Name: table, Columns: columns}).PrimaryKey(); ok {
		engine.keys.setIfAbsent(table, pk)
	}

	engine.logger.Debug("table ready", "table", table, "columns", len(columns))
	return nil
}

// AddRecord inserts record as a new row of record.Table.
func (engine *Engine) AddRecord(record core.Record) error {
	stmt, err := engine.builder.Insert(record)
	if err != nil {
		return err
	}

	if _, err := engine.exec(stmt); err != nil {
		return fmt.Errorf("failed to add record to %s: %w", record.Table, err)
	}
	return nil
}

// RemoveRecord deletes every row matching filter and returns how many went.
// An empty filter is rejected; use RemoveAllRecords to clear a table.
func (engine *Engine) RemoveRecord(table string, filter core.Filter) (int64, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: refusing to remove from %s without a filter", core.ErrInvalidInput, table)
	}

	stmt, err := engine.builder.Delete(table, filter)
	if err != nil {
		return 0, err
	}

	n, err := engine.exec(stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to remove from %s: %w", table, err)
	}
	return n, nil
}

func (engine *Engine) RemoveAllRecords(table string) (int64, error) {
	stmt, err := engine.builder.Delete(table, nil)
	if err != nil {
		return 0, err
	}

	n, err := engine.exec(stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}
	return n, nil
}

// RemoveRecordByPseudoID deletes the row at 1-based position pseudoID when
// the table is ordered by primary key. An unresolved position removes
// nothing and is not an error.
func (engine *Engine) RemoveRecordByPseudoID(table string, pseudoID int64) (int64, error) {
	stmt, err := engine.builder.DeleteByPseudoID(table, engine.primaryKey(table), pseudoID)
	if err != nil {
		return 0, err
	}

	n, err := engine.exec(stmt)
	if err != nil {
		return 0, fmt.Errorf("failed to remove %s #%d: %w", table, pseudoID, err)
	}
	return n, nil
}

// GetRecord returns the first row matching filter.
func (engine *Engine) GetRecord(table string, filter core.Filter) (core.Record, error) {
	stmt, err := engine.builder.Select(table, filter)
	if err != nil {
		return core.Record{}, err
	}

	records, err := engine.query(table, stmt)
	if err != nil {
		return core.Record{}, fmt.Errorf("failed to get record from %s: %w", table, err)
	}
	if len(records) == 0 {
		return core.Record{}, fmt.Errorf("%w: no row in %s matches %v", core.ErrNotFound, table, filter.Keys())
	}
	return records[0], nil
}

func (engine *Engine) GetRecordByPseudoID(table string, pseudoID int64) (core.Record, error) {
	stmt, err := engine.builder.SelectByPseudoID(table, engine.primaryKey(table), pseudoID)
	if err != nil {
		return core.Record{}, err
	}

	records, err := engine.query(table, stmt)
	if err != nil {
		return core.Record{}, fmt.Errorf("failed to get %s #%d: %w", table, pseudoID, err)
	}
	if len(records) == 0 {
		return core.Record{}, fmt.Errorf("%w: %s #%d", core.ErrNotFound, table, pseudoID)
	}
	return records[0], nil
}

// GetAllRecords returns every row of table. Rows are ordered by primary key
// when it is known, so element k-1 is the row with pseudo-ID k. An empty
// table yields an empty, non-nil slice.
func (engine *Engine) GetAllRecords(table string) ([]core.Record, error) {
	orderBy, _ := engine.keys.get(table)

	stmt, err := engine.builder.SelectAll(table, orderBy)
	if err != nil {
		return nil, err
	}

	records, err := engine.query(table, stmt)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	return records, nil
}

func (engine *Engine) Count(table string) (int64, error) {
	stmt, err := engine.builder.Count(table)
	if err != nil {
		return 0, err
	}

	engine.logger.Debug("query", "query", stmt.Query, "args", 0)
	rows, err := engine.executor.Query(stmt.Query)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("%w: failed to read count of %s: %w", core.ErrStorage, table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: failed to count %s: %w", core.ErrStorage, table, err)
	}
	return count, nil
}

// MoveRecordByPseudoID copies the named columns of row pseudoID from src
// into a new row of dst, then removes it from src. Both steps commit
// together. The inserted record is returned.
func (engine *Engine) MoveRecordByPseudoID(src string, pseudoID int64, dst string, columns ...string) (core.Record, error) {
	var moved core.Record

	err := engine.Transaction(func(tx *Engine) error {
		record, err := tx.GetRecordByPseudoID(src, pseudoID)
		if err != nil {
			return err
		}

		moved = record.Project(dst, columns...)
		if err := tx.AddRecord(moved); err != nil {
			return err
		}

		n, err := tx.RemoveRecordByPseudoID(src, pseudoID)
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("%w: expected to remove one row from %s, removed %d", core.ErrStorage, src, n)
		}
		return nil
	})
	if err != nil {
		return core.Record{}, err
	}
	return moved, nil
}

// ReplaceAllRecords swaps the contents of table for records in one
// transaction. Each record is written to table whatever its Table field says.
func (engine *Engine) ReplaceAllRecords(table string, records []core.Record) error {
	return engine.Transaction(func(tx *Engine) error {
		if _, err := tx.RemoveAllRecords(table); err != nil {
			return err
		}
		for _, record := range records {
			record = record.Clone()
			record.Table = table
			if err := tx.AddRecord(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// Transaction runs fn against an engine bound to one database transaction.
// fn returning an error rolls everything back. Nested calls join the
// enclosing transaction.
func (engine *Engine) Transaction(fn func(tx *Engine) error) error {
	if engine.inTx {
		return fn(engine)
	}

	tx, err := engine.persistence.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	child := *engine
	child.executor = tx
	child.inTx = true

	if err := fn(&child); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			engine.logger.Warn("rollback failed", "err", rbErr)
		}
		return err
	}

	return tx.Commit()
}
