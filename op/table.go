package op

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nickyhof/tike/core"
	"github.com/nickyhof/tike/db"
	"github.com/nickyhof/tike/ps"
)

// Columns shown for a task, in display order, and their headers.
var (
	taskColumns = []string{"title", "description", "timeCreated"}
	taskHeaders = []string{"Task Title", "Task Description", "Time Created (UTC)"}
)

// TaskOp runs the task flows against an engine. When a history is attached
// every successful mutation is recorded as a snapshot of both task tables.
type TaskOp struct {
	Engine   *db.Engine
	history  *ps.History
	identity core.Identity
}

type TaskOption func(*TaskOp)

// WithHistory records snapshots in history, authored by identity.
func WithHistory(history *ps.History, identity core.Identity) TaskOption {
	return func(op *TaskOp) {
		op.history = history
		op.identity = identity
	}
}

// NewTaskOp creates the task tables if needed and returns a TaskOp over them.
func NewTaskOp(engine *db.Engine, opts ...TaskOption) (*TaskOp, error) {
	if err := Setup(engine); err != nil {
		return nil, err
	}

	op := &TaskOp{Engine: engine}
	for _, opt := range opts {
		opt(op)
	}
	return op, nil
}

// Add inserts a task. An empty description is stored as NULL.
func (op *TaskOp) Add(title, description string) (db.CommitResult, error) {
	started := time.Now()

	if strings.TrimSpace(title) == "" {
		return db.CommitResult{}, fmt.Errorf("%w: task title is required", core.ErrInvalidInput)
	}

	record := core.NewRecord(TasksTable, map[string]core.Field{
		"title": core.Text(title),
	})
	if description != "" {
		record.Set("description", core.Text(description))
	}

	if err := op.Engine.AddRecord(record); err != nil {
		return db.CommitResult{}, err
	}

	txn, err := op.snapshot("Add task: " + title)
	if err != nil {
		return db.CommitResult{}, err
	}

	return db.CommitResult{
		Transaction:      txn,
		RecordsWritten:   1,
		ExecutionTimeSec: time.Since(started).Seconds(),
	}, nil
}

// Get returns the open task at pseudo-ID k.
func (op *TaskOp) Get(k int64) (db.QueryResult, error) {
	return op.get(TasksTable, k)
}

// GetCompleted returns the completed task at pseudo-ID k.
func (op *TaskOp) GetCompleted(k int64) (db.QueryResult, error) {
	return op.get(CompletedTasksTable, k)
}

func (op *TaskOp) get(table string, k int64) (db.QueryResult, error) {
	started := time.Now()

	record, err := op.Engine.GetRecordByPseudoID(table, k)
	if err != nil {
		return db.QueryResult{}, err
	}

	result := db.NewQueryResult([]core.Record{record}, taskColumns, taskHeaders, true, started)
	result.Data[0][0] = strconv.FormatInt(k, 10)
	return result, nil
}

// List returns every open task numbered by pseudo-ID.
func (op *TaskOp) List() (db.QueryResult, error) {
	return op.list(TasksTable)
}

// ListCompleted returns every completed task numbered by pseudo-ID.
func (op *TaskOp) ListCompleted() (db.QueryResult, error) {
	return op.list(CompletedTasksTable)
}

func (op *TaskOp) list(table string) (db.QueryResult, error) {
	started := time.Now()

	records, err := op.Engine.GetAllRecords(table)
	if err != nil {
		return db.QueryResult{}, err
	}
	return db.NewQueryResult(records, taskColumns, taskHeaders, true, started), nil
}

// Remove deletes the open task at pseudo-ID k. Later tasks move up by one.
func (op *TaskOp) Remove(k int64) (db.CommitResult, error) {
	started := time.Now()

	n, err := op.Engine.RemoveRecordByPseudoID(TasksTable, k)
	if err != nil {
		return db.CommitResult{}, err
	}
	if n == 0 {
		return db.CommitResult{}, fmt.Errorf("%w: task %d", core.ErrNotFound, k)
	}

	txn, err := op.snapshot(fmt.Sprintf("Remove task %d", k))
	if err != nil {
		return db.CommitResult{}, err
	}

	return db.CommitResult{
		Transaction:      txn,
		RecordsDeleted:   int(n),
		ExecutionTimeSec: time.Since(started).Seconds(),
	}, nil
}

// Complete moves the open task at pseudo-ID k into completedTasks, keeping
// its title, description and creation time. Both writes commit together.
func (op *TaskOp) Complete(k int64) (db.CommitResult, error) {
	started := time.Now()

	moved, err := op.Engine.MoveRecordByPseudoID(TasksTable, k, CompletedTasksTable, taskColumns...)
	if err != nil {
		return db.CommitResult{}, err
	}

	txn, err := op.snapshot("Complete task: " + moved.Text("title"))
	if err != nil {
		return db.CommitResult{}, err
	}

	return db.CommitResult{
		Transaction:      txn,
		RecordsMoved:     1,
		ExecutionTimeSec: time.Since(started).Seconds(),
	}, nil
}
