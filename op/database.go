package op

import (
	"bytes"
	"fmt"
	"time"

	"github.com/nickyhof/tike/core"
	"github.com/nickyhof/tike/db"
	"github.com/nickyhof/tike/ps"
)

const (
	TasksTable          = "tasks"
	CompletedTasksTable = "completedTasks"
)

// Schema returns the definitions of the open and completed task tables.
func Schema() []core.Table {
	return []core.Table{
		{
			Name: TasksTable,
			Columns: []core.Column{
				{Name: "id", Type: core.IntegerType, PrimaryKey: true, AutoIncrement: true},
				{Name: "title", Type: core.TextType},
				{Name: "description", Type: core.TextType},
				{Name: "timeCreated", Type: core.DatetimeType, Default: core.Ptr("CURRENT_TIMESTAMP")},
			},
		},
		{
			Name: CompletedTasksTable,
			Columns: []core.Column{
				{Name: "id", Type: core.IntegerType, PrimaryKey: true},
				{Name: "title", Type: core.TextType},
				{Name: "description", Type: core.TextType},
				{Name: "timeCreated", Type: core.DatetimeType},
				{Name: "timeCompleted", Type: core.DatetimeType, Default: core.Ptr("CURRENT_TIMESTAMP")},
			},
		},
	}
}

// Setup creates the task tables unless they already exist.
func Setup(engine *db.Engine) error {
	for _, table := range Schema() {
		if err := engine.CreateTable(table.Name, table.Columns); err != nil {
			return fmt.Errorf("failed to set up %s: %w", table.Name, err)
		}
	}
	return nil
}

func snapshotFile(table string) string {
	return table + ".jsonl"
}

// snapshot records both task tables in history. Without history it returns
// an empty transaction.
func (op *TaskOp) snapshot(message string) (ps.Transaction, error) {
	if op.history == nil {
		return ps.Transaction{}, nil
	}

	files := make(map[string][]byte)
	for _, table := range Schema() {
		data, err := op.Engine.DumpTable(table.Name)
		if err != nil {
			return ps.Transaction{}, err
		}
		files[snapshotFile(table.Name)] = data
	}

	txn, err := op.history.Snapshot(files, op.identity, message)
	if err != nil {
		return ps.Transaction{}, fmt.Errorf("failed to record snapshot: %w", err)
	}
	return txn, nil
}

func (op *TaskOp) requireHistory() error {
	if op.history == nil {
		return fmt.Errorf("%w: history is not enabled", core.ErrInvalidInput)
	}
	return nil
}

// Log lists the recorded snapshots, newest first.
func (op *TaskOp) Log() (db.QueryResult, error) {
	return op.LogSince(time.Time{})
}

// LogSince lists the snapshots recorded at or after since, newest first.
func (op *TaskOp) LogSince(since time.Time) (db.QueryResult, error) {
	started := time.Now()

	if err := op.requireHistory(); err != nil {
		return db.QueryResult{}, err
	}

	transactions, err := op.history.TransactionsSince(since)
	if err != nil {
		return db.QueryResult{}, err
	}

	result := db.QueryResult{
		Columns:     []string{"Transaction", "When (UTC)", "Author", "Message"},
		Data:        make([][]string, 0, len(transactions)),
		RecordsRead: len(transactions),
	}
	for _, txn := range transactions {
		result.Data = append(result.Data, []string{
			txn.ShortId(),
			txn.When.UTC().Format(db.TimeLayout),
			txn.Author,
			txn.Message,
		})
	}
	result.ExecutionTimeSec = time.Since(started).Seconds()
	return result, nil
}

// Restore replaces both task tables with their contents at snapshot id, in
// one transaction, and records the result as a new snapshot. Rows receive
// fresh primary keys in their snapshot order, so pseudo-IDs are preserved.
func (op *TaskOp) Restore(id string) (db.CommitResult, error) {
	started := time.Now()

	if err := op.requireHistory(); err != nil {
		return db.CommitResult{}, err
	}

	asof, files, err := op.history.Files(id)
	if err != nil {
		return db.CommitResult{}, err
	}

	written := 0
	err = op.Engine.Transaction(func(tx *db.Engine) error {
		for _, table := range Schema() {
			records, err := db.ReadRecords(table.Name, bytes.NewReader(files[snapshotFile(table.Name)]))
			if err != nil {
				return err
			}

			pk, _ := table.PrimaryKey()
			for i := range records {
				delete(records[i].Fields, pk)
			}

			if err := tx.ReplaceAllRecords(table.Name, records); err != nil {
				return err
			}
			written += len(records)
		}
		return nil
	})
	if err != nil {
		return db.CommitResult{}, fmt.Errorf("failed to restore %s: %w", asof.ShortId(), err)
	}

	txn, err := op.snapshot("Restore " + asof.ShortId())
	if err != nil {
		return db.CommitResult{}, err
	}

	return db.CommitResult{
		Transaction:      txn,
		RecordsWritten:   written,
		ExecutionTimeSec: time.Since(started).Seconds(),
	}, nil
}

// Import appends the JSON Lines at url to table and records the result as a
// snapshot.
func (op *TaskOp) Import(table, url string) (db.CommitResult, error) {
	started := time.Now()

	n, err := op.Engine.ImportFrom(table, url)
	if err != nil {
		return db.CommitResult{}, err
	}

	txn, err := op.snapshot(fmt.Sprintf("Import %s from %s", table, url))
	if err != nil {
		return db.CommitResult{}, err
	}

	return db.CommitResult{
		Transaction:      txn,
		RecordsWritten:   n,
		ExecutionTimeSec: time.Since(started).Seconds(),
	}, nil
}

// Tag names the latest snapshot.
func (op *TaskOp) Tag(name string) error {
	if err := op.requireHistory(); err != nil {
		return err
	}
	return op.history.Tag(name, nil)
}
