package db

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nickyhof/tike/core"
	"github.com/nickyhof/tike/ps"
)

type ResultType int

const (
	QueryResultType ResultType = iota
	CommitResultType
)

type Result interface {
	Type() ResultType
	Display(w io.Writer)
}

// QueryResult is a rendered read: one display row per record.
type QueryResult struct {
	Transaction      ps.Transaction
	Columns          []string
	Data             [][]string
	RecordsRead      int
	ExecutionTimeSec float64
}

// CommitResult summarizes a write. Transaction is set when the write was
// recorded in snapshot history.
type CommitResult struct {
	Transaction      ps.Transaction
	TablesCreated    int
	RecordsWritten   int
	RecordsDeleted   int
	RecordsMoved     int
	ExecutionTimeSec float64
}

func (result QueryResult) Type() ResultType {
	return QueryResultType
}

func (result CommitResult) Type() ResultType {
	return CommitResultType
}

// NewQueryResult tabulates records under headers. columns picks, in order,
// the record fields shown; a missing field renders empty. When numbered is
// set a leading "#" column carries each record's 1-based position.
func NewQueryResult(records []core.Record, columns, headers []string, numbered bool, started time.Time) QueryResult {
	result := QueryResult{
		Columns:          headers,
		Data:             make([][]string, 0, len(records)),
		RecordsRead:      len(records),
		ExecutionTimeSec: time.Since(started).Seconds(),
	}
	if numbered {
		result.Columns = append([]string{"#"}, headers...)
	}

	for i, record := range records {
		row := make([]string, 0, len(result.Columns))
		if numbered {
			row = append(row, fmt.Sprint(i+1))
		}
		for _, column := range columns {
			row = append(row, record.Text(column))
		}
		result.Data = append(result.Data, row)
	}
	return result
}

// formatDuration formats a duration in human-readable form
func formatDuration(secs float64) string {
	switch {
	case secs < 0.001:
		return "<1ms"
	case secs < 1:
		return fmt.Sprintf("%dms", int(secs*1000))
	case secs < 10:
		return fmt.Sprintf("%.1fs", secs)
	case secs < 60:
		return fmt.Sprintf("%ds", int(secs))
	}

	mins := int(secs / 60)
	remainSecs := int(secs) % 60
	if remainSecs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, remainSecs)
}

func (result QueryResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result CommitResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result QueryResult) Display(w io.Writer) {
	if len(result.Data) > 0 {
		data := NewTable(w)
		data.Header(result.Columns)
		data.Bulk(result.Data)
		data.Render()
	}

	rows := "rows"
	if result.RecordsRead == 1 {
		rows = "row"
	}
	fmt.Fprintf(w, "%d %s (%s)\n", result.RecordsRead, rows, result.ExecutionTime())
}

func (result CommitResult) Display(w io.Writer) {
	var parts []string

	if result.TablesCreated > 0 {
		parts = append(parts, fmt.Sprintf("%d table(s) created", result.TablesCreated))
	}
	if result.RecordsWritten > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) written", result.RecordsWritten))
	}
	if result.RecordsMoved > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) moved", result.RecordsMoved))
	}
	if result.RecordsDeleted > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) deleted", result.RecordsDeleted))
	}

	summary := "OK"
	if len(parts) > 0 {
		summary = strings.Join(parts, ", ")
	}
	if result.Transaction.Id != "" {
		summary += " [" + result.Transaction.ShortId() + "]"
	}
	fmt.Fprintf(w, "%s (%s)\n", summary, result.ExecutionTime())
}
