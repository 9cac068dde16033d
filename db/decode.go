package db

import (
	"fmt"
	"math"
	"time"

	"github.com/nickyhof/tike/core"
	"github.com/nickyhof/tike/ps"
)

// TimeLayout is the text form of DATETIME values surfaced by the drivers.
const TimeLayout = "2006-01-02 15:04:05"

// decodeRows reads every remaining row into a Record of table. The caller
// closes rows.
func decodeRows(table string, rows ps.Rows, policy NullPolicy) ([]core.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read columns: %w", core.ErrStorage, err)
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	records := []core.Record{}
	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %w", core.ErrStorage, err)
		}

		record := core.NewRecord(table, make(map[string]core.Field, len(columns)))
		for i, column := range columns {
			f, ok, err := decodeValue(values[i], policy)
			if err != nil {
				return nil, fmt.Errorf("column %s of %s: %w", column, table, err)
			}
			if ok {
				record.Fields[column] = f
			}
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read rows: %w", core.ErrStorage, err)
	}
	return records, nil
}

// decodeValue maps a driver value onto the Field union. ok is false when
// the value is NULL and policy drops it.
func decodeValue(value any, policy NullPolicy) (f core.Field, ok bool, err error) {
	switch v := value.(type) {
	case nil:
		if policy == NullAsAbsent {
			return nil, false, nil
		}
		return core.Text(""), true, nil
	case int64:
		return core.Integer(v), true, nil
	case int:
		return core.Integer(v), true, nil
	case int8:
		return core.Integer(v), true, nil
	case int16:
		return core.Integer(v), true, nil
	case int32:
		return core.Integer(v), true, nil
	case uint8:
		return core.Integer(v), true, nil
	case uint16:
		return core.Integer(v), true, nil
	case uint32:
		return core.Integer(v), true, nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, false, fmt.Errorf("%w: %d overflows Integer", core.ErrUnsupportedType, v)
		}
		return core.Integer(v), true, nil
	case float32:
		return core.Real(v), true, nil
	case float64:
		return core.Real(v), true, nil
	case string:
		return core.Text(v), true, nil
	case time.Time:
		return core.Text(v.UTC().Format(TimeLayout)), true, nil
	default:
		return nil, false, fmt.Errorf("%w: %T", core.ErrUnsupportedType, value)
	}
}
