package core

import (
	"maps"
	"slices"
)

// Filter is a Record-shaped set of column/value pairs. Every pair must
// match for a row to be selected.
type Filter map[string]Field

// Keys returns the filter's column names in sorted order.
func (filter Filter) Keys() []string {
	return slices.Sorted(maps.Keys(filter))
}

// Record is one row: a table name plus its column values.
type Record struct {
	Table  string
	Fields map[string]Field
}

func NewRecord(table string, fields map[string]Field) Record {
	if fields == nil {
		fields = make(map[string]Field)
	}
	return Record{Table: table, Fields: fields}
}

// Keys returns the record's column names in sorted order. Query text and
// argument binding both walk this slice so placeholders and values line up.
func (record Record) Keys() []string {
	return slices.Sorted(maps.Keys(record.Fields))
}

func (record Record) Len() int {
	return len(record.Fields)
}

func (record Record) Get(name string) (Field, bool) {
	f, ok := record.Fields[name]
	return f, ok
}

// Set stores value under name, allocating the field map on first use.
func (record *Record) Set(name string, value Field) {
	if record.Fields == nil {
		record.Fields = make(map[string]Field)
	}
	record.Fields[name] = value
}

// Text returns the display form of a column, or "" when it is absent.
func (record Record) Text(name string) string {
	f, ok := record.Fields[name]
	if !ok {
		return ""
	}
	return f.String()
}

// Filter returns the record's fields as an equality filter.
func (record Record) Filter() Filter {
	return Filter(maps.Clone(record.Fields))
}

// Project returns a record for table holding only the named columns that
// are present in this record.
func (record Record) Project(table string, columns ...string) Record {
	projected := NewRecord(table, nil)
	for _, name := range columns {
		if f, ok := record.Fields[name]; ok {
			projected.Fields[name] = f
		}
	}
	return projected
}

func (record Record) Clone() Record {
	return Record{Table: record.Table, Fields: maps.Clone(record.Fields)}
}

// Equal reports whether both records name the same table and hold the same
// kinds and values.
func (record Record) Equal(other Record) bool {
	if record.Table != other.Table {
		return false
	}
	return maps.Equal(record.Fields, other.Fields)
}
