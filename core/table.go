package core

// Declared column types understood by both backends.
const (
	IntegerType  = "INTEGER"
	RealType     = "REAL"
	TextType     = "TEXT"
	DatetimeType = "DATETIME"
)

// DefaultPrimaryKey is the column pseudo-IDs rank by when a table's primary
// key has not been declared to the engine.
const DefaultPrimaryKey = "id"

// Column describes one column of a CREATE TABLE statement. It has no
// lifecycle beyond that statement.
type Column struct {
	Name          string  `json:"name" yaml:"name"`
	Type          string  `json:"type" yaml:"type"`
	PrimaryKey    bool    `json:"primaryKey,omitempty" yaml:"primary_key,omitempty"`
	AutoIncrement bool    `json:"autoIncrement,omitempty" yaml:"auto_increment,omitempty"`
	NotNull       bool    `json:"notNull,omitempty" yaml:"not_null,omitempty"`
	Unique        bool    `json:"unique,omitempty" yaml:"unique,omitempty"`
	// Default is a raw SQL expression such as CURRENT_TIMESTAMP or 'n/a'.
	Default       *string `json:"default,omitempty" yaml:"default,omitempty"`
	// References is a foreign key target such as tasks(id).
	References    *string `json:"references,omitempty" yaml:"references,omitempty"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// PrimaryKey returns the name of the first primary key column.
func (table Table) PrimaryKey() (string, bool) {
	for _, col := range table.Columns {
		if col.PrimaryKey {
			return col.Name, true
		}
	}
	return "", false
}

// Identity identifies the author of history snapshots.
type Identity struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Ptr returns a pointer to v. Handy for Column.Default and Column.References.
func Ptr[T any](v T) *T {
	return &v
}
