package sql

import (
	"fmt"
	"strings"

	"github.com/nickyhof/tike/core"
)

// Dialect selects backend-specific statement shapes.
type Dialect int

const (
	SQLite Dialect = iota
	DuckDB
)

func (dialect Dialect) String() string {
	switch dialect {
	case SQLite:
		return "sqlite"
	case DuckDB:
		return "duckdb"
	default:
		return fmt.Sprintf("Dialect(%d)", int(dialect))
	}
}

// ParseDialect maps a backend name to its Dialect.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	case "duckdb":
		return DuckDB, nil
	default:
		return 0, fmt.Errorf("%w: unknown dialect %q", core.ErrInvalidInput, name)
	}
}

// Statement is SQL text with positional placeholders plus the Fields to
// bind, in placeholder order.
type Statement struct {
	Query string
	Args  []core.Field
}

// BindArgs converts the statement's Fields into driver values.
func (stmt Statement) BindArgs() []any {
	args := make([]any, len(stmt.Args))
	for i, f := range stmt.Args {
		switch v := f.(type) {
		case core.Integer:
			args[i] = int64(v)
		case core.Real:
			args[i] = float64(v)
		case core.Text:
			args[i] = string(v)
		}
	}
	return args
}

func (stmt Statement) String() string {
	return fmt.Sprintf("Statement{Query: %s, Args: %d}", stmt.Query, len(stmt.Args))
}

type Builder struct {
	dialect Dialect
}

func NewBuilder(dialect Dialect) Builder {
	return Builder{dialect: dialect}
}

func (builder Builder) Dialect() Dialect {
	return builder.dialect
}

// CreateTable builds the statements declaring table. Under SQLite this is a
// single CREATE TABLE IF NOT EXISTS. DuckDB needs a sequence created first
// for each auto-increment or INTEGER PRIMARY KEY column.
func (builder Builder) CreateTable(table string, columns []core.Column) ([]Statement, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: cannot create table %s without columns", core.ErrInvalidInput, table)
	}

	var prelude []Statement
	definitions := make([]string, 0, len(columns))

	for _, column := range columns {
		if err := ValidateIdentifier(column.Name); err != nil {
			return nil, err
		}
		if err := validateFragment("column type", column.Type, typeTokens); err != nil {
			return nil, err
		}

		// Build a column definition based on Column attributes
		definition := column.Name + " " + builder.columnType(column.Type)

		if column.PrimaryKey {
			definition += " PRIMARY KEY"
		}

		if column.AutoIncrement || builder.implicitRowID(column) {
			switch builder.dialect {
			case DuckDB:
				if column.Default != nil {
					return nil, fmt.Errorf("%w: column %s cannot combine AUTOINCREMENT and DEFAULT", core.ErrInvalidInput, column.Name)
				}
				sequence := sequenceName(table, column.Name)
				prelude = append(prelude, Statement{Query: fmt.Sprintf("CREATE SEQUENCE IF NOT EXISTS %s", sequence)})
				definition += fmt.Sprintf(" DEFAULT nextval('%s')", sequence)
			default:
				definition += " AUTOINCREMENT"
			}
		}

		if column.NotNull {
			definition += " NOT NULL"
		}

		if column.Unique {
			definition += " UNIQUE"
		}

		if column.Default != nil {
			if err := validateFragment("default value", *column.Default, defaultTokens); err != nil {
				return nil, err
			}
			definition += " DEFAULT " + *column.Default
		}

		if column.References != nil {
			if err := validateFragment("foreign key", *column.References, referenceTokens); err != nil {
				return nil, err
			}
			definition += " REFERENCES " + *column.References
		}

		definitions = append(definitions, definition)
	}

	create := Statement{
		Query: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(definitions, ", ")),
	}
	return append(prelude, create), nil
}

// columnType maps declared types onto the backend. DuckDB's INTEGER and
// REAL are 32-bit, narrower than the Integer and Real fields they hold.
func (builder Builder) columnType(declared string) string {
	if builder.dialect != DuckDB {
		return declared
	}
	switch strings.ToUpper(declared) {
	case core.IntegerType:
		return "BIGINT"
	case core.RealType:
		return "DOUBLE"
	default:
		return declared
	}
}

// implicitRowID reports whether column is a DuckDB column standing in for
// SQLite's INTEGER PRIMARY KEY, which is assigned on insert when omitted.
func (builder Builder) implicitRowID(column core.Column) bool {
	return builder.dialect == DuckDB && column.PrimaryKey && column.Default == nil &&
		strings.EqualFold(column.Type, core.IntegerType)
}

func sequenceName(table, column string) string {
	return table + "_" + column + "_seq"
}

// Insert builds an INSERT for record. Column list and arguments come from
// the same Record.Keys traversal.
func (builder Builder) Insert(record core.Record) (Statement, error) {
	if err := ValidateIdentifier(record.Table); err != nil {
		return Statement{}, err
	}
	if record.Len() == 0 {
		return Statement{}, fmt.Errorf("%w: record for %s has no fields", core.ErrInvalidInput, record.Table)
	}

	keys := record.Keys()
	placeholders := make([]string, len(keys))
	args := make([]core.Field, len(keys))
	for i, key := range keys {
		if err := ValidateIdentifier(key); err != nil {
			return Statement{}, err
		}
		if record.Fields[key] == nil {
			return Statement{}, fmt.Errorf("%w: column %s has no value", core.ErrUnsupportedType, key)
		}
		placeholders[i] = "?"
		args[i] = record.Fields[key]
	}

	return Statement{
		Query: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", record.Table, strings.Join(keys, ", "), strings.Join(placeholders, ", ")),
		Args:  args,
	}, nil
}

// Select builds SELECT * filtered by equality on every filter key. An empty
// filter selects every row.
func (builder Builder) Select(table string, filter core.Filter) (Statement, error) {
	if err := ValidateIdentifier(table); err != nil {
		return Statement{}, err
	}
	where, args, err := whereClause(filter)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Query: "SELECT * FROM " + table + where, Args: args}, nil
}

// Delete builds DELETE filtered by equality on every filter key. An empty
// filter deletes every row; callers wanting a guard must check first.
func (builder Builder) Delete(table string, filter core.Filter) (Statement, error) {
	if err := ValidateIdentifier(table); err != nil {
		return Statement{}, err
	}
	where, args, err := whereClause(filter)
	if err != nil {
		return Statement{}, err
	}
	return Statement{Query: "DELETE FROM " + table + where, Args: args}, nil
}

// SelectAll builds SELECT * over table, ordered by orderBy when it is set.
func (builder Builder) SelectAll(table string, orderBy string) (Statement, error) {
	if err := ValidateIdentifier(table); err != nil {
		return Statement{}, err
	}
	query := "SELECT * FROM " + table
	if orderBy != "" {
		if err := ValidateIdentifier(orderBy); err != nil {
			return Statement{}, err
		}
		query += " ORDER BY " + orderBy
	}
	return Statement{Query: query}, nil
}

func (builder Builder) Count(table string) (Statement, error) {
	if err := ValidateIdentifier(table); err != nil {
		return Statement{}, err
	}
	return Statement{Query: "SELECT COUNT(*) FROM " + table}, nil
}

// SelectByPseudoID builds a SELECT for the row ranked pseudoID when table is
// ordered by key ascending.
func (builder Builder) SelectByPseudoID(table, key string, pseudoID int64) (Statement, error) {
	resolve, err := pseudoIDQuery(table, key)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Query: fmt.Sprintf("SELECT * FROM %s WHERE %s = (%s)", table, key, resolve),
		Args:  []core.Field{core.Integer(pseudoID)},
	}, nil
}

// DeleteByPseudoID builds a DELETE for the row ranked pseudoID.
func (builder Builder) DeleteByPseudoID(table, key string, pseudoID int64) (Statement, error) {
	resolve, err := pseudoIDQuery(table, key)
	if err != nil {
		return Statement{}, err
	}
	return Statement{
		Query: fmt.Sprintf("DELETE FROM %s WHERE %s = (%s)", table, key, resolve),
		Args:  []core.Field{core.Integer(pseudoID)},
	}, nil
}

// pseudoIDQuery returns a scalar sub-query yielding the key of the row
// whose rank by key equals the single bound parameter. Ranks outside
// 1..COUNT(*) yield no row, so the outer comparison matches nothing.
func pseudoIDQuery(table, key string) (string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return "", err
	}
	if err := ValidateIdentifier(key); err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"SELECT %[2]s FROM (SELECT %[2]s, ROW_NUMBER() OVER (ORDER BY %[2]s) AS pseudo_id FROM %[1]s) AS ranked WHERE pseudo_id = ?",
		table, key,
	), nil
}

func whereClause(filter core.Filter) (string, []core.Field, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	keys := filter.Keys()
	conditions := make([]string, len(keys))
	args := make([]core.Field, len(keys))
	for i, key := range keys {
		if err := ValidateIdentifier(key); err != nil {
			return "", nil, err
		}
		if filter[key] == nil {
			return "", nil, fmt.Errorf("%w: filter column %s has no value", core.ErrUnsupportedType, key)
		}
		conditions[i] = key + " = ?"
		args[i] = filter[key]
	}
	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}
