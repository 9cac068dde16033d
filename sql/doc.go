// Package sql builds the parameterized statements Tike sends to the
// relational backend.
//
// Builders are pure: they take a table name plus a column list, a Record or
// a Filter and return a Statement holding SQL text and the Fields to bind,
// in placeholder order.
//
// # Builder Usage
//
//	builder := sql.NewBuilder(sql.SQLite)
//	stmt, err := builder.Insert(record)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_, err = conn.Exec(stmt.Query, stmt.BindArgs()...)
//
// # Pseudo-IDs
//
// SelectByPseudoID and DeleteByPseudoID address a row by its 1-based rank
// when the table is ordered by primary key. The rank is computed by a
// ROW_NUMBER() sub-query inside the same statement, so it always reflects
// the table at execution time.
//
// # Fragments
//
// Column types, DEFAULT expressions and REFERENCES targets cannot be bound
// as parameters. They are run through the Lexer and rejected when they
// contain anything but literals, identifiers, parentheses and commas.
package sql
