// Package db provides the record engine for Tike.
//
// The Engine type is the main entry point. Callers describe rows as
// core.Record values and filters as core.Filter maps; the engine builds
// parameterized SQL, executes it and decodes rows back into Records.
//
// # Engine Usage
//
//	persistence, _ := ps.NewMemoryPersistence()
//	engine := db.NewEngine(persistence, db.WithLogger(logger))
//
//	engine.CreateTable("people", []core.Column{
//	    {Name: "id", Type: core.IntegerType, PrimaryKey: true, AutoIncrement: true},
//	    {Name: "name", Type: core.TextType},
//	})
//	engine.AddRecord(core.NewRecord("people", map[string]core.Field{"name": core.Text("Alice")}))
//	first, err := engine.GetRecordByPseudoID("people", 1)
//
// # Pseudo-IDs
//
// A pseudo-ID is the 1-based position of a row when its table is ordered by
// primary key. It is recomputed on every call, so removing a row shifts the
// pseudo-IDs of every later row down by one. Pseudo-IDs are only stable
// while a single writer owns the database.
//
// # Result Types
//
// There are two result types used by command surfaces:
//   - QueryResult: rows rendered for display
//   - CommitResult: counts of affected tables and records
package db
