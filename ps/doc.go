// Package ps provides the persistence layer for Tike.
//
// A Persistence owns the single database/sql connection of the process.
// SQLite (pure Go, github.com/glebarez/go-sqlite) is the default backend;
// DuckDB is available for the same schema.
//
// # Memory Persistence
//
// For testing or ephemeral databases:
//
//	persistence, err := ps.NewMemoryPersistence()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer persistence.Close()
//
// # File Persistence
//
//	persistence, err := ps.Open(ps.BackendSQLite, "/path/to/tike.db")
//
// # Snapshot History
//
// A History is a git repository (go-git) that records table snapshots as
// commits. Every commit holds one file per table:
//
//	history, _ := ps.NewFileHistory("/path/to/history")
//	txn, _ := history.Snapshot(files, identity, "Adding task")
//	_, files, _ = history.Files(txn.Id)
package ps
