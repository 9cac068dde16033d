// Package op provides the task operations of Tike.
//
// The op package sits between the command line (cmd/tike) and the record
// engine (db/). It owns the two task tables and the flows over them:
//
//	engine := db.NewEngine(persistence)
//	tasks, err := op.NewTaskOp(engine)
//
//	tasks.Add("Buy milk", "2 litres")     // new row in tasks
//	tasks.List()                          // every open task, numbered
//	tasks.Get(1)                          // the task numbered 1
//	tasks.Complete(1)                     // move it to completedTasks
//	tasks.ListCompleted()
//	tasks.Remove(2)                       // later tasks are renumbered
//
// Task numbers are pseudo-IDs: positions in primary key order, recomputed on
// every call.
//
// # History
//
// With WithHistory, every mutation stores both tables as JSON Lines in a new
// snapshot:
//
//	history, _ := ps.NewFileHistory(dir)
//	tasks, _ := op.NewTaskOp(engine, op.WithHistory(history, identity))
//	tasks.Log()                           // snapshots, newest first
//	tasks.Restore("3f2a9c1")              // roll both tables back
package op
