// Package tike provides a small record persistence engine and the task
// tracker built on it.
//
// Records are maps from column name to a typed Field (Integer, Real or Text)
// stored in an embedded SQL database. Every statement is built with bound
// parameters. Rows are addressed either by an equality filter or by a
// pseudo-ID: their 1-based position in primary key order.
//
// # Quick Start
//
// Create an in-memory database:
//
//	persistence, _ := ps.NewMemoryPersistence()
//	instance := tike.Open(persistence)
//	defer instance.Close()
//
//	engine := instance.Engine()
//	engine.CreateTable("tasks", []core.Column{
//	    {Name: "id", Type: core.IntegerType, PrimaryKey: true, AutoIncrement: true},
//	    {Name: "title", Type: core.TextType},
//	})
//	engine.AddRecord(core.NewRecord("tasks", map[string]core.Field{"title": core.Text("Buy milk")}))
//
//	first, _ := engine.GetRecordByPseudoID("tasks", 1)
//
// # Tasks
//
// The task tracker keeps open tasks in tasks and finished ones in
// completedTasks:
//
//	tasks, _ := instance.Tasks()
//	tasks.Add("Buy milk", "2 litres")
//	tasks.Complete(1)
//	result, _ := tasks.ListCompleted()
//	result.Display(os.Stdout)
//
// # Backends
//
// SQLite is the default backend. DuckDB can hold the same schema:
//
//	persistence, _ := ps.Open(ps.BackendDuckDB, "/path/to/tasks.duckdb")
package tike
