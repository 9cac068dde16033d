package tike

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nickyhof/tike/config"
	"github.com/nickyhof/tike/core"
	"github.com/nickyhof/tike/db"
	"github.com/nickyhof/tike/op"
	"github.com/nickyhof/tike/ps"
)

// TestFunc is the signature for test functions that work with any persistence
type TestFunc func(t *testing.T, instance *Instance)

// runWithBothPersistence runs a test function with both memory and file persistence
func runWithBothPersistence(t *testing.T, testFunc TestFunc) {
	t.Run("Memory", func(t *testing.T) {
		persistence, err := ps.NewMemoryPersistence()
		if err != nil {
			t.Fatalf("Failed to initialize memory persistence: %v", err)
		}
		instance := Open(persistence)
		defer instance.Close()
		testFunc(t, instance)
	})

	t.Run("File", func(t *testing.T) {
		persistence, err := ps.NewFilePersistence(filepath.Join(t.TempDir(), "tike.db"))
		if err != nil {
			t.Fatalf("Failed to initialize file persistence: %v", err)
		}
		instance := Open(persistence)
		defer instance.Close()
		testFunc(t, instance)
	})
}

// TestTasksScenario walks the create, add, list and remove-by-position flow.
func TestTasksScenario(t *testing.T) {
	runWithBothPersistence(t, func(t *testing.T, instance *Instance) {
		engine := instance.Engine()

		tasks := op.Schema()[0]
		if err := engine.CreateTable(tasks.Name, tasks.Columns); err != nil {
			t.Fatalf("Failed to create tasks: %v", err)
		}

		err := engine.AddRecord(core.NewRecord("tasks", map[string]core.Field{"title": core.Text("Buy milk")}))
		if err != nil {
			t.Fatalf("Failed to add: %v", err)
		}

		first, err := engine.GetRecordByPseudoID("tasks", 1)
		if err != nil {
			t.Fatalf("Failed to get first task: %v", err)
		}
		if first.Fields["title"] != core.Text("Buy milk") {
			t.Errorf("Expected title Buy milk, got %#v", first.Fields["title"])
		}
		if first.Text("timeCreated") == "" {
			t.Error("Expected timeCreated to be set")
		}

		err = engine.AddRecord(core.NewRecord("tasks", map[string]core.Field{"title": core.Text("Walk dog")}))
		if err != nil {
			t.Fatalf("Failed to add: %v", err)
		}

		records, err := engine.GetAllRecords("tasks")
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(records) != 2 || records[0].Text("title") != "Buy milk" || records[1].Text("title") != "Walk dog" {
			t.Fatalf("Expected both tasks in insertion order, got %v", records)
		}

		n, err := engine.RemoveRecordByPseudoID("tasks", 1)
		if err != nil {
			t.Fatalf("Failed to remove: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 row removed, got %d", n)
		}

		records, err = engine.GetAllRecords("tasks")
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(records) != 1 || records[0].Text("title") != "Walk dog" {
			t.Errorf("Expected only Walk dog, got %v", records)
		}
	})
}

func TestTasksEndToEnd(t *testing.T) {
	runWithBothPersistence(t, func(t *testing.T, instance *Instance) {
		tasks, err := instance.Tasks()
		if err != nil {
			t.Fatalf("Failed to set up tasks: %v", err)
		}

		for _, title := range []string{"Buy milk", "Walk dog", "Write report"} {
			if _, err := tasks.Add(title, ""); err != nil {
				t.Fatalf("Failed to add %s: %v", title, err)
			}
		}
		if _, err := tasks.Complete(2); err != nil {
			t.Fatalf("Failed to complete: %v", err)
		}

		result, err := tasks.ListCompleted()
		if err != nil {
			t.Fatalf("Failed to list completed: %v", err)
		}

		var buf bytes.Buffer
		result.Display(&buf)
		if !strings.Contains(buf.String(), "| 1 | Walk dog ") {
			t.Errorf("Expected Walk dog as completed #1, got:\n%s", buf.String())
		}

		if _, err := tasks.Get(3); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Expected open tasks renumbered after complete, got %v", err)
		}
	})
}

func TestOpenConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database = filepath.Join(dir, "data", "tike.db")
	cfg.History.Dir = filepath.Join(dir, "history")
	cfg.History.Remote = filepath.Join(dir, "remote.git")
	cfg.S3 = &db.S3Config{Region: "eu-west-1"}

	instance, err := OpenConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer instance.Close()

	if instance.History == nil {
		t.Fatal("Expected history to be enabled")
	}
	remotes, err := instance.History.ListRemotes()
	if err != nil || len(remotes) != 1 || remotes[0].Name != "origin" {
		t.Errorf("Expected origin remote, got %v (%v)", remotes, err)
	}

	tasks, err := instance.Tasks()
	if err != nil {
		t.Fatalf("Failed to set up tasks: %v", err)
	}
	added, err := tasks.Add("Buy milk", "")
	if err != nil {
		t.Fatalf("Failed to add: %v", err)
	}
	if added.Transaction.Id == "" {
		t.Error("Expected add to be recorded in history")
	}
	if len(instance.History.LatestTransaction().Author) == 0 {
		t.Error("Expected snapshot author from config")
	}
}

func TestOpenConfigDuckDB(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = string(ps.BackendDuckDB)
	cfg.Database = filepath.Join(t.TempDir(), "tike.duckdb")

	instance, err := OpenConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer instance.Close()

	if instance.Persistence.Backend() != ps.BackendDuckDB {
		t.Errorf("Expected duckdb backend, got %s", instance.Persistence.Backend())
	}
	if instance.History != nil {
		t.Error("Expected history disabled")
	}

	tasks, err := instance.Tasks()
	if err != nil {
		t.Fatalf("Failed to set up tasks: %v", err)
	}
	if _, err := tasks.Add("Buy milk", "2 litres"); err != nil {
		t.Fatalf("Failed to add: %v", err)
	}
	if _, err := tasks.Complete(1); err != nil {
		t.Fatalf("Failed to complete: %v", err)
	}
	if count, _ := instance.Engine().Count(op.CompletedTasksTable); count != 1 {
		t.Errorf("Expected 1 completed task, got %d", count)
	}
}
