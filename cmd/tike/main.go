// Package main is the tike command-line task tracker.
//
// Tasks live in a local SQLite (or DuckDB) database, ~/.tike.db by default.
// Settings come from the config file, TIKE_* environment variables and
// flags, in increasing order of precedence.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/nickyhof/tike"
	"github.com/nickyhof/tike/config"
	"github.com/nickyhof/tike/core"
	"github.com/nickyhof/tike/db"
	"github.com/nickyhof/tike/op"
)

const (
	versionNumber = "1.0.0"
	versionName   = "Ymir"
)

// errReported marks failures already explained on stdout.
var errReported = errors.New("reported")

func main() {
	if err := mainImpl(os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newParser() *ArgParser {
	parser := NewArgParser("Tike", "TimeKeeper")
	parser.AddFlag("add", "a", "Add a new task")
	parser.AddOption("complete", "c", "Mark a task as completed by id")
	parser.AddOption("description", "d", "Description of the task")
	parser.AddOption("list", "l", "List a task by id")
	parser.AddFlag("list-all", "L", "List all tasks")
	parser.AddFlag("list-all-completed", "", "List all completed tasks")
	parser.AddOption("list-completed", "", "List a completed task by id")
	parser.AddOption("remove", "r", "Remove a task by id")
	parser.AddOption("title", "t", "Title of the task")
	parser.AddFlag("version", "v", "Prints the version number")

	parser.AddOption("export", "", "Export a table as JSON Lines: <table>=<path|file://|s3://>")
	parser.AddOption("import", "", "Import JSON Lines into a table: <table>=<path|file://|http(s)://|s3://>")
	parser.AddFlag("history", "", "List recorded snapshots")
	parser.AddOption("since", "", "With --history, only snapshots at or after this time (UTC, RFC 3339 or YYYY-MM-DD[ HH:MM:SS])")
	parser.AddOption("restore", "", "Restore both task tables from a snapshot id or tag")
	parser.AddOption("tag", "", "Name the latest snapshot")
	parser.AddFlag("push", "", "Push snapshot history to the configured remote")

	parser.AddOption("config", "", "Config file (default $XDG_CONFIG_HOME/tike/config.yaml)")
	parser.AddOption("db", "", "Database path (default ~/.tike.db)")
	parser.AddOption("backend", "", "Database backend: sqlite or duckdb")
	parser.AddOption("history-dir", "", "Record snapshots in this directory")
	parser.AddOption("log-level", "", "Log level (debug, info, warn, error)")
	return parser
}

func mainImpl(args []string, stdout io.Writer) error {
	parser := newParser()
	if err := parser.Parse(args); err != nil {
		return err
	}

	if parser.HasValue("help") || len(args) == 0 {
		parser.Help(stdout)
		return nil
	}
	if parser.HasValue("version") {
		fmt.Fprintf(stdout, "TimeKeeper version %s (%s)\n", versionName, versionNumber)
		return nil
	}

	cfg, err := loadConfig(parser)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Level())
	slog.SetDefault(logger)

	instance, err := tike.OpenConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer instance.Close()

	tasks, err := instance.Tasks()
	if err != nil {
		return err
	}

	cli := &CLI{parser: parser, tasks: tasks, instance: instance, cfg: cfg, out: stdout}
	return cli.run()
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(parser *ArgParser) (*config.Config, error) {
	path, err := parser.String("config")
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"db":          &cfg.Database,
		"backend":     &cfg.Backend,
		"log-level":   &cfg.LogLevel,
		"history-dir": &cfg.History.Dir,
	}
	for name, field := range overrides {
		if parser.HasValue(name) {
			if *field, err = parser.String(name); err != nil {
				return nil, err
			}
		}
	}
	cfg.Database = config.ExpandHome(cfg.Database)
	cfg.History.Dir = config.ExpandHome(cfg.History.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
}

// CLI dispatches parsed arguments to task operations.
type CLI struct {
	parser   *ArgParser
	tasks    *op.TaskOp
	instance *tike.Instance
	cfg      *config.Config
	out      io.Writer
}

func (cli *CLI) run() error {
	actions := []struct {
		name string
		fn   func() error
	}{
		{"add", cli.add},
		{"list", func() error { return cli.show("list", cli.tasks.Get) }},
		{"list-all", func() error { return cli.showAll(op.TasksTable, cli.tasks.List) }},
		{"remove", cli.remove},
		{"complete", cli.complete},
		{"list-completed", func() error { return cli.show("list-completed", cli.tasks.GetCompleted) }},
		{"list-all-completed", func() error { return cli.showAll(op.CompletedTasksTable, cli.tasks.ListCompleted) }},
		{"import", cli.importTable},
		{"export", cli.exportTable},
		{"restore", cli.restore},
		{"tag", cli.tag},
		{"history", cli.history},
		{"push", cli.push},
	}

	ran := false
	for _, action := range actions {
		if !cli.parser.HasValue(action.name) {
			continue
		}
		ran = true
		if err := action.fn(); err != nil {
			return err
		}
	}

	if !ran {
		if cli.parser.HasValue("title") || cli.parser.HasValue("description") {
			return fmt.Errorf("%w: --title and --description require --add", core.ErrInvalidInput)
		}
		if cli.parser.HasValue("since") {
			return fmt.Errorf("%w: --since requires --history", core.ErrInvalidInput)
		}
		cli.parser.Help(cli.out)
	}
	return nil
}

// done prints message, tagged with the snapshot that recorded it if any.
func (cli *CLI) done(message string, result db.CommitResult) {
	if result.Transaction.Id != "" {
		message += " [" + result.Transaction.ShortId() + "]"
	}
	fmt.Fprintln(cli.out, message)
}

func (cli *CLI) add() error {
	if !cli.parser.HasValue("title") {
		return fmt.Errorf("%w: missing required argument: --title", core.ErrInvalidInput)
	}
	title, err := cli.parser.String("title")
	if err != nil {
		return err
	}
	description, err := cli.parser.String("description")
	if err != nil {
		return err
	}

	result, err := cli.tasks.Add(title, description)
	if err != nil {
		return err
	}
	cli.done("Task added successfully", result)
	return nil
}

func (cli *CLI) show(name string, get func(int64) (db.QueryResult, error)) error {
	k, err := cli.parser.Int(name)
	if err != nil {
		return err
	}

	result, err := get(k)
	if errors.Is(err, core.ErrNotFound) {
		fmt.Fprintf(cli.out, "Task not found: %d\n", k)
		return errReported
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cli.out, "Task:")
	result.Display(cli.out)
	return nil
}

func (cli *CLI) showAll(table string, list func() (db.QueryResult, error)) error {
	result, err := list()
	if err != nil {
		return err
	}
	if result.RecordsRead == 0 {
		fmt.Fprintf(cli.out, "No tasks found in table: %s\n", table)
		return errReported
	}

	fmt.Fprintln(cli.out, "Tasks:")
	result.Display(cli.out)
	return nil
}

func (cli *CLI) remove() error {
	k, err := cli.parser.Int("remove")
	if err != nil {
		return err
	}

	result, err := cli.tasks.Remove(k)
	if err != nil {
		return err
	}
	cli.done(fmt.Sprintf("Task %d removed successfully", k), result)
	return nil
}

func (cli *CLI) complete() error {
	k, err := cli.parser.Int("complete")
	if err != nil {
		return err
	}

	result, err := cli.tasks.Complete(k)
	if err != nil {
		return err
	}
	cli.done(fmt.Sprintf("Task %d completed successfully", k), result)
	return nil
}

// tableURL splits a <table>=<url> argument.
func (cli *CLI) tableURL(name string) (string, string, error) {
	value, err := cli.parser.String(name)
	if err != nil {
		return "", "", err
	}
	table, url, ok := strings.Cut(value, "=")
	if !ok || table == "" || url == "" {
		return "", "", fmt.Errorf("%w: --%s expects <table>=<url>, got %q", core.ErrInvalidInput, name, value)
	}
	return table, url, nil
}

func (cli *CLI) exportTable() error {
	table, url, err := cli.tableURL("export")
	if err != nil {
		return err
	}

	n, err := cli.tasks.Engine.ExportTo(table, url)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Exported %d record(s) from %s to %s\n", n, table, url)
	return nil
}

func (cli *CLI) importTable() error {
	table, url, err := cli.tableURL("import")
	if err != nil {
		return err
	}

	result, err := cli.tasks.Import(table, url)
	if err != nil {
		return err
	}
	cli.done(fmt.Sprintf("Imported %d record(s) into %s from %s", result.RecordsWritten, table, url), result)
	return nil
}

// sinceLayouts are the accepted forms of --since, tried in order.
var sinceLayouts = []string{time.RFC3339, db.TimeLayout, time.DateOnly}

func (cli *CLI) since() (time.Time, error) {
	value, err := cli.parser.String("since")
	if err != nil || value == "" {
		return time.Time{}, err
	}
	for _, layout := range sinceLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: --since expects a time such as 2006-01-02 or 2006-01-02T15:04:05Z, got %q", core.ErrInvalidInput, value)
}

func (cli *CLI) history() error {
	since, err := cli.since()
	if err != nil {
		return err
	}
	result, err := cli.tasks.LogSince(since)
	if err != nil {
		return err
	}
	result.Display(cli.out)
	return nil
}

func (cli *CLI) restore() error {
	id, err := cli.parser.String("restore")
	if err != nil {
		return err
	}

	result, err := cli.tasks.Restore(id)
	if err != nil {
		return err
	}
	cli.done(fmt.Sprintf("Restored %s (%d record(s))", id, result.RecordsWritten), result)
	return nil
}

func (cli *CLI) tag() error {
	name, err := cli.parser.String("tag")
	if err != nil {
		return err
	}
	if err := cli.tasks.Tag(name); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Tagged latest snapshot as %s\n", name)
	return nil
}

func (cli *CLI) push() error {
	if cli.instance.History == nil || cli.cfg.History.Remote == "" {
		return fmt.Errorf("%w: --push needs history.dir and history.remote in the config", core.ErrInvalidInput)
	}
	if err := cli.instance.History.Push("origin", cli.cfg.History.Auth); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Pushed history to %s\n", cli.cfg.History.Remote)
	return nil
}
