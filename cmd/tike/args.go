package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/nickyhof/tike/core"
)

// errUndefinedArgument is returned by Get for names never added.
var errUndefinedArgument = errors.New("undefined argument")

// Arg is one command-line argument definition and, after Parse, its value.
type Arg struct {
	Name        string
	Short       string
	Description string
	// IsFlag marks arguments that take no value.
	IsFlag bool
	Value  string
}

// ArgParser parses long (--name) and short (-n) arguments. Every parser
// knows --help.
type ArgParser struct {
	program     string
	description string
	flags       *pflag.FlagSet
	args        []*Arg
}

func NewArgParser(program, description string) *ArgParser {
	flags := pflag.NewFlagSet(program, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}
	flags.SortFlags = true

	parser := &ArgParser{
		program:     program,
		description: description,
		flags:       flags,
	}
	parser.AddFlag("help", "h", "Show this help page")
	return parser
}

// AddFlag defines an argument that takes no value.
func (parser *ArgParser) AddFlag(name, short, description string) {
	parser.flags.BoolP(name, short, false, description)
	parser.args = append(parser.args, &Arg{Name: name, Short: short, Description: description, IsFlag: true})
}

// AddOption defines an argument followed by a value.
func (parser *ArgParser) AddOption(name, short, description string) {
	parser.flags.StringP(name, short, "", description)
	parser.args = append(parser.args, &Arg{Name: name, Short: short, Description: description})
}

// Parse reads arguments, program name excluded. Unknown arguments, missing
// values and positional arguments are errors.
func (parser *ArgParser) Parse(arguments []string) error {
	if err := parser.flags.Parse(arguments); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	}
	if rest := parser.flags.Args(); len(rest) > 0 {
		return fmt.Errorf("%w: unexpected positional argument: %s", core.ErrInvalidInput, rest[0])
	}

	for _, arg := range parser.args {
		if !parser.flags.Changed(arg.Name) {
			continue
		}
		if arg.IsFlag {
			arg.Value = "true"
		} else {
			arg.Value, _ = parser.flags.GetString(arg.Name)
		}
	}
	return nil
}

// HasValue reports whether name was given on the command line.
func (parser *ArgParser) HasValue(name string) bool {
	return parser.flags.Lookup(name) != nil && parser.flags.Changed(name)
}

func (parser *ArgParser) Get(name string) (Arg, error) {
	for _, arg := range parser.args {
		if arg.Name == name {
			return *arg, nil
		}
	}
	return Arg{}, fmt.Errorf("%w: --%s", errUndefinedArgument, name)
}

// String returns the value of name, or "" when it was not given.
func (parser *ArgParser) String(name string) (string, error) {
	arg, err := parser.Get(name)
	if err != nil {
		return "", err
	}
	return arg.Value, nil
}

// Int parses the value of name as a task number.
func (parser *ArgParser) Int(name string) (int64, error) {
	value, err := parser.String(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: --%s expects a number, got %q", core.ErrInvalidInput, name, value)
	}
	return n, nil
}

// Help writes usage and every argument sorted by long name.
func (parser *ArgParser) Help(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s [OPTIONS]\n\n", parser.program)
	if parser.description != "" {
		fmt.Fprintf(w, "%s\n\n", parser.description)
	}
	fmt.Fprintln(w, "Options:")

	sorted := slices.Clone(parser.args)
	slices.SortFunc(sorted, func(a, b *Arg) int {
		return strings.Compare(a.Name, b.Name)
	})

	options := make([]string, len(sorted))
	width := 0
	for i, arg := range sorted {
		option := "    "
		if arg.Short != "" {
			option = "-" + arg.Short + ", "
		}
		option += "--" + arg.Name
		if !arg.IsFlag {
			option += " <value>"
		}
		options[i] = option
		width = max(width, len(option))
	}

	for i, arg := range sorted {
		fmt.Fprintf(w, "    %-*s%s\n", width+2, options[i], arg.Description)
	}
}
