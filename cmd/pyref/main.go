// The pyref command refactors source code in the target language, driving
// the engine package's registered refactorings from the command line.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/godoctor/pyref/engine"
	"github.com/godoctor/pyref/fsys"
	"github.com/godoctor/pyref/refactoring"
	"github.com/godoctor/pyref/resolve"
	"github.com/godoctor/pyref/text"
	"github.com/godoctor/pyref/undo"
)

var (
	rootDir     string
	posFlag     string
	writeFlag   bool
	listFlag    bool
	verboseFlag bool
)

func main() {
	root := &cobra.Command{
		Use:   "pyref <refactoring> <file> [args...]",
		Short: "Refactor source files in place",
		Long: `pyref applies a single refactoring to a project on disk.

Example:
  pyref rename --pos=3,5:3,5 --project . pkg/mod.py NewName`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	flags := root.Flags()
	flags.StringVar(&rootDir, "project", ".", "project root directory")
	flags.StringVar(&posFlag, "pos", "0,0:0,0", "selection as startLine,startCol:endLine,endCol")
	flags.BoolVarP(&writeFlag, "write", "w", false, "write changes to disk")
	flags.BoolVarP(&listFlag, "list", "l", false, "list available refactorings and exit")
	flags.BoolVar(&verboseFlag, "verbose", false, "lower the log level to debug (applied change sets are logged at info level either way)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if listFlag {
		for name := range engine.AllRefactorings() {
			fmt.Println(name)
		}
		return nil
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: pyref <refactoring> <file> [args...]")
	}
	refName, filePath := args[0], args[1]
	refArgs := args[2:]

	r := engine.GetRefactoring(refName)
	if r == nil {
		return fmt.Errorf("unknown refactoring %q (use --list to see available names)", refName)
	}

	project, err := fsys.Open(fsys.NewLocalDisk(rootDir), fsys.Config{})
	if err != nil {
		return fmt.Errorf("opening project: %w", err)
	}
	resolver := resolve.New(project)

	sel, err := parseSelection(filePath, posFlag)
	if err != nil {
		return err
	}

	config := &refactoring.Config{
		Project:   project,
		Resolver:  resolver,
		Selection: sel,
		Args:      interpretArgs(refArgs, r.Description().Params),
	}

	result := r.Run(config)
	for _, e := range result.Log.Entries {
		fmt.Fprintln(os.Stderr, e.String())
	}
	if result.Log.ContainsErrors() {
		return fmt.Errorf("%s failed", r.Description().Name)
	}

	mgr := undo.NewManager(project)
	mgr.SetLogger(newLogger())
	if writeFlag {
		if err := mgr.Add(result.Changes); err != nil {
			return fmt.Errorf("applying changes: %w", err)
		}
		fmt.Println("done")
		return nil
	}

	for _, c := range result.Changes.Children {
		fmt.Println(c.String())
	}
	return nil
}

// newLogger builds the structured logger undo.Manager reports applied,
// undone, and redone change sets through, at Info level by default and Debug
// level under --verbose.
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	if verboseFlag {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// interpretArgs converts the refactoring's raw positional arguments to the
// types its Description.Params declare, the way parsePositionToTextSelection's
// sibling in the teacher's CLI (refactoring.InterpretArgs) did for Go.
func interpretArgs(raw []string, params []refactoring.Parameter) []any {
	out := make([]any, len(params))
	for i, p := range params {
		if i >= len(raw) {
			out[i] = p.DefaultValue
			continue
		}
		switch p.DefaultValue.(type) {
		case bool:
			b, _ := strconv.ParseBool(raw[i])
			out[i] = b
		default:
			out[i] = raw[i]
		}
	}
	return out
}

// parseSelection parses "startLine,startCol:endLine,endCol" into a
// text.LineColSelection rooted at filePath.
func parseSelection(filePath, pos string) (text.Selection, error) {
	parts := strings.Split(pos, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid -pos %q", pos)
	}
	sl, sc, err := parseLineCol(parts[0])
	if err != nil {
		return nil, err
	}
	el, ec, err := parseLineCol(parts[1])
	if err != nil {
		return nil, err
	}
	return &text.LineColSelection{
		File: filePath, StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec,
	}, nil
}

func parseLineCol(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid line,col %q", s)
	}
	l, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	c, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return l, c, nil
}
