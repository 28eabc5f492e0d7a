// ptable loads a pseudocode table and evaluates it interactively.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/xplshn/psuc/pkg/cli"
	"github.com/xplshn/psuc/pkg/compiler"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/eval"
	"github.com/xplshn/psuc/pkg/ir"
	"github.com/xplshn/psuc/pkg/util"
)

const (
	historyFile = ".ptable_history"
	promptMain  = "ptable> "
)

func main() {
	app := cli.NewApp("ptable")
	app.Synopsis = "[options] <input.psu>"
	app.Description = "Evaluates a decision table interactively. Enter one value per input, or name=value pairs."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/psuc>"
	app.Since = 2025

	var (
		steps string
		trace bool
	)
	fs := app.FlagSet
	fs.String(&steps, "max-steps", "m", "65536", "Abort an evaluation after this many dispatch-loop iterations.", "n")
	fs.Bool(&trace, "trace", "x", false, "Print every executed statement.")

	app.Action = func(args []string) error {
		maxSteps, err := strconv.Atoi(steps)
		if err != nil || maxSteps < 1 {
			return fmt.Errorf("invalid --max-steps value '%s'", steps)
		}
		rep := util.NewReporter()
		if len(args) != 1 {
			rep.Report(&util.MissingFileError{})
			app.Usage()
			return &util.MissingFileError{}
		}
		cfg := config.NewConfig()
		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, ""); err != nil {
			return err
		}
		rec, err := compiler.ReadSource(args[0])
		if err != nil {
			rep.Report(err)
			return err
		}
		rep.Files = []util.SourceFileRecord{rec}
		prog, err := compiler.Compile(rec, cfg, rep)
		if err != nil {
			rep.Report(err)
			return err
		}
		s := &session{prog: prog, maxSteps: maxSteps, trace: trace, out: os.Stdout}
		return s.repl()
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

type session struct {
	prog     *ir.Program
	maxSteps int
	trace    bool
	out      io.Writer
}

func (s *session) repl() error {
	fmt.Fprintf(s.out, "ptable: loaded '%s' (%d inputs, %d outputs, %d states). Type :help for help.\n",
		s.prog.Name, len(s.prog.Inputs), len(s.prog.Outputs), len(s.prog.Blocks))

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetCompleter(s.complete)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(promptMain)
		if err != nil {
			fmt.Fprintln(s.out)
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if strings.HasPrefix(line, ":") {
			if s.command(line) {
				break
			}
			continue
		}
		s.evaluate(line)
	}

	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return nil
}

// command handles :help, :quit, :inputs, :outputs, :trace and :ir.
func (s *session) command(line string) (exit bool) {
	switch strings.Fields(line)[0] {
	case ":quit", ":q":
		return true
	case ":inputs":
		s.listEnums(s.prog.Inputs)
	case ":outputs":
		s.listEnums(s.prog.Outputs)
	case ":trace":
		s.trace = !s.trace
		fmt.Fprintf(s.out, "trace %v\n", s.trace)
	case ":ir":
		s.prog.Dump(s.out)
	case ":help":
		for _, h := range [][2]string{
			{"v1 v2 ...", "evaluate with one value per input, in declared order"},
			{"name=value ...", "evaluate with named inputs"},
			{":inputs", "list input domains"},
			{":outputs", "list output domains"},
			{":trace", "toggle statement tracing"},
			{":ir", "dump the resolved program"},
			{":quit", "leave"},
		} {
			fmt.Fprintf(s.out, "  %-16s %s\n", h[0], h[1])
		}
	default:
		fmt.Fprintf(s.out, "unknown command %s (try :help)\n", line)
	}
	return false
}

func (s *session) listEnums(es []*ir.Enum) {
	for _, e := range es {
		names := make([]string, len(e.Members))
		for i, m := range e.Members {
			names[i] = m.Name
		}
		fmt.Fprintf(s.out, "  %s: %s\n", e.Name, strings.Join(names, " | "))
	}
}

func (s *session) evaluate(line string) {
	opts := []eval.Option{eval.WithStepLimit(s.maxSteps)}
	if s.trace {
		opts = append(opts, eval.WithTrace(func(state int, st *ir.Stmt) {
			fmt.Fprintf(s.out, "  [%d] %s\n", state, st)
		}))
	}
	m := eval.New(s.prog, opts...)

	fields := strings.Fields(line)
	var (
		outputs []eval.Output
		err     error
	)
	if strings.Contains(line, "=") {
		named := make(map[string]string, len(fields))
		for _, f := range fields {
			k, v, ok := strings.Cut(f, "=")
			if !ok {
				fmt.Fprintf(s.out, "error: mixing positional and named inputs ('%s')\n", f)
				return
			}
			named[k] = v
		}
		outputs, err = m.EvaluateMap(named)
	} else {
		outputs, err = m.Evaluate(fields...)
	}
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}

	parts := make([]string, len(outputs))
	for i, o := range outputs {
		parts[i] = o.String()
	}
	fmt.Fprintln(s.out, strings.Join(parts, " "))
}

// complete offers input names and values for the word being typed.
func (s *session) complete(line string) []string {
	start := strings.LastIndexAny(line, " ") + 1
	head, word := line[:start], line[start:]
	var out []string
	for _, e := range s.prog.Inputs {
		if strings.HasPrefix(e.Name+"=", word) {
			out = append(out, head+e.Name+"=")
		}
		for _, m := range e.Members {
			full := e.Name + "=" + m.Name
			if strings.HasPrefix(full, word) && strings.Contains(word, "=") {
				out = append(out, head+full)
			}
			if strings.HasPrefix(m.Name, word) && !strings.Contains(word, "=") {
				out = append(out, head+m.Name)
			}
		}
	}
	return out
}
