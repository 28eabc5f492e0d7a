package conformance

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xplshn/psuc/pkg/compiler"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/eval"
	"github.com/xplshn/psuc/pkg/ir"
	"github.com/xplshn/psuc/pkg/util"
)

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

type compiled struct {
	prog *ir.Program
	err  error
}

// Runner compiles each suite's table once and evaluates its cases
type Runner struct {
	tables map[string]compiled
}

func NewRunner() *Runner {
	return &Runner{tables: make(map[string]compiled)}
}

func (r *Runner) compile(test LoadedTest) (*ir.Program, error) {
	key := test.File
	if c, ok := r.tables[key]; ok {
		return c.prog, c.err
	}

	cfg := config.NewConfig()
	var c compiled
	for _, f := range test.Suite.Requires.Features {
		if err := cfg.ApplyFlag("-F" + f); err != nil {
			c.err = fmt.Errorf("suite requirements: %w", err)
			r.tables[key] = c
			return nil, c.err
		}
	}

	if test.Suite.File != "" {
		rec, err := compiler.ReadSource(filepath.Join(test.Dir, test.Suite.File))
		if err != nil {
			c.err = err
		} else {
			c.prog, c.err = compiler.Compile(rec, cfg, nil)
		}
	} else {
		c.prog, c.err = compiler.CompileString(test.Suite.Name+".psu", test.Suite.Source, cfg)
	}
	r.tables[key] = c
	return c.prog, c.err
}

// Run executes a single test case
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{Test: test, Skipped: true, SkipReason: reason}
	}

	var outputs []eval.Output
	prog, err := r.compile(test)
	if err == nil {
		var opts []eval.Option
		if test.Test.MaxSteps > 0 {
			opts = append(opts, eval.WithStepLimit(test.Test.MaxSteps))
		}
		m := eval.New(prog, opts...)
		if test.Test.Args != nil {
			outputs, err = m.Evaluate(test.Test.Args...)
		} else {
			outputs, err = m.EvaluateMap(test.Test.Inputs)
		}
	}

	if cerr := checkExpectation(test.Test.Expect, outputs, err); cerr != nil {
		return TestResult{Test: test, Error: cerr}
	}
	return TestResult{Test: test, Passed: true}
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}

func checkExpectation(expect Expectation, outputs []eval.Output, err error) error {
	if expect.Error != "" {
		if err == nil {
			return fmt.Errorf("expected error %s, got outputs %s", expect.Error, formatOutputs(outputs))
		}
		if got := ErrorCategory(err); got != expect.Error {
			return fmt.Errorf("expected error %s, got %s (%v)", expect.Error, got, err)
		}
		if expect.Match != "" {
			re, rerr := regexp.Compile(expect.Match)
			if rerr != nil {
				return fmt.Errorf("invalid match pattern: %w", rerr)
			}
			if !re.MatchString(err.Error()) {
				return fmt.Errorf("error %q does not match /%s/", err, expect.Match)
			}
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("unexpected error: %w", err)
	}

	byName := make(map[string]eval.Output, len(outputs))
	for _, o := range outputs {
		byName[o.Name] = o
	}
	for name, want := range expect.Outputs {
		o, ok := byName[name]
		switch {
		case !ok:
			return fmt.Errorf("no output named '%s'", name)
		case !o.Set:
			return fmt.Errorf("output '%s' is unset, expected %s", name, want)
		case o.Value != want:
			return fmt.Errorf("output '%s' = %s, expected %s", name, o.Value, want)
		}
	}
	for _, name := range expect.Unset {
		o, ok := byName[name]
		if !ok {
			return fmt.Errorf("no output named '%s'", name)
		}
		if o.Set {
			return fmt.Errorf("output '%s' = %s, expected it unset", name, o.Value)
		}
	}
	return nil
}

// ErrorCategory names the kind of a translation or evaluation failure as
// used by the suites' expect.error field.
func ErrorCategory(err error) string {
	var (
		malformed   *util.MalformedDirectiveError
		unreachable *util.UnreachableTargetError
		missing     *util.MissingFileError
		stuck       *eval.StuckError
		unknown     *eval.UnknownValueError
	)
	switch {
	case errors.As(err, &malformed):
		return "malformed"
	case errors.As(err, &unreachable):
		return "unreachable"
	case errors.As(err, &missing):
		return "missing-file"
	case errors.As(err, &stuck):
		return "stuck"
	case errors.Is(err, eval.ErrStepLimit):
		return "step-limit"
	case errors.As(err, &unknown):
		return "unknown-value"
	}
	return "error"
}

func formatOutputs(outputs []eval.Output) string {
	parts := make([]string, len(outputs))
	for i, o := range outputs {
		parts[i] = o.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
