// ptest translates every example table with psuc, once per backend, and
// compares what the translator prints against recorded golden files.
package main

import (
	"flag"
	"log"
	"os"
	"time"
)

// options is everything the command line controls.
type options struct {
	compiler    string
	extraArgs   string
	backends    string
	record      string
	patterns    string
	skip        string
	report      string
	goldenDir   string
	ignoreLines string
	timeout     time.Duration
	jobs        int
}

func parseOptions(fs *flag.FlagSet, args []string) (*options, error) {
	o := &options{}
	fs.StringVar(&o.compiler, "compiler", "./psuc", "Path to the psuc binary to test.")
	fs.StringVar(&o.extraArgs, "args", "", "Extra arguments for every psuc invocation (space-separated).")
	fs.StringVar(&o.backends, "backends", "python go c qbe-il", "Backends to exercise (space-separated).")
	fs.StringVar(&o.record, "generate-golden", "", "Record a golden .json file for the given table and exit.")
	fs.StringVar(&o.patterns, "test-files", "examples/*.psu", "Glob pattern(s) of tables to test (space-separated).")
	fs.StringVar(&o.skip, "skip-files", "", "Tables to skip (space-separated).")
	fs.StringVar(&o.report, "output", ".test_results.json", "Where to write the JSON report.")
	fs.StringVar(&o.goldenDir, "dir", "", "Directory holding golden files (default: next to each table).")
	fs.StringVar(&o.ignoreLines, "ignore-lines", "", "Comma-separated substrings; matching lines are not compared.")
	fs.DurationVar(&o.timeout, "timeout", 5*time.Second, "Timeout for each psuc invocation.")
	fs.IntVar(&o.jobs, "j", 4, "Number of tables tested in parallel.")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.jobs = max(o.jobs, 1)
	return o, nil
}

func main() {
	log.SetFlags(0)
	opts, err := parseOptions(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	if opts.record != "" {
		if err := recordGolden(opts, opts.record); err != nil {
			log.Fatalf("%s[ERROR]%s %v", cRed, cNone, err)
		}
		return
	}

	results, err := runSuite(opts)
	if err != nil {
		log.Fatalf("%s[ERROR]%s %v", cRed, cNone, err)
	}
	printSummary(os.Stdout, results)
	writeReport(opts, results)
	if failed(results) {
		os.Exit(1)
	}
}
