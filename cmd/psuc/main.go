package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/xplshn/psuc/pkg/cli"
	"github.com/xplshn/psuc/pkg/compiler"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/util"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	app := cli.NewApp("psuc")
	app.Synopsis = "[options] <input.psu>"
	app.Description = "Translates decision-table pseudocode into a state-machine evaluator. Tables in, dispatch loops out."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/psuc>"
	app.Since = 2025
	app.Stdout, app.Stderr = stdout, stderr

	var (
		outFile string
		target  string
		pkgName string
		prefix  string
		dumpIR  bool
		verbose bool
		wall    bool
		wnoAll  bool
		status  int
	)

	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "-", "Place the output into <file> ('-' for stdout).", "file")
	fs.String(&target, "target", "t", "python", "Set the backend (python, go, c, qbe-il, qbe) and, for qbe, the target ABI.", "backend/target")
	fs.String(&pkgName, "package", "", "", "Package name for the go backend (default: table name).", "name")
	fs.String(&prefix, "prefix", "", "", "Identifier prefix for the c and qbe backends (default: table name).", "prefix")
	fs.Bool(&dumpIR, "dump-ir", "d", false, "Dump the resolved program and exit.")
	fs.Bool(&verbose, "verbose", "v", false, "Report pipeline progress on stderr.")
	fs.Bool(&wall, "Wall", "", false, "Enable all warnings.")
	fs.Bool(&wnoAll, "Wno-all", "", false, "Disable all warnings.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		progress := func(format string, args ...interface{}) {
			if verbose {
				fmt.Fprintf(stderr, "psuc: "+format+"\n", args...)
			}
		}

		if wall {
			cfg.SetAllWarnings(true)
		}
		if wnoAll {
			cfg.SetAllWarnings(false)
		}
		cfg.ApplyFlagGroups(warningFlags, featureFlags)
		cfg.Package, cfg.Prefix = pkgName, prefix

		rep := util.NewReporter()
		rep.W = stderr

		if err := cfg.SetTarget(runtime.GOOS, runtime.GOARCH, target); err != nil {
			rep.Report(err)
			status = 1
			return err
		}

		if len(inputFiles) != 1 {
			err := &util.MissingFileError{}
			if len(inputFiles) > 1 {
				fmt.Fprintf(stderr, "psuc: expected one input file, got %d\n", len(inputFiles))
			} else {
				rep.Report(err)
			}
			app.Usage()
			status = 1
			return err
		}

		progress("reading %s", inputFiles[0])
		rec, err := compiler.ReadSource(inputFiles[0])
		if err != nil {
			rep.Report(err)
			status = 1
			return err
		}
		rep.Files = []util.SourceFileRecord{rec}
		progress("enabled warnings: %s", strings.Join(cfg.EnabledWarnings(), ", "))

		if dumpIR {
			prog, err := compiler.Compile(rec, cfg, rep)
			if err != nil {
				rep.Report(err)
				status = 1
				return err
			}
			prog.Dump(stdout)
			return nil
		}

		progress("generating code with '%s' backend (target %s)", cfg.BackendName, cfg.BackendTarget)
		out, err := compiler.Translate(rec, cfg, rep)
		if err != nil {
			rep.Report(err)
			status = 1
			return err
		}

		if outFile == "" || outFile == "-" {
			if _, err := out.WriteTo(stdout); err != nil {
				rep.Report(err)
				status = 1
				return err
			}
		} else {
			progress("writing %s", outFile)
			if err := os.WriteFile(outFile, out.Bytes(), 0644); err != nil {
				rep.Report(fmt.Errorf("could not write '%s': %w", outFile, err))
				status = 1
				return err
			}
		}
		progress("done, %d warning(s)", rep.Warnings)
		return nil
	}

	if err := app.Run(args); err != nil && status == 0 {
		status = 2
	}
	return status
}
