package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/go-cmp/cmp"
)

type Status string

const (
	Pass  Status = "PASS"
	Fail  Status = "FAIL"
	Skip  Status = "SKIP"
	Error Status = "ERROR"
)

type Result struct {
	File    string  `json:"file"`
	Status  Status  `json:"status"`
	Message string  `json:"message,omitempty"`
	Diff    string  `json:"diff,omitempty"`
	Golden  *Golden `json:"golden,omitempty"`
	Target  *Golden `json:"target,omitempty"`
}

// runSuite tests every table matched by the patterns on opts.jobs workers.
// Tables with identical content are translated once. Results come back
// sorted by file name.
func runSuite(opts *options) ([]*Result, error) {
	if _, err := exec.LookPath(opts.compiler); err != nil {
		return nil, fmt.Errorf("translator '%s' not found: %w", opts.compiler, err)
	}
	files, err := expandGlobPatterns(opts.patterns)
	if err != nil {
		return nil, err
	}

	skipped := make(map[string]bool)
	for _, f := range strings.Fields(opts.skip) {
		if abs, err := filepath.Abs(f); err == nil {
			skipped[abs] = true
		}
	}

	type job struct{ file, sum string }
	jobs := make(chan job, len(files))
	results := make(chan *Result, len(files))
	var wg sync.WaitGroup
	for i := 0; i < opts.jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- testTable(opts, j.file, j.sum)
			}
		}()
	}

	firstWithHash := make(map[string]string)
	for _, file := range files {
		if skipped[file] {
			results <- &Result{File: file, Status: Skip, Message: "Explicitly skipped"}
			continue
		}
		sum, err := hashFile(file)
		if err != nil {
			results <- &Result{File: file, Status: Error, Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if orig, ok := firstWithHash[sum]; ok {
			results <- &Result{File: file, Status: Skip, Message: fmt.Sprintf("Content is identical to %s", orig)}
			continue
		}
		firstWithHash[sum] = file
		jobs <- job{file, sum}
	}
	close(jobs)
	wg.Wait()
	close(results)

	var all []*Result
	for r := range results {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].File < all[j].File })
	return all, nil
}

func testTable(opts *options, file, sum string) *Result {
	path := goldenPath(opts.goldenDir, file)
	golden, err := loadGolden(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Result{File: file, Status: Skip, Message: "Cannot test without a corresponding .json golden file"}
	}
	if err != nil {
		return &Result{File: file, Status: Error, Message: err.Error()}
	}
	if golden.SourceHash != sum {
		return &Result{File: file, Status: Error, Message: fmt.Sprintf("Golden file %s is stale (table hash %s, recorded %s); regenerate it", path, sum, golden.SourceHash)}
	}
	return compare(file, golden, translateAll(opts, file, sum), splitIgnored(opts.ignoreLines))
}

// translateAll runs psuc once per backend with the generated code on stdout.
// The table path in diagnostics is cut to its base name so goldens do not
// depend on where the checkout lives.
func translateAll(opts *options, table, sum string) *Golden {
	g := &Golden{SourceHash: sum, Backends: make(map[string]Execution)}
	for _, backend := range strings.Fields(opts.backends) {
		args := append([]string{"-t", backend}, strings.Fields(opts.extraArgs)...)
		args = append(args, table)

		ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
		res := invoke(ctx, opts.compiler, args...)
		cancel()
		res.Stderr = strings.ReplaceAll(res.Stderr, table, filepath.Base(table))
		g.Backends[backend] = res
	}
	return g
}

// compare checks every backend present in both recordings. A backend that was
// recorded but not requested in this run is ignored.
func compare(file string, golden, target *Golden, ignored []string) *Result {
	var diffs strings.Builder
	names := make([]string, 0, len(golden.Backends))
	for name := range golden.Backends {
		if _, ok := target.Backends[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		want, got := golden.Backends[name], target.Backends[name]
		if got.TimedOut {
			fmt.Fprintf(&diffs, "Backend '%s' timed out after %s\n", name, got.Duration)
			continue
		}
		if want.ExitCode != got.ExitCode {
			fmt.Fprintf(&diffs, "Backend '%s' exit code mismatch:\n  - Golden: %d\n  - Target: %d\n", name, want.ExitCode, got.ExitCode)
		}
		if w, g := dropIgnored(want.Stdout, ignored), dropIgnored(got.Stdout, ignored); w != g {
			fmt.Fprintf(&diffs, "Backend '%s' STDOUT mismatch:\n%s", name, cmp.Diff(w, g))
		}
		if w, g := dropIgnored(want.Stderr, ignored), dropIgnored(got.Stderr, ignored); w != g {
			fmt.Fprintf(&diffs, "Backend '%s' STDERR mismatch:\n%s", name, cmp.Diff(w, g))
		}
	}

	if diffs.Len() > 0 {
		return &Result{File: file, Status: Fail, Message: "Generated output or exit code mismatch", Diff: diffs.String(), Golden: golden, Target: target}
	}
	return &Result{File: file, Status: Pass, Message: fmt.Sprintf("All %d backends match", len(names)), Golden: golden, Target: target}
}

// invoke runs a command under ctx and captures its output. ExitCode is -1 on
// timeout and -2 when the command could not be started.
func invoke(ctx context.Context, command string, args ...string) Execution {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	start := time.Now()
	err := cmd.Run()
	res := Execution{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.TimedOut, res.ExitCode = true, -1
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case err != nil:
		res.ExitCode = -2
		res.Stderr += "\nExecution error: " + err.Error()
	}
	return res
}

func splitIgnored(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dropIgnored removes every line containing one of the ignored substrings.
func dropIgnored(output string, ignored []string) string {
	if len(ignored) == 0 || output == "" {
		return output
	}
	lines := strings.Split(output, "\n")
	kept := lines[:0]
	for _, line := range lines {
		drop := false
		for _, sub := range ignored {
			if strings.Contains(line, sub) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// expandGlobPatterns returns the absolute paths of the regular files matched
// by the space-separated patterns, first match first, without duplicates.
func expandGlobPatterns(patterns string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, m := range matches {
			abs, err := filepath.Abs(m)
			if err != nil || seen[abs] {
				continue
			}
			if info, err := os.Stat(abs); err == nil && info.Mode().IsRegular() {
				files = append(files, abs)
				seen[abs] = true
			}
		}
	}
	return files, nil
}
