package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

const rule = "----------------------------------------------------------------------"

func printSummary(w io.Writer, results []*Result) {
	counts := make(map[Status]int)
	var total time.Duration

	for _, r := range results {
		counts[r.Status]++
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "Testing %s%s%s...\n", cCyan, r.File, cNone)
		fmt.Fprintf(w, "  [%s%s%s] %s\n", statusColor(r.Status), r.Status, cNone, r.Message)
		if r.Status == Fail {
			fmt.Fprintln(w, formatDiff(r.Diff))
		}
		if r.Target != nil {
			line, d := timings(r.Target)
			total += d
			fmt.Fprintf(w, "  [%s]\n", line)
		}
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, counts[Pass], cNone, cRed, counts[Fail], cNone, cYellow, counts[Skip], cNone, cRed, counts[Error], cNone, len(results))
	if total > 0 {
		fmt.Fprintf(w, "Total translation time: %s\n", total)
	}
}

func statusColor(s Status) string {
	switch s {
	case Pass:
		return cGreen
	case Skip:
		return cYellow
	}
	return cRed
}

// timings renders per-backend durations as "c: 3ms | go: 12ms" and sums them.
func timings(g *Golden) (string, time.Duration) {
	names := make([]string, 0, len(g.Backends))
	for name := range g.Backends {
		names = append(names, name)
	}
	sort.Strings(names)
	var total time.Duration
	parts := make([]string, len(names))
	for i, name := range names {
		d := g.Backends[name].Duration
		total += d
		parts[i] = fmt.Sprintf("%s: %s", name, formatDuration(d))
	}
	return strings.Join(parts, " | "), total
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		switch t := strings.TrimSpace(line); {
		case strings.HasPrefix(t, "-"):
			sb.WriteString(cRed)
		case strings.HasPrefix(t, "+"):
			sb.WriteString(cGreen)
		}
		sb.WriteString("    " + line + cNone + "\n")
	}
	return sb.String()
}

// writeReport stores the results keyed by file as JSON. Failures are logged
// and otherwise ignored; the exit status depends only on the results.
func writeReport(opts *options, results []*Result) {
	byFile := make(map[string]*Result, len(results))
	for _, r := range results {
		byFile[r.File] = r
	}
	data, err := json.MarshalIndent(byFile, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v", cRed, cNone, err)
		return
	}

	path := opts.report
	if opts.goldenDir != "" {
		if err := os.MkdirAll(opts.goldenDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v", cRed, cNone, opts.goldenDir, err)
		}
		path = filepath.Join(opts.goldenDir, opts.report)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v", cRed, cNone, path, err)
		return
	}
	fmt.Printf("Full test report saved to %s\n", path)
}

func failed(results []*Result) bool {
	for _, r := range results {
		if r.Status == Fail || r.Status == Error {
			return true
		}
	}
	return false
}
