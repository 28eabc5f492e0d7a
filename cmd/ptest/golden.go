package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Execution is one recorded psuc invocation.
type Execution struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exitCode"`
	Duration time.Duration `json:"duration"`
	TimedOut bool          `json:"timed_out"`
}

// Golden is the recorded behaviour of the translator for one table, keyed by
// backend. SourceHash pins it to the table content it was recorded from.
type Golden struct {
	SourceHash string               `json:"source_hash"`
	Backends   map[string]Execution `json:"backends"`
}

// goldenPath maps tables/lamp.psu to tables/.lamp.psu.json, or to
// <dir>/.lamp.psu.json when a golden directory is set.
func goldenPath(dir, table string) string {
	name := "." + filepath.Base(table) + ".json"
	if dir == "" {
		dir = filepath.Dir(table)
	}
	return filepath.Join(dir, name)
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func loadGolden(path string) (*Golden, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var g Golden
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("could not parse golden file %s: %w", path, err)
	}
	return &g, nil
}

func recordGolden(opts *options, table string) error {
	log.Printf("Recording golden file for %s...", table)
	sum, err := hashFile(table)
	if err != nil {
		return fmt.Errorf("could not hash %s: %w", table, err)
	}
	data, err := json.MarshalIndent(translateAll(opts, table, sum), "", "  ")
	if err != nil {
		return err
	}
	if opts.goldenDir != "" {
		if err := os.MkdirAll(opts.goldenDir, 0755); err != nil {
			return err
		}
	}
	path := goldenPath(opts.goldenDir, table)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("could not write golden file: %w", err)
	}
	log.Printf("%s[SUCCESS]%s Golden file written to %s", cGreen, cNone, path)
	return nil
}
