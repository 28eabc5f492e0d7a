package conformance

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// TestPath is where the suites live, relative to this package
const TestPath = "testdata"

// LoadedTest represents a test with its source file path
type LoadedTest struct {
	File  string
	Dir   string
	Suite TestSuite
	Test  TestCase
}

// LoadAllTests loads every .yaml suite under dir, in file name order
func LoadAllTests(dir string) ([]LoadedTest, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".yaml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var loaded []LoadedTest
	for _, path := range paths {
		tests, err := loadTestFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rel, _ := filepath.Rel(dir, path)
		for _, test := range tests {
			test.File = rel
			loaded = append(loaded, test)
		}
	}
	return loaded, nil
}

// loadTestFile parses a single YAML file and returns all test cases
func loadTestFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	if (suite.Source == "") == (suite.File == "") {
		return nil, fmt.Errorf("suite '%s' needs exactly one of 'source' and 'file'", suite.Name)
	}

	tests := make([]LoadedTest, 0, len(suite.Tests))
	for _, test := range suite.Tests {
		tests = append(tests, LoadedTest{Dir: filepath.Dir(path), Suite: suite, Test: test})
	}
	return tests, nil
}
