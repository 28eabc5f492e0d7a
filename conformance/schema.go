package conformance

// TestSuite is one YAML file: a pseudocode table and the cases run against it
type TestSuite struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Source      string       `yaml:"source,omitempty"` // inline pseudocode
	File        string       `yaml:"file,omitempty"`   // or a table file, relative to the suite
	Requires    Requirements `yaml:"requires,omitempty"`
	Tests       []TestCase   `yaml:"tests"`
}

// Requirements lists -F/-W style switches applied before compiling, e.g. "no-symbol"
type Requirements struct {
	Features []string `yaml:"features,omitempty"`
}

// TestCase is one evaluation of the suite's table
type TestCase struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Skip        interface{}       `yaml:"skip,omitempty"` // bool or string
	Inputs      map[string]string `yaml:"inputs,omitempty"`
	Args        []string          `yaml:"args,omitempty"` // positional, in declared order
	MaxSteps    int               `yaml:"max_steps,omitempty"`
	Expect      Expectation       `yaml:"expect"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	Outputs map[string]string `yaml:"outputs,omitempty"` // exact values of set outputs
	Unset   []string          `yaml:"unset,omitempty"`   // outputs still holding the sentinel
	Error   string            `yaml:"error,omitempty"`   // malformed, unreachable, stuck, step-limit, unknown-value, missing-file
	Match   string            `yaml:"match,omitempty"`   // regex on the error message
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		return true, v
	}
	return false, ""
}
