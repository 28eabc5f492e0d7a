package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type parsed struct {
	Output   string
	Target   string
	Verbose  bool
	Wdepth   bool
	WnoDepth bool
	Args     []string
}

func newTestSet() (*FlagSet, *parsed) {
	p := &parsed{}
	fs := NewFlagSet("psuc")
	fs.String(&p.Output, "output", "o", "-", "Output file", "file")
	fs.String(&p.Target, "target", "t", "python", "Backend", "backend")
	fs.Bool(&p.Verbose, "verbose", "v", false, "Verbose")
	fs.AddFlagGroup("Warning Flags", "", "warning", "Available Warnings:", []FlagGroupEntry{
		{Name: "depth", Prefix: "W", Usage: "Conflicting D directives", Default: true, Enabled: &p.Wdepth, Disabled: &p.WnoDepth},
	})
	return fs, p
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want parsed
	}{
		{
			name: "defaults",
			args: []string{"in.psu"},
			want: parsed{Output: "-", Target: "python", Args: []string{"in.psu"}},
		},
		{
			name: "long with separate value",
			args: []string{"--target", "go", "in.psu"},
			want: parsed{Output: "-", Target: "go", Args: []string{"in.psu"}},
		},
		{
			name: "long with equals",
			args: []string{"--output=out.py", "--verbose", "in.psu"},
			want: parsed{Output: "out.py", Target: "python", Verbose: true, Args: []string{"in.psu"}},
		},
		{
			name: "short attached and separate",
			args: []string{"-ogen.c", "-t", "c", "-v", "in.psu"},
			want: parsed{Output: "gen.c", Target: "c", Verbose: true, Args: []string{"in.psu"}},
		},
		{
			name: "single dash long name",
			args: []string{"-target=qbe", "-Wdepth", "-Wno-depth", "in.psu"},
			want: parsed{Output: "-", Target: "qbe", Wdepth: true, WnoDepth: true, Args: []string{"in.psu"}},
		},
		{
			name: "double dash ends flags",
			args: []string{"-v", "--", "-o", "x.psu"},
			want: parsed{Output: "-", Target: "python", Verbose: true, Args: []string{"-o", "x.psu"}},
		},
		{
			name: "bool with explicit value",
			args: []string{"--verbose=false"},
			want: parsed{Output: "-", Target: "python", Args: []string{}},
		},
		{
			name: "lone dash is positional",
			args: []string{"-"},
			want: parsed{Output: "-", Target: "python", Args: []string{"-"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, got := newTestSet()
			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			got.Args = fs.Args()
			if diff := cmp.Diff(tt.want, *got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--bogus"}, "unknown flag: --bogus"},
		{[]string{"-z"}, "unknown shorthand flag: -z"},
		{[]string{"--target"}, "flag needs an argument: --target"},
		{[]string{"-o"}, "flag needs an argument: -o"},
		{[]string{"--verbose=maybe"}, "invalid boolean value 'maybe'"},
		{[]string{"--=x"}, "empty flag name"},
	}
	for _, tt := range tests {
		fs, _ := newTestSet()
		err := fs.Parse(tt.args)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Parse(%q) = %v, want error containing %q", tt.args, err, tt.want)
		}
	}
}

func TestRedefinitionPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("redefining --output did not panic")
		}
	}()
	fs, _ := newTestSet()
	var s string
	fs.String(&s, "output", "", "", "", "")
}

func newTestApp(action func([]string) error) (*App, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	app := NewApp("psuc")
	app.Synopsis = "[options] <input.psu>"
	app.Description = "Translates tables."
	app.Authors = []string{"xplshn"}
	app.Stdout, app.Stderr = &stdout, &stderr
	app.Action = action
	var output string
	var on, off bool
	app.FlagSet.String(&output, "output", "o", "-", "Place the output into <file>.", "file")
	app.FlagSet.AddFlagGroup("Feature Flags", "", "feature", "Available Features:", []FlagGroupEntry{
		{Name: "symbol-syntax", Prefix: "F", Usage: "Accept symbol lines", Default: true, Enabled: &on, Disabled: &off},
		{Name: "stringer", Prefix: "F", Usage: "Emit String methods", Default: false, Enabled: new(bool), Disabled: new(bool)},
	})
	return app, &stdout, &stderr
}

func TestAppRunAction(t *testing.T) {
	var got []string
	app, stdout, stderr := newTestApp(func(args []string) error { got = args; return nil })
	if err := app.Run([]string{"-o", "x.py", "table.psu"}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"table.psu"}, got); diff != "" {
		t.Errorf("action args (-want +got):\n%s", diff)
	}
	if stdout.Len() != 0 || stderr.Len() != 0 {
		t.Errorf("unexpected output: %q %q", stdout, stderr)
	}
}

func TestAppHelp(t *testing.T) {
	called := false
	app, stdout, _ := newTestApp(func([]string) error { called = true; return nil })
	if err := app.Run([]string{"--help"}); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("action ran with --help")
	}
	page := stdout.String()
	for _, want := range []string{
		"Synopsis",
		"psuc <options> <input.psu>",
		"Translates tables.",
		"-o <file>, --output <file>",
		"|-|",
		"-h, --help",
		"Feature Flags",
		"-F<feature>",
		"-Fno-<feature>",
		"Available Features:",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("help page lacks %q:\n%s", want, page)
		}
	}
	for _, line := range strings.Split(page, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "symbol-syntax":
			if !strings.HasSuffix(line, "|x|") {
				t.Errorf("default-on feature not marked: %q", line)
			}
		case "stringer":
			if !strings.HasSuffix(line, "|-|") {
				t.Errorf("default-off feature not marked: %q", line)
			}
		}
	}
	if strings.Contains(page, "--Fstringer") {
		t.Error("group members listed among plain options")
	}
}

func TestAppParseErrorPrintsUsage(t *testing.T) {
	app, stdout, stderr := newTestApp(nil)
	if err := app.Run([]string{"--nope"}); err == nil {
		t.Fatal("expected an error")
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout not empty: %q", stdout)
	}
	msg := stderr.String()
	if !strings.HasPrefix(msg, "unknown flag: --nope\nUsage: psuc [options] <input.psu>\n") {
		t.Errorf("stderr = %q", msg)
	}
	if !strings.Contains(msg, "Run 'psuc --help'") {
		t.Errorf("usage lacks help hint: %q", msg)
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  []string
	}{
		{"", 10, nil},
		{"one two three", 0, []string{"one two three"}},
		{"one two three", 7, []string{"one two", "three"}},
		{"averyveryverylongword x", 5, []string{"averyveryverylongword", "x"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, wrapText(tt.text, tt.width)); diff != "" {
			t.Errorf("wrapText(%q, %d) (-want +got):\n%s", tt.text, tt.width, diff)
		}
	}
}
