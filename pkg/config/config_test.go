package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/psuc/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.BackendName != "python" {
		t.Errorf("default backend %s, want python", cfg.BackendName)
	}
	if cfg.IsWarningEnabled(WarnUnrecognized) {
		t.Error("unrecognized-line warnings are on by default")
	}
	for _, ft := range []Feature{FeatComma, FeatSymbol, FeatDepthDoc, FeatStringer} {
		if !cfg.IsFeatureEnabled(ft) {
			t.Errorf("feature %s disabled by default", cfg.Features[ft].Name)
		}
	}
}

func TestSetTarget(t *testing.T) {
	cases := []struct {
		target      string
		backend     string
		qbeTarget   string
		expectError bool
	}{
		{"", "python", "amd64_sysv", false},
		{"go", "go", "amd64_sysv", false},
		{"qbe/arm64", "qbe", "arm64", false},
		{"qbe-il/rv64", "qbe-il", "rv64", false},
		{"cobol", "", "", true},
		{"qbe/z80", "", "", true},
	}
	for _, c := range cases {
		cfg := NewConfig()
		err := cfg.SetTarget("linux", "amd64", c.target)
		if c.expectError {
			if err == nil {
				t.Errorf("SetTarget(%q) accepted", c.target)
			}
			continue
		}
		if err != nil {
			t.Errorf("SetTarget(%q): %v", c.target, err)
			continue
		}
		if cfg.BackendName != c.backend || cfg.BackendTarget != c.qbeTarget {
			t.Errorf("SetTarget(%q) = %s/%s, want %s/%s", c.target, cfg.BackendName, cfg.BackendTarget, c.backend, c.qbeTarget)
		}
	}
}

func TestApplyFlag(t *testing.T) {
	cfg := NewConfig()
	for _, f := range []string{"-Wunrecognized", "-Wno-depth", "-Fno-symbol"} {
		if err := cfg.ApplyFlag(f); err != nil {
			t.Fatalf("ApplyFlag(%s): %v", f, err)
		}
	}
	if !cfg.IsWarningEnabled(WarnUnrecognized) || cfg.IsWarningEnabled(WarnDepth) || cfg.IsFeatureEnabled(FeatSymbol) {
		t.Error("flags not applied")
	}

	if err := cfg.ApplyFlag("-Wno-all"); err != nil {
		t.Fatal(err)
	}
	if got := cfg.EnabledWarnings(); len(got) != 0 {
		t.Errorf("-Wno-all left %v enabled", got)
	}
	if err := cfg.ApplyFlag("-Wall"); err != nil {
		t.Fatal(err)
	}
	if got := len(cfg.EnabledWarnings()); got != int(WarnCount) {
		t.Errorf("-Wall enabled %d warnings, want %d", got, WarnCount)
	}

	for _, bad := range []string{"-Wbogus", "-Fbogus", "-Xfoo"} {
		if err := cfg.ApplyFlag(bad); err == nil {
			t.Errorf("ApplyFlag(%s) accepted", bad)
		}
	}
}

func TestFlagGroups(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("psuc")
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)
	if len(warningFlags) != int(WarnCount) || len(featureFlags) != int(FeatCount) {
		t.Fatalf("got %d warning and %d feature entries", len(warningFlags), len(featureFlags))
	}
	if err := fs.Parse([]string{"-Wunrecognized", "-Wno-fall-off", "-Fno-stringer", "in.psu"}); err != nil {
		t.Fatal(err)
	}
	cfg.ApplyFlagGroups(warningFlags, featureFlags)

	if !cfg.IsWarningEnabled(WarnUnrecognized) || cfg.IsWarningEnabled(WarnFallOff) || cfg.IsFeatureEnabled(FeatStringer) {
		t.Error("flag groups not applied")
	}
	if diff := cmp.Diff([]string{"in.psu"}, fs.Args()); diff != "" {
		t.Errorf("positional args (-want +got):\n%s", diff)
	}
}
