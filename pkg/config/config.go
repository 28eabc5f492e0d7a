package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xplshn/psuc/pkg/cli"
	"modernc.org/libqbe"
)

type Feature int

const (
	FeatComma Feature = iota
	FeatSymbol
	FeatDepthDoc
	FeatStringer
	FeatCount
)

type Warning int

const (
	WarnUnrecognized Warning = iota
	WarnMixedSyntax
	WarnDepth
	WarnUndeclared
	WarnFallOff
	WarnUnreachableCode
	WarnEmptyState
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// Backends lists the code generation backends known to the driver.
var Backends = []string{"python", "go", "c", "qbe-il", "qbe"}

type Config struct {
	Features      map[Feature]Info
	Warnings      map[Warning]Info
	FeatureMap    map[string]Feature
	WarningMap    map[string]Warning
	BackendName   string
	BackendTarget string
	GOOS          string
	GOARCH        string
	Package       string
	Prefix        string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:    make(map[Feature]Info),
		Warnings:    make(map[Warning]Info),
		FeatureMap:  make(map[string]Feature),
		WarningMap:  make(map[string]Warning),
		BackendName: "python",
	}

	features := map[Feature]Info{
		FeatComma:    {"comma", true, "Read comma-form directives (`T,var,val,n`)."},
		FeatSymbol:   {"symbol", true, "Read symbol-form directives (`: var val > n`)."},
		FeatDepthDoc: {"depth-doc", true, "Mention the table's maximum depth in the generated function's documentation."},
		FeatStringer: {"stringer", true, "Emit String methods for enumerations in the Go backend."},
	}

	warnings := map[Warning]Info{
		WarnUnrecognized:    {"unrecognized", false, "Warn about non-blank lines that are not directives."},
		WarnMixedSyntax:     {"mixed-syntax", true, "Warn when comma and symbol forms are mixed in one file."},
		WarnDepth:           {"depth", true, "Warn when the depth directive is given more than once with different values."},
		WarnUndeclared:      {"undeclared", true, "Warn about tests and assignments on undeclared variables or values."},
		WarnFallOff:         {"fall-off", true, "Warn about state blocks that end without a transition."},
		WarnUnreachableCode: {"unreachable-code", true, "Warn about statements that follow an unconditional transition."},
		WarnEmptyState:      {"empty-state", true, "Warn about jumps to states that own no statements."},
		WarnExtra:           {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// SetTarget selects the backend from a "backend[/qbe-target]" string. The QBE
// target defaults to the host's.
func (c *Config) SetTarget(goos, goarch, target string) error {
	c.GOOS, c.GOARCH = goos, goarch

	name, qbeTarget, _ := strings.Cut(target, "/")
	if name == "" {
		name = "python"
	}
	known := false
	for _, b := range Backends {
		if b == name {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unsupported backend '%s'. Supported: %s", name, strings.Join(Backends, ", "))
	}
	c.BackendName = name

	if qbeTarget == "" {
		c.BackendTarget = libqbe.DefaultTarget(goos, goarch)
		return nil
	}
	switch qbeTarget {
	case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		c.BackendTarget = qbeTarget
	default:
		return fmt.Errorf("unrecognized QBE target '%s'", qbeTarget)
	}
	return nil
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetAllWarnings backs -Wall and -Wno-all.
func (c *Config) SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		c.SetWarning(i, enabled)
	}
}

// SetupFlagGroups registers -W<name>/-Wno-<name> and -F<name>/-Fno-<name>
// for every warning and feature. The returned entries are indexed by
// Warning and Feature respectively.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "W",
			Usage:    info.Description,
			Default:  info.Enabled,
			Enabled:  new(bool),
			Disabled: new(bool),
		}
	}

	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "F",
			Usage:    info.Description,
			Default:  info.Enabled,
			Enabled:  new(bool),
			Disabled: new(bool),
		}
	}

	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning", "Available Warnings:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable specific features", "feature", "Available Features:", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups applies the parsed -W/-F group flags on top of the defaults.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}

// ApplyFlag applies a single "-Wname", "-Wno-name", "-Fname" or "-Fno-name".
func (c *Config) ApplyFlag(flag string) error {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
	default:
		return fmt.Errorf("unrecognized flag '%s'", flag)
	}
	if isNo {
		name = strings.TrimPrefix(name, "no-")
	}

	if name == "all" && isWarning {
		c.SetAllWarnings(enable)
		return nil
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
			return nil
		}
		return fmt.Errorf("unknown warning '%s'", name)
	}
	if f, ok := c.FeatureMap[name]; ok {
		c.SetFeature(f, enable)
		return nil
	}
	return fmt.Errorf("unknown feature '%s'", name)
}

// EnabledWarnings lists enabled warning names, sorted, for verbose output.
func (c *Config) EnabledWarnings() []string {
	var names []string
	for _, info := range c.Warnings {
		if info.Enabled {
			names = append(names, info.Name)
		}
	}
	sort.Strings(names)
	return names
}
