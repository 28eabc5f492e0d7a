// Package cli is the small flag parser and help-page renderer shared by the
// psuc and ptable commands. It understands GNU-style long flags, single-dash
// shorthands and -X<name>/-Xno-<name> flag groups for warnings and features.
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"
)

const indentUnit = 4

func indentAt(level int) string { return strings.Repeat(" ", indentUnit*level) }

type Value interface {
	String() string
	Set(string) error
	Get() any
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }
func (v *stringValue) Get() any           { return *v.p }

type boolValue struct{ p *bool }

// Set treats an empty string as a bare "--flag".
func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	val, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s': %w", s, err)
	}
	*v.p = val
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }
func (v *boolValue) Get() any       { return *v.p }

func isBool(flag *Flag) bool {
	_, ok := flag.Value.(*boolValue)
	return ok
}

type Flag struct {
	Name         string
	Shorthand    string
	Usage        string
	Value        Value
	DefValue     string
	ExpectedType string
}

// FlagGroup is a family of on/off switches sharing a prefix, like -W or -F.
type FlagGroup struct {
	Name                 string
	Description          string
	Flags                []FlagGroupEntry
	GroupType            string
	AvailableFlagsHeader string
}

// FlagGroupEntry defines <Prefix><Name> (sets *Enabled) and
// <Prefix>no-<Name> (sets *Disabled). Default is only shown in help.
type FlagGroupEntry struct {
	Name     string
	Prefix   string
	Usage    string
	Default  bool
	Enabled  *bool
	Disabled *bool
}

type FlagSet struct {
	name       string
	flags      map[string]*Flag
	shorthands map[string]*Flag
	args       []string
	flagGroups []FlagGroup
}

func NewFlagSet(name string) *FlagSet {
	return &FlagSet{
		name:       name,
		flags:      make(map[string]*Flag),
		shorthands: make(map[string]*Flag),
	}
}

// Args returns the positional arguments left after Parse.
func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, shorthand, value, usage, expectedType string) {
	*p = value
	f.Var(&stringValue{p}, name, shorthand, usage, value, expectedType)
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.Var(&boolValue{p}, name, shorthand, usage, strconv.FormatBool(value), "")
}

func (f *FlagSet) AddFlagGroup(name, description, groupType, availableFlagsHeader string, entries []FlagGroupEntry) {
	for _, e := range entries {
		if e.Enabled != nil {
			f.Bool(e.Enabled, e.Prefix+e.Name, "", *e.Enabled, e.Usage)
		}
		if e.Disabled != nil {
			f.Bool(e.Disabled, e.Prefix+"no-"+e.Name, "", *e.Disabled, "Disable '"+e.Name+"'")
		}
	}
	f.flagGroups = append(f.flagGroups, FlagGroup{
		Name:                 name,
		Description:          description,
		Flags:                entries,
		GroupType:            groupType,
		AvailableFlagsHeader: availableFlagsHeader,
	})
}

// Var registers a flag. Redefining a name or shorthand is a programming
// error and panics.
func (f *FlagSet) Var(value Value, name, shorthand, usage, defValue, expectedType string) {
	if name == "" {
		panic("flag name cannot be empty")
	}
	if _, ok := f.flags[name]; ok {
		panic(fmt.Sprintf("flag redefined: %s", name))
	}
	flag := &Flag{Name: name, Shorthand: shorthand, Usage: usage, Value: value, DefValue: defValue, ExpectedType: expectedType}
	f.flags[name] = flag
	if shorthand != "" {
		if _, ok := f.shorthands[shorthand]; ok {
			panic(fmt.Sprintf("shorthand flag redefined: %s", shorthand))
		}
		f.shorthands[shorthand] = flag
	}
}

// Parse consumes flags anywhere on the command line; everything else, and
// everything after "--", becomes a positional argument. A single dash
// followed by a full flag name ("-Wall", "-Wno-depth=true") is accepted as
// a long flag before shorthands are tried.
func (f *FlagSet) Parse(arguments []string) error {
	f.args = []string{}
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		switch {
		case len(arg) < 2 || arg[0] != '-':
			f.args = append(f.args, arg)
		case arg == "--":
			f.args = append(f.args, arguments[i+1:]...)
			return nil
		case strings.HasPrefix(arg, "--"):
			if err := f.parseLong(arg[2:], "--", arguments, &i); err != nil {
				return err
			}
		default:
			name, _, _ := strings.Cut(arg[1:], "=")
			if _, ok := f.flags[name]; ok {
				if err := f.parseLong(arg[1:], "-", arguments, &i); err != nil {
					return err
				}
				continue
			}
			if err := f.parseShort(arg, arguments, &i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *FlagSet) parseLong(body, dashes string, arguments []string, i *int) error {
	name, value, hasValue := strings.Cut(body, "=")
	if name == "" {
		return fmt.Errorf("empty flag name")
	}
	flag, ok := f.flags[name]
	if !ok {
		return fmt.Errorf("unknown flag: %s%s", dashes, name)
	}
	if hasValue {
		return flag.Value.Set(value)
	}
	if isBool(flag) {
		return flag.Value.Set("")
	}
	if *i+1 >= len(arguments) {
		return fmt.Errorf("flag needs an argument: %s%s", dashes, name)
	}
	*i++
	return flag.Value.Set(arguments[*i])
}

// parseShort handles "-o out", "-oout" and bare boolean shorthands.
func (f *FlagSet) parseShort(arg string, arguments []string, i *int) error {
	shorthand := arg[1:2]
	flag, ok := f.shorthands[shorthand]
	if !ok {
		return fmt.Errorf("unknown shorthand flag: -%s", shorthand)
	}
	if isBool(flag) {
		return flag.Value.Set("")
	}
	value := arg[2:]
	if value == "" {
		if *i+1 >= len(arguments) {
			return fmt.Errorf("flag needs an argument: -%s", shorthand)
		}
		*i++
		value = arguments[*i]
	}
	return flag.Value.Set(value)
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	Authors     []string
	Repository  string
	Since       int
	FlagSet     *FlagSet
	Action      func(args []string) error
	Stdout      io.Writer
	Stderr      io.Writer
}

func NewApp(name string) *App {
	return &App{
		Name:    name,
		FlagSet: NewFlagSet(name),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Run parses arguments and calls Action with the positional ones. A parse
// error prints the usage page to Stderr and is returned; --help prints the
// full help page to Stdout and skips Action.
func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information")

	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintln(a.Stderr, err)
		a.generateUsagePage(a.Stderr)
		return err
	}
	if help {
		a.generateHelpPage(a.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

// Usage writes the short usage page, as shown after a command line error.
func (a *App) Usage() { a.generateUsagePage(a.Stderr) }

func (a *App) generateUsagePage(w io.Writer) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.Synopsis)

	optionFlags := a.getOptionFlags()
	if len(optionFlags) > 0 {
		maxFlagWidth, maxUsageWidth := 0, 0
		for _, flag := range optionFlags {
			maxFlagWidth = max(maxFlagWidth, len(formatFlagString(flag)))
			maxUsageWidth = max(maxUsageWidth, len(flag.Usage))
		}
		termWidth := getTerminalWidth()
		fmt.Fprintf(&sb, "\n%sOptions\n", indentAt(1))
		for _, flag := range optionFlags {
			formatFlagLine(&sb, flag, termWidth, maxFlagWidth, maxUsageWidth)
		}
	}

	fmt.Fprintf(&sb, "\nRun '%s --help' for all available options and flags.\n", a.Name)
	fmt.Fprint(w, sb.String())
}

func (a *App) generateHelpPage(w io.Writer) {
	var sb strings.Builder
	termWidth := getTerminalWidth()
	optionFlags := a.getOptionFlags()

	leftWidth, usageWidth := 0, 0
	for _, flag := range optionFlags {
		leftWidth = max(leftWidth, len(formatFlagString(flag)))
		usageWidth = max(usageWidth, len(flag.Usage))
	}
	for _, group := range a.FlagSet.flagGroups {
		if len(group.Flags) == 0 {
			continue
		}
		prefix := group.Flags[0].Prefix
		leftWidth = max(leftWidth, len(fmt.Sprintf("-%sno-<%s>", prefix, group.GroupType)))
		for _, entry := range group.Flags {
			leftWidth = max(leftWidth, len(entry.Name))
			usageWidth = max(usageWidth, len(entry.Usage))
		}
	}

	years := strconv.Itoa(time.Now().Year())
	if a.Since != 0 && a.Since < time.Now().Year() {
		years = fmt.Sprintf("%d-%s", a.Since, years)
	}
	fmt.Fprintf(&sb, "\n%sCopyright (c) %s: %s and contributors\n", indentAt(1), years, strings.Join(a.Authors, ", "))
	if a.Repository != "" {
		fmt.Fprintf(&sb, "%sFor more details refer to %s\n", indentAt(1), a.Repository)
	}

	if a.Synopsis != "" {
		synopsis := strings.NewReplacer("[", "<", "]", ">").Replace(a.Synopsis)
		fmt.Fprintf(&sb, "\n%sSynopsis\n%s%s %s\n", indentAt(1), indentAt(2), a.Name, synopsis)
	}
	if a.Description != "" {
		fmt.Fprintf(&sb, "\n%sDescription\n", indentAt(1))
		for _, line := range wrapText(a.Description, termWidth-len(indentAt(2))) {
			fmt.Fprintf(&sb, "%s%s\n", indentAt(2), line)
		}
	}

	if len(optionFlags) > 0 {
		fmt.Fprintf(&sb, "\n%sOptions\n", indentAt(1))
		for _, flag := range optionFlags {
			formatFlagLine(&sb, flag, termWidth, leftWidth, usageWidth)
		}
	}

	groups := append([]FlagGroup(nil), a.FlagSet.flagGroups...)
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	for _, group := range groups {
		formatFlagGroup(&sb, group, termWidth, leftWidth, usageWidth)
	}
	fmt.Fprint(w, sb.String())
}

// getOptionFlags returns the plain flags sorted by name; group members are
// listed under their group instead.
func (a *App) getOptionFlags() []*Flag {
	var optionFlags []*Flag
	for _, flag := range a.FlagSet.flags {
		if !a.isGroupFlag(flag.Name) {
			optionFlags = append(optionFlags, flag)
		}
	}
	sort.Slice(optionFlags, func(i, j int) bool { return optionFlags[i].Name < optionFlags[j].Name })
	return optionFlags
}

func (a *App) isGroupFlag(flagName string) bool {
	for _, group := range a.FlagSet.flagGroups {
		for _, entry := range group.Flags {
			if flagName == entry.Prefix+entry.Name || flagName == entry.Prefix+"no-"+entry.Name {
				return true
			}
		}
	}
	return false
}

func formatFlagString(flag *Flag) string {
	var sb strings.Builder
	if flag.Shorthand != "" {
		fmt.Fprintf(&sb, "-%s", flag.Shorthand)
		if !isBool(flag) {
			fmt.Fprintf(&sb, " <%s>", flag.ExpectedType)
		}
		sb.WriteString(", ")
	}
	fmt.Fprintf(&sb, "--%s", flag.Name)
	if !isBool(flag) && flag.ExpectedType != "" {
		if flag.Shorthand != "" {
			fmt.Fprintf(&sb, " <%s>", flag.ExpectedType)
		} else {
			fmt.Fprintf(&sb, "=%s", flag.ExpectedType)
		}
	}
	return sb.String()
}

// formatEntry writes "left usage |right|", wrapping usage to the terminal
// and aligning continuation lines under the first usage column.
func formatEntry(sb *strings.Builder, termWidth int, leftPart, usagePart, rightPart string, leftWidth, usageWidth int) {
	indentStr := indentAt(2)
	room := max(termWidth-len(indentStr)-leftWidth-1-2-len(rightPart), 10)
	usageLines := wrapText(usagePart, room)

	first := ""
	if len(usageLines) > 0 {
		first = usageLines[0]
	}
	if rightPart != "" {
		fmt.Fprintf(sb, "%s%-*s %-*s  %s\n", indentStr, leftWidth, leftPart, min(usageWidth, room), first, rightPart)
	} else {
		fmt.Fprintf(sb, "%s%-*s %s\n", indentStr, leftWidth, leftPart, first)
	}

	continuation := indentStr + strings.Repeat(" ", leftWidth+1)
	for _, line := range usageLines[min(1, len(usageLines)):] {
		fmt.Fprintf(sb, "%s%s\n", continuation, line)
	}
}

func formatFlagLine(sb *strings.Builder, flag *Flag, termWidth, leftWidth, usageWidth int) {
	rightPart := ""
	if !isBool(flag) && flag.DefValue != "" {
		rightPart = fmt.Sprintf("|%s|", flag.DefValue)
	}
	formatEntry(sb, termWidth, formatFlagString(flag), flag.Usage, rightPart, leftWidth, usageWidth)
}

// formatFlagGroup lists every switch of the group; |x| marks the ones that
// are on by default.
func formatFlagGroup(sb *strings.Builder, group FlagGroup, termWidth, leftWidth, usageWidth int) {
	if len(group.Flags) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s%s\n", indentAt(1), group.Name)

	prefix := group.Flags[0].Prefix
	groupType := group.GroupType
	if groupType == "" {
		groupType = "flag"
	}
	fmt.Fprintf(sb, "%s%-*s Enable a specific %s\n", indentAt(2), leftWidth, fmt.Sprintf("-%s<%s>", prefix, groupType), groupType)
	fmt.Fprintf(sb, "%s%-*s Disable a specific %s\n", indentAt(2), leftWidth, fmt.Sprintf("-%sno-<%s>", prefix, groupType), groupType)
	if group.AvailableFlagsHeader != "" {
		fmt.Fprintf(sb, "%s%s\n", indentAt(1), group.AvailableFlagsHeader)
	}

	entries := append([]FlagGroupEntry(nil), group.Flags...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	for _, entry := range entries {
		rightPart := "|-|"
		if entry.Default {
			rightPart = "|x|"
		}
		formatEntry(sb, termWidth, entry.Name, entry.Usage, rightPart, leftWidth, usageWidth)
	}
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return max(width, 20)
}

// wrapText greedily breaks text on spaces so no line exceeds maxWidth,
// except for single words longer than maxWidth.
func wrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}
	var (
		lines   []string
		current strings.Builder
	)
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+1+len(word) > maxWidth {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
