package codegen

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
)

// Ident maps a table name onto [A-Za-z0-9_]: every other character becomes
// '_' and a leading digit gains a '_' prefix.
func Ident(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	out := sb.String()
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// escapeKeyword appends '_' to identifiers that are reserved words.
func escapeKeyword(id string, keywords map[string]bool) string {
	if keywords[id] {
		return id + "_"
	}
	return id
}

// headerName is the table the program was compiled from, as named in the
// banner of every backend's output.
func headerName(prog *ir.Program) string {
	return prog.Name + ".dtc"
}

func depthDoc(prog *ir.Program, cfg *config.Config) (string, bool) {
	if !prog.HasDepth || prog.Depth == 0 || !cfg.IsFeatureEnabled(config.FeatDepthDoc) {
		return "", false
	}
	return fmt.Sprintf("max depth: %d", prog.Depth), true
}

// domains lists the inputs, then the outputs, in declared order.
func domains(prog *ir.Program) []*ir.Enum {
	return append(append([]*ir.Enum(nil), prog.Inputs...), prog.Outputs...)
}

// checkNames rejects programs whose domains would collapse onto one
// identifier in languages where types and parameters share a namespace.
func checkNames(prog *ir.Program, backend string, mangle func(string) string) error {
	seen := make(map[string]*ir.Enum)
	for _, e := range domains(prog) {
		id := mangle(e.Name)
		if prev, ok := seen[id]; ok {
			if prev.Name == e.Name {
				return fmt.Errorf("%s backend: '%s' is declared as both input and output", backend, e.Name)
			}
			return fmt.Errorf("%s backend: '%s' and '%s' both map to identifier '%s'", backend, prev.Name, e.Name, id)
		}
		seen[id] = e
	}
	return nil
}

// checkMembers rejects programs where two domain values, or a value and a
// name in reserved, map onto one identifier. member returns the identifier
// a value is declared under; per-type namespaces qualify it with the type.
func checkMembers(prog *ir.Program, backend string, reserved map[string]bool, member func(domain, val string) string) error {
	seen := make(map[string]string)
	for _, e := range domains(prog) {
		for _, m := range e.Members {
			id := member(e.Name, m.Name)
			if reserved[id] {
				return fmt.Errorf("%s backend: value '%s' of '%s' maps to identifier '%s', which is already declared", backend, m.Name, e.Name, id)
			}
			if prev, ok := seen[id]; ok {
				return fmt.Errorf("%s backend: values %s and '%s' of '%s' both map to identifier '%s'", backend, prev, m.Name, e.Name, id)
			}
			seen[id] = fmt.Sprintf("'%s' of '%s'", m.Name, e.Name)
		}
	}
	return nil
}

// scope hands out the names declared inside the generated evaluate
// function. A name already taken gains '_' suffixes until it is free.
type scope map[string]bool

func newScope(reserved ...string) scope {
	s := make(scope)
	s.reserve(reserved...)
	return s
}

func (s scope) reserve(names ...string) {
	for _, n := range names {
		s[n] = true
	}
}

func (s scope) fresh(base string) string {
	for s[base] {
		base += "_"
	}
	s[base] = true
	return base
}

// locals names the result slot of every output and the state register, in
// that order, avoiding everything already in s.
func (s scope) locals(prog *ir.Program) (map[string]string, string) {
	out := make(map[string]string, len(prog.Outputs))
	for _, e := range prog.Outputs {
		out[e.Name] = s.fresh("_" + Ident(e.Name))
	}
	return out, s.fresh("_s")
}

// slot returns the local an assignment to name writes. Outputs that were
// never declared get a fresh name on first use.
func (s scope) slot(local map[string]string, name string) string {
	if l, ok := local[name]; ok {
		return l
	}
	l := s.fresh("_" + Ident(name))
	local[name] = l
	return l
}

// lineWriter accumulates generated source one indented line at a time.
type lineWriter struct {
	buf  *bytes.Buffer
	unit string
}

func newLineWriter(unit string) *lineWriter {
	return &lineWriter{buf: new(bytes.Buffer), unit: unit}
}

func (w *lineWriter) line(depth int, format string, args ...interface{}) {
	w.buf.WriteString(strings.Repeat(w.unit, depth))
	fmt.Fprintf(w.buf, format, args...)
	w.buf.WriteByte('\n')
}

func (w *lineWriter) blank() { w.buf.WriteByte('\n') }

// dispatch holds the language-specific renderings of the loop body. walk
// calls them in the order the statements appear in each block.
type dispatch struct {
	guardOpen  func(state int)
	guardClose func(state int)
	test       func(s *ir.Stmt)
	jump       func(s *ir.Stmt)
	ret        func(s *ir.Stmt)
	assign     func(s *ir.Stmt)
}

func walk(prog *ir.Program, d dispatch) {
	for _, b := range prog.Blocks {
		d.guardOpen(b.State)
		for _, s := range b.Stmts {
			switch s.Op {
			case ir.OpTest:
				d.test(s)
			case ir.OpJump:
				d.jump(s)
			case ir.OpReturn:
				d.ret(s)
			case ir.OpAssign:
				d.assign(s)
			}
		}
		if d.guardClose != nil {
			d.guardClose(b.State)
		}
	}
}
