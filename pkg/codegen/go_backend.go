package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	gotoken "go/token"
	"strconv"
	"strings"
	"unicode"

	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
)

type goBackend struct{}

// NewGoBackend emits a gofmt'ed Go package with a typed constant block per
// domain and an Evaluate function. Unset outputs are the zero value.
func NewGoBackend() Backend { return &goBackend{} }

func goTypeName(name string) string {
	id := Ident(name)
	r := []rune(id)
	if len(r) > 0 && unicode.IsLower(r[0]) {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}

func goMember(domain, val string) string { return goTypeName(domain) + "_" + Ident(val) }
func goUnset(domain string) string       { return goTypeName(domain) + "Unset" }

func goParam(name string) string {
	id := Ident(name)
	if gotoken.IsKeyword(id) {
		return id + "_"
	}
	return id
}

func goPackageName(prog *ir.Program, cfg *config.Config) string {
	name := cfg.Package
	if name == "" {
		name = strings.ToLower(Ident(prog.Name))
	}
	name = strings.TrimLeft(name, "_")
	if name == "" {
		name = "table"
	}
	if gotoken.IsKeyword(name) {
		name += "_"
	}
	return name
}

// goDecls returns every package-level name the backend declares, failing
// when two table names map onto one of them.
func goDecls(prog *ir.Program) (map[string]bool, error) {
	if err := checkNames(prog, "go", goTypeName); err != nil {
		return nil, err
	}
	decls := map[string]bool{"Evaluate": true}
	for _, e := range domains(prog) {
		for _, id := range []string{goTypeName(e.Name), goUnset(e.Name)} {
			if decls[id] {
				return nil, fmt.Errorf("go backend: '%s' maps to identifier '%s', which is already declared", e.Name, id)
			}
			decls[id] = true
		}
	}
	if err := checkMembers(prog, "go", decls, goMember); err != nil {
		return nil, err
	}
	for _, e := range domains(prog) {
		for _, m := range e.Members {
			decls[goMember(e.Name, m.Name)] = true
		}
	}
	return decls, nil
}

func (b *goBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	decls, err := goDecls(prog)
	if err != nil {
		return nil, err
	}
	w := newLineWriter("\t")

	w.line(0, "// Code generated from %s by psuc. DO NOT EDIT.", headerName(prog))
	w.blank()
	w.line(0, "package %s", goPackageName(prog, cfg))
	w.blank()

	for _, e := range domains(prog) {
		b.genEnum(w, e, cfg)
	}

	sc := newScope()
	for id := range decls {
		sc.reserve(id)
	}
	param := make(map[string]string, len(prog.Inputs))
	params := make([]string, len(prog.Inputs))
	for i, e := range prog.Inputs {
		param[e.Name] = sc.fresh(goParam(e.Name))
		params[i] = param[e.Name] + " " + goTypeName(e.Name)
	}
	local, state := sc.locals(prog)
	resultTypes := make([]string, len(prog.Outputs))
	results := make([]string, len(prog.Outputs))
	for i, e := range prog.Outputs {
		resultTypes[i] = goTypeName(e.Name)
		results[i] = local[e.Name]
	}

	if doc, ok := depthDoc(prog, cfg); ok {
		w.line(0, "// Evaluate runs the %s decision table (%s).", prog.Name, doc)
	} else {
		w.line(0, "// Evaluate runs the %s decision table.", prog.Name)
	}
	sig := "func Evaluate(" + strings.Join(params, ", ") + ")"
	switch len(resultTypes) {
	case 0:
	case 1:
		sig += " " + resultTypes[0]
	default:
		sig += " (" + strings.Join(resultTypes, ", ") + ")"
	}
	w.line(0, "%s {", sig)

	for i, e := range prog.Outputs {
		w.line(1, "%s := %s", results[i], goUnset(e.Name))
	}
	if !prog.HasReturn() {
		for _, r := range results {
			w.line(1, "_ = %s", r)
		}
	}
	w.line(1, "%s := 0", state)
	if len(prog.Blocks) == 0 {
		w.line(1, "_ = %s", state)
	}
	w.line(1, "for {")

	walk(prog, dispatch{
		guardOpen: func(s int) {
			w.line(2, "if %s == %d {", state, s)
		},
		guardClose: func(int) {
			w.line(2, "}")
		},
		test: func(s *ir.Stmt) {
			v, ok := param[s.Var]
			if !ok {
				v = goParam(s.Var)
			}
			w.line(3, "if %s == %s {", v, goMember(s.Var, s.Val))
			w.line(4, "%s = %d", state, s.Target)
			w.line(4, "continue")
			w.line(3, "}")
			if s.HasFallthrough {
				w.line(3, "%s = %d", state, s.Fallthrough)
				w.line(3, "continue")
			}
		},
		jump: func(s *ir.Stmt) {
			w.line(3, "%s = %d", state, s.Target)
			w.line(3, "continue")
		},
		ret: func(s *ir.Stmt) {
			if len(results) == 0 {
				w.line(3, "return")
				return
			}
			w.line(3, "return %s", strings.Join(results, ", "))
		},
		assign: func(s *ir.Stmt) {
			w.line(3, "%s = %s", sc.slot(local, s.Var), goMember(s.Var, s.Val))
		},
	})

	w.line(1, "}")
	w.line(0, "}")

	src, err := format.Source(w.buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("go backend produced invalid source: %w\n%s", err, w.buf.String())
	}
	return bytes.NewBuffer(src), nil
}

func (b *goBackend) genEnum(w *lineWriter, e *ir.Enum, cfg *config.Config) {
	typ := goTypeName(e.Name)
	w.line(0, "// %s enumerates the values of the %q %s.", typ, e.Name, kindName(e.Kind))
	w.line(0, "type %s int", typ)
	w.blank()
	w.line(0, "const (")
	w.line(1, "%s %s = iota", goUnset(e.Name), typ)
	for _, m := range e.Members {
		w.line(1, "%s", goMember(e.Name, m.Name))
	}
	w.line(0, ")")
	w.blank()

	if !cfg.IsFeatureEnabled(config.FeatStringer) {
		return
	}
	w.line(0, "func (v %s) String() string {", typ)
	w.line(1, "switch v {")
	for _, m := range e.Members {
		w.line(1, "case %s:", goMember(e.Name, m.Name))
		w.line(2, "return %s", strconv.Quote(m.Name))
	}
	w.line(1, "}")
	w.line(1, "return \"unset\"")
	w.line(0, "}")
	w.blank()
}

func kindName(k ir.EnumKind) string {
	if k == ir.EnumOutput {
		return "output"
	}
	return "input"
}
