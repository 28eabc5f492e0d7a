package codegen

import (
	"bytes"
	"strings"

	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
)

var cKeywords = map[string]bool{
	"auto": true, "break": true, "case": true, "char": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extern": true, "float": true, "for": true, "goto": true,
	"if": true, "inline": true, "int": true, "long": true, "register": true,
	"restrict": true, "return": true, "short": true, "signed": true, "sizeof": true,
	"static": true, "struct": true, "switch": true, "typedef": true, "union": true,
	"unsigned": true, "void": true, "volatile": true, "while": true, "bool": true,
	"true": true, "false": true,
}

type cBackend struct{}

// NewCBackend emits a self-contained header: one enum per domain and a static
// <prefix>Evaluate function writing its results through pointers.
func NewCBackend() Backend { return &cBackend{} }

// cPrefix namespaces every generated identifier, "power" for power.psu.
func cPrefix(prog *ir.Program, cfg *config.Config) string {
	if cfg.Prefix != "" {
		return Ident(cfg.Prefix)
	}
	return Ident(prog.Name)
}

func (b *cBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	cName := func(name string) string { return escapeKeyword(Ident(name), cKeywords) }
	if err := checkNames(prog, "c", cName); err != nil {
		return nil, err
	}

	prefix := cPrefix(prog, cfg)
	enumType := func(name string) string { return "enum " + prefix + "_" + Ident(name) + "_e" }
	member := func(name, val string) string { return prefix + "_" + Ident(name) + "_" + Ident(val) }
	unset := func(name string) string { return prefix + "_" + Ident(name) + "__" }
	guard := strings.ToUpper(prefix) + "_H"

	decls := map[string]bool{prefix + "Evaluate": true}
	for _, e := range domains(prog) {
		decls[unset(e.Name)] = true
	}
	if err := checkMembers(prog, "c", decls, member); err != nil {
		return nil, err
	}

	sc := newScope()
	for id := range decls {
		sc.reserve(id)
	}
	for _, e := range domains(prog) {
		for _, m := range e.Members {
			sc.reserve(member(e.Name, m.Name))
		}
	}
	param := make(map[string]string, len(prog.Inputs)+len(prog.Outputs))
	for _, e := range domains(prog) {
		param[e.Name] = sc.fresh(cName(e.Name))
	}
	local, state := sc.locals(prog)
	arg := func(name string) string {
		if p, ok := param[name]; ok {
			return p
		}
		return cName(name)
	}

	w := newLineWriter("  ")
	w.line(0, "/* Generated from %s - do not edit */", headerName(prog))
	w.line(0, "#ifndef %s", guard)
	w.line(0, "#define %s", guard)
	w.blank()

	for _, e := range domains(prog) {
		w.line(0, "%s {", enumType(e.Name))
		w.line(1, "%s = 0,", unset(e.Name))
		for i, m := range e.Members {
			sep := ","
			if i == len(e.Members)-1 {
				sep = ""
			}
			w.line(1, "%s%s", member(e.Name, m.Name), sep)
		}
		w.line(0, "};")
		w.blank()
	}

	if doc, ok := depthDoc(prog, cfg); ok {
		w.line(0, "/* Evaluate decision table (%s) */", doc)
	}
	w.line(0, "static void")
	w.line(0, "%sEvaluate(", prefix)
	var params []string
	for _, e := range prog.Inputs {
		params = append(params, enumType(e.Name)+" "+param[e.Name])
	}
	for _, e := range prog.Outputs {
		params = append(params, enumType(e.Name)+" *"+param[e.Name])
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	for i, p := range params {
		sep := ","
		if i == len(params)-1 {
			sep = ""
		}
		w.line(1, "%s%s", p, sep)
	}
	w.line(0, "){")

	for _, e := range prog.Outputs {
		w.line(1, "%s %s = %s;", enumType(e.Name), local[e.Name], unset(e.Name))
	}
	w.line(1, "unsigned int %s = 0;", state)
	w.blank()
	w.line(1, "for (;;) {")

	walk(prog, dispatch{
		guardOpen: func(s int) {
			w.line(2, "if (%s == %d) {", state, s)
		},
		guardClose: func(int) {
			w.line(2, "}")
		},
		test: func(s *ir.Stmt) {
			w.line(3, "if (%s == %s) {", arg(s.Var), member(s.Var, s.Val))
			w.line(4, "%s = %d;", state, s.Target)
			w.line(4, "continue;")
			w.line(3, "}")
			if s.HasFallthrough {
				w.line(3, "%s = %d;", state, s.Fallthrough)
				w.line(3, "continue;")
			}
		},
		jump: func(s *ir.Stmt) {
			w.line(3, "%s = %d;", state, s.Target)
			w.line(3, "continue;")
		},
		ret: func(s *ir.Stmt) {
			for _, e := range prog.Outputs {
				w.line(3, "*%s = %s;", param[e.Name], local[e.Name])
			}
			w.line(3, "return;")
		},
		assign: func(s *ir.Stmt) {
			w.line(3, "%s = %s;", sc.slot(local, s.Var), member(s.Var, s.Val))
		},
	})

	w.line(1, "}")
	w.line(0, "}")
	w.blank()
	w.line(0, "#endif")
	return w.buf, nil
}
