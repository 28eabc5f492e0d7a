package codegen

import (
	"bytes"
	"strings"

	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
)

// pythonReserved holds the keywords plus the module-level names every
// generated module defines.
var pythonReserved = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
	"IntEnum": true, "auto": true, "evaluate": true,
}

func pyName(name string) string { return escapeKeyword(Ident(name), pythonReserved) }

type pythonBackend struct{}

// NewPythonBackend emits a Python module with one IntEnum per domain and an
// evaluate function. Unset outputs are None.
func NewPythonBackend() Backend { return &pythonBackend{} }

func (b *pythonBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	if err := checkNames(prog, "python", pyName); err != nil {
		return nil, err
	}
	if err := checkMembers(prog, "python", nil, func(domain, val string) string {
		return pyName(domain) + "." + pyName(val)
	}); err != nil {
		return nil, err
	}
	w := newLineWriter("  ")

	w.line(0, `"""Generated from %s - do not edit"""`, headerName(prog))
	w.blank()
	w.line(0, "from enum import IntEnum, auto")
	w.blank()

	sc := newScope()
	for _, e := range domains(prog) {
		w.line(0, "class %s(IntEnum):", pyName(e.Name))
		for _, m := range e.Members {
			w.line(1, "%s = auto()", pyName(m.Name))
		}
		w.blank()
		sc.reserve(pyName(e.Name))
	}

	// Input parameters share their class's name; tests reach members
	// through the value.
	params := make([]string, len(prog.Inputs))
	for i, e := range prog.Inputs {
		params[i] = pyName(e.Name)
	}
	w.line(0, "def evaluate(%s):", strings.Join(params, ", "))

	var notes []string
	if doc, ok := depthDoc(prog, cfg); ok {
		notes = append(notes, doc)
	}
	if len(prog.Outputs) == 1 {
		notes = append(notes, "returns a single "+pyName(prog.Outputs[0].Name)+" value, not a tuple")
	}
	if len(notes) > 0 {
		w.line(1, `"""Evaluate decision table (%s)"""`, strings.Join(notes, "; "))
	}

	local, state := sc.locals(prog)
	results := make([]string, len(prog.Outputs))
	for i, e := range prog.Outputs {
		results[i] = local[e.Name]
		w.line(1, "%s = None", results[i])
	}
	w.line(1, "%s = 0", state)
	w.line(1, "while True:")
	if len(prog.Blocks) == 0 {
		w.line(2, "pass")
	}

	walk(prog, dispatch{
		guardOpen: func(s int) {
			w.line(2, "if %s == %d:", state, s)
		},
		test: func(s *ir.Stmt) {
			v := pyName(s.Var)
			w.line(3, "if %s == %s.%s:", v, v, pyName(s.Val))
			w.line(4, "%s = %d", state, s.Target)
			w.line(4, "continue")
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
			w.line(3, "return (%s)", strings.Join(results, ", "))
		},
		assign: func(s *ir.Stmt) {
			w.line(3, "%s = %s.%s", sc.slot(local, s.Var), pyName(s.Var), pyName(s.Val))
		},
	})

	w.blank()
	return w.buf, nil
}
