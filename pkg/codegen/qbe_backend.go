package codegen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
)

type qbeBackend struct {
	ilOnly     bool
	out        *strings.Builder
	prog       *ir.Program
	count      int
	terminated bool
	err        error
}

// NewQBEBackend emits QBE IL for <prefix>Evaluate, callable with the same
// signature as the C backend's function. Unless ilOnly is set the IL is
// assembled for cfg.BackendTarget.
func NewQBEBackend(ilOnly bool) Backend { return &qbeBackend{ilOnly: ilOnly} }

func (b *qbeBackend) Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error) {
	il, err := b.GenerateIR(prog, cfg)
	if err != nil {
		return nil, err
	}
	if b.ilOnly {
		return bytes.NewBufferString(il), nil
	}
	return b.assemble(il, cfg)
}

// GenerateIR returns the QBE IL text.
func (b *qbeBackend) GenerateIR(prog *ir.Program, cfg *config.Config) (string, error) {
	if err := checkNames(prog, "qbe", Ident); err != nil {
		return "", err
	}
	var sb strings.Builder
	b.out, b.prog, b.count, b.terminated, b.err = &sb, prog, 0, false, nil

	fmt.Fprintf(b.out, "# Generated from %s - do not edit\n", headerName(prog))
	for _, e := range domains(prog) {
		parts := make([]string, len(e.Members))
		for i, m := range e.Members {
			parts[i] = fmt.Sprintf("%s=%d", m.Name, m.Ordinal)
		}
		fmt.Fprintf(b.out, "# %s %s: %s\n", kindName(e.Kind), e.Name, strings.Join(parts, " "))
	}
	if doc, ok := depthDoc(prog, cfg); ok {
		fmt.Fprintf(b.out, "# %s\n", doc)
	}

	var params []string
	for _, e := range prog.Inputs {
		params = append(params, "w %i."+Ident(e.Name))
	}
	for _, e := range prog.Outputs {
		params = append(params, "l %p."+Ident(e.Name))
	}
	fmt.Fprintf(b.out, "export function $%sEvaluate(%s) {\n", cPrefix(prog, cfg), strings.Join(params, ", "))
	b.label("start")
	b.ins("%%s.slot =l alloc4 4")
	b.ins("storew 0, %%s.slot")
	for _, e := range prog.Outputs {
		b.ins("%%o.%s =l alloc4 4", Ident(e.Name))
		b.ins("storew 0, %%o.%s", Ident(e.Name))
	}
	b.label("loop")
	b.ins("%%s =w loadw %%s.slot")
	b.jmp(b.guardLabel(0))

	for i, blk := range prog.Blocks {
		b.label(b.guardLabel(i))
		b.ins("%%g.%d =w ceqw %%s, %d", i, blk.State)
		b.ins("jnz %%g.%d, @body.%d, @%s", i, i, b.guardLabel(i+1))
		b.terminated = true
		b.label(fmt.Sprintf("body.%d", i))
		for _, s := range blk.Stmts {
			b.stmt(s)
		}
		if !b.terminated {
			b.jmp("loop")
		}
	}

	// No guard matched: spin, as the other backends' loops do.
	b.label(b.guardLabel(len(prog.Blocks)))
	b.jmp("loop")
	b.out.WriteString("}\n")

	if b.err != nil {
		return "", b.err
	}
	return sb.String(), nil
}

func (b *qbeBackend) guardLabel(i int) string {
	if i >= len(b.prog.Blocks) {
		return "nomatch"
	}
	return fmt.Sprintf("guard.%d", i)
}

func (b *qbeBackend) label(name string) {
	fmt.Fprintf(b.out, "@%s\n", name)
	b.terminated = false
}

func (b *qbeBackend) ins(format string, args ...interface{}) {
	if b.terminated {
		b.count++
		b.label(fmt.Sprintf("dead.%d", b.count))
	}
	b.out.WriteString("\t")
	fmt.Fprintf(b.out, format, args...)
	b.out.WriteString("\n")
}

func (b *qbeBackend) jmp(target string) {
	b.ins("jmp @%s", target)
	b.terminated = true
}

func (b *qbeBackend) setState(n int) {
	b.ins("storew %d, %%s.slot", n)
	b.jmp("loop")
}

func (b *qbeBackend) stmt(s *ir.Stmt) {
	switch s.Op {
	case ir.OpTest:
		e := b.prog.Input(s.Var)
		if e == nil || e.Ordinal(s.Val) == 0 {
			b.fail(s, "test on undeclared input %s.%s", s.Var, s.Val)
			return
		}
		b.count++
		n := b.count
		b.ins("%%t.%d =w ceqw %%i.%s, %d", n, Ident(s.Var), e.Ordinal(s.Val))
		b.ins("jnz %%t.%d, @hit.%d, @miss.%d", n, n, n)
		b.terminated = true
		b.label(fmt.Sprintf("hit.%d", n))
		b.setState(s.Target)
		b.label(fmt.Sprintf("miss.%d", n))
		if s.HasFallthrough {
			b.setState(s.Fallthrough)
		}
	case ir.OpJump:
		b.setState(s.Target)
	case ir.OpReturn:
		b.count++
		for _, e := range b.prog.Outputs {
			id := Ident(e.Name)
			b.ins("%%r.%d.%s =w loadw %%o.%s", b.count, id, id)
			b.ins("storew %%r.%d.%s, %%p.%s", b.count, id, id)
		}
		b.ins("ret")
		b.terminated = true
	case ir.OpAssign:
		e := b.prog.Output(s.Var)
		if e == nil || e.Ordinal(s.Val) == 0 {
			b.fail(s, "assignment to undeclared output %s.%s", s.Var, s.Val)
			return
		}
		b.ins("storew %d, %%o.%s", e.Ordinal(s.Val), Ident(s.Var))
	}
}

func (b *qbeBackend) fail(s *ir.Stmt, format string, args ...interface{}) {
	if b.err == nil {
		b.err = fmt.Errorf("qbe backend: line %d: %s", s.Tok.Line, fmt.Sprintf(format, args...))
	}
}
