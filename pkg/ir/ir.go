package ir

import (
	"fmt"
	"io"
	"strings"

	"github.com/xplshn/psuc/pkg/token"
)

type Op int

const (
	OpLabel Op = iota
	OpTest
	OpJump
	OpReturn
	OpAssign
)

func (op Op) String() string {
	switch op {
	case OpLabel:
		return "label"
	case OpTest:
		return "test"
	case OpJump:
		return "jump"
	case OpReturn:
		return "return"
	case OpAssign:
		return "assign"
	}
	return "unknown"
}

type EnumKind int

const (
	EnumInput EnumKind = iota
	EnumOutput
)

// Member is one enumeration value. Ordinals start at 1; 0 is reserved for
// the unset sentinel.
type Member struct {
	Name    string
	Ordinal int
}

type Enum struct {
	Name    string
	Kind    EnumKind
	Members []Member
}

// Ordinal returns the member's ordinal, or 0 when val is not a member.
func (e *Enum) Ordinal(val string) int {
	for _, m := range e.Members {
		if m.Name == val {
			return m.Ordinal
		}
	}
	return 0
}

// Stmt is a resolved body statement. State is the id of the block the
// statement belongs to. Target holds the label id for OpLabel.
type Stmt struct {
	Op             Op
	Var            string
	Val            string
	Target         int
	Fallthrough    int
	HasFallthrough bool
	State          int
	Tok            token.Token
}

// Transfers reports whether the statement always leaves its block.
func (s *Stmt) Transfers() bool {
	switch s.Op {
	case OpJump, OpReturn:
		return true
	case OpTest:
		return s.HasFallthrough
	}
	return false
}

// Block holds, in source order, the statements whose active state is State.
type Block struct {
	State int
	Stmts []*Stmt
}

type Program struct {
	Name     string
	Depth    int
	HasDepth bool
	Inputs   []*Enum
	Outputs  []*Enum
	Body     []*Stmt
	Blocks   []*Block
	States   map[int]bool
	// Entry is the jump added to state 0 when the body opens with a label;
	// it belongs to no source line of its own.
	Entry    *Stmt
}

func (p *Program) Input(name string) *Enum  { return findEnum(p.Inputs, name) }
func (p *Program) Output(name string) *Enum { return findEnum(p.Outputs, name) }

func findEnum(es []*Enum, name string) *Enum {
	for _, e := range es {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Block returns the block for a state, or nil when the state owns no statements.
func (p *Program) Block(state int) *Block {
	for _, b := range p.Blocks {
		if b.State == state {
			return b
		}
	}
	return nil
}

// HasReturn reports whether any statement returns.
func (p *Program) HasReturn() bool {
	for _, s := range p.Body {
		if s.Op == OpReturn {
			return true
		}
	}
	return false
}

func (s *Stmt) String() string {
	switch s.Op {
	case OpLabel:
		return fmt.Sprintf("label %d", s.Target)
	case OpTest:
		if s.HasFallthrough {
			return fmt.Sprintf("test %s == %s -> %d else -> %d", s.Var, s.Val, s.Target, s.Fallthrough)
		}
		return fmt.Sprintf("test %s == %s -> %d", s.Var, s.Val, s.Target)
	case OpJump:
		return fmt.Sprintf("jump %d", s.Target)
	case OpReturn:
		return "return"
	case OpAssign:
		return fmt.Sprintf("assign %s = %s", s.Var, s.Val)
	}
	return "?"
}

// Dump writes a readable listing of the program, used by --dump-ir.
func (p *Program) Dump(w io.Writer) {
	fmt.Fprintf(w, "program %s", p.Name)
	if p.HasDepth {
		fmt.Fprintf(w, " (depth %d)", p.Depth)
	}
	fmt.Fprintln(w)
	dumpEnums(w, "input", p.Inputs)
	dumpEnums(w, "output", p.Outputs)
	for _, b := range p.Blocks {
		fmt.Fprintf(w, "state %d:\n", b.State)
		for _, s := range b.Stmts {
			fmt.Fprintf(w, "  %-40s ; line %d\n", s.String(), s.Tok.Line)
		}
	}
}

func dumpEnums(w io.Writer, kind string, es []*Enum) {
	for _, e := range es {
		parts := make([]string, len(e.Members))
		for i, m := range e.Members {
			parts[i] = fmt.Sprintf("%s=%d", m.Name, m.Ordinal)
		}
		fmt.Fprintf(w, "%s %s: %s\n", kind, e.Name, strings.Join(parts, " "))
	}
}
