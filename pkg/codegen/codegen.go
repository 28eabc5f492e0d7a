package codegen

import (
	"github.com/xplshn/psuc/pkg/ast"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
	"github.com/xplshn/psuc/pkg/util"
)

// Context resolves an ast.Program into the IR consumed by the backends:
// enumerations with ordinals, per-statement active states, per-test
// fallthrough targets and the state blocks of the dispatch loop.
type Context struct {
	prog *ir.Program
	cfg  *config.Config
}

func NewContext(cfg *config.Config, name string) *Context {
	return &Context{
		prog: &ir.Program{Name: name, States: map[int]bool{0: true}},
		cfg:  cfg,
	}
}

func (ctx *Context) GenerateIR(root *ast.Program) (*ir.Program, error) {
	p := ctx.prog
	p.Depth, p.HasDepth = root.Depth, root.HasDepth

	for _, d := range root.Inputs {
		p.Inputs = append(p.Inputs, enumFromDomain(d, ir.EnumInput))
	}
	for _, d := range root.Outputs {
		p.Outputs = append(p.Outputs, enumFromDomain(d, ir.EnumOutput))
	}

	for _, n := range root.Body {
		if n.Type == ast.Label {
			if id := n.Data.(ast.LabelNode).ID; id != 0 {
				p.States[id] = true
			}
		}
	}

	next := nextLabels(root.Body)
	opened := make(map[int]*ir.Stmt)
	state := 0
	for i, n := range root.Body {
		s := &ir.Stmt{State: state, Tok: n.Tok}
		switch d := n.Data.(type) {
		case ast.LabelNode:
			s.Op, s.Target = ir.OpLabel, d.ID
			if d.ID != 0 {
				state = d.ID
				if opened[d.ID] == nil {
					opened[d.ID] = s
				}
			}
		case ast.TestNode:
			s.Op, s.Var, s.Val, s.Target = ir.OpTest, d.Var, d.Val, d.Target
			if next[i] != 0 {
				s.Fallthrough, s.HasFallthrough = next[i], true
			}
		case ast.JumpNode:
			s.Op, s.Target = ir.OpJump, d.Target
			if d.Target == 0 {
				s.Op = ir.OpReturn
			}
		case ast.AssignNode:
			s.Op, s.Var, s.Val = ir.OpAssign, d.Var, d.Val
		}

		if (s.Op == ir.OpTest || s.Op == ir.OpJump) && !p.States[s.Target] {
			return nil, &util.UnreachableTargetError{Tok: s.Tok, Target: s.Target}
		}

		p.Body = append(p.Body, s)
		if s.Op != ir.OpLabel {
			ctx.addToBlock(s)
		}
	}

	// The register starts at 0. A body that opens with a label owns no
	// statements in state 0, so enter its first block explicitly.
	if len(p.Blocks) > 0 && p.Block(0) == nil {
		first := p.Blocks[0].State
		entry := &ir.Stmt{Op: ir.OpJump, Target: first, State: 0, Tok: opened[first].Tok}
		p.Entry = entry
		p.Blocks = append([]*ir.Block{{State: 0, Stmts: []*ir.Stmt{entry}}}, p.Blocks...)
	}
	return p, nil
}

func (ctx *Context) addToBlock(s *ir.Stmt) {
	if b := ctx.prog.Block(s.State); b != nil {
		b.Stmts = append(b.Stmts, s)
		return
	}
	ctx.prog.Blocks = append(ctx.prog.Blocks, &ir.Block{State: s.State, Stmts: []*ir.Stmt{s}})
}

// nextLabels returns, for every body position, the id of the first non-zero
// label in the run of labels directly after it, or 0 when there is none.
// Label(0) never qualifies and never stops the scan; any other statement does.
func nextLabels(body []*ast.Node) []int {
	next := make([]int, len(body))
	found := 0
	for i := len(body) - 1; i >= 0; i-- {
		next[i] = found
		if body[i].Type != ast.Label {
			found = 0
		} else if id := body[i].Data.(ast.LabelNode).ID; id != 0 {
			found = id
		}
	}
	return next
}

func enumFromDomain(d *ast.Domain, kind ir.EnumKind) *ir.Enum {
	e := &ir.Enum{Name: d.Name, Kind: kind}
	for i, v := range d.Sorted() {
		e.Members = append(e.Members, ir.Member{Name: v, Ordinal: i + 1})
	}
	return e
}
