// Package checker reports suspicious but translatable constructs in a
// resolved program. Nothing it finds stops code generation.
package checker

import (
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
	"github.com/xplshn/psuc/pkg/token"
	"github.com/xplshn/psuc/pkg/util"
)

type Checker struct {
	cfg *config.Config
	rep *util.Reporter
}

func NewChecker(cfg *config.Config, rep *util.Reporter) *Checker {
	return &Checker{cfg: cfg, rep: rep}
}

func (c *Checker) Check(prog *ir.Program) {
	c.checkLabels(prog)
	c.checkReferences(prog)
	for _, b := range prog.Blocks {
		c.checkBlock(b)
	}
	c.checkTargets(prog)
	if !prog.HasReturn() && len(prog.Body) > 0 {
		c.rep.Warn(c.cfg, config.WarnExtra, prog.Body[0].Tok, "no 'jump 0' in the program; evaluate can never return")
	}
}

func (c *Checker) checkLabels(prog *ir.Program) {
	first := make(map[int]token.Token)
	for _, s := range prog.Body {
		if s.Op != ir.OpLabel || s.Target == 0 {
			continue
		}
		if prev, ok := first[s.Target]; ok {
			c.rep.Warn(c.cfg, config.WarnExtra, s.Tok, "label %d redefined (first at line %d); its statements join the earlier block", s.Target, prev.Line)
			continue
		}
		first[s.Target] = s.Tok
	}
}

func (c *Checker) checkReferences(prog *ir.Program) {
	for _, s := range prog.Body {
		switch s.Op {
		case ir.OpTest:
			e := prog.Input(s.Var)
			if e == nil {
				c.rep.Warn(c.cfg, config.WarnUndeclared, s.Tok, "test on undeclared input '%s'", s.Var)
			} else if e.Ordinal(s.Val) == 0 {
				c.rep.Warn(c.cfg, config.WarnUndeclared, s.Tok, "'%s' is not a value of input '%s'", s.Val, s.Var)
			}
		case ir.OpAssign:
			e := prog.Output(s.Var)
			if e == nil {
				c.rep.Warn(c.cfg, config.WarnUndeclared, s.Tok, "assignment to undeclared output '%s'", s.Var)
			} else if e.Ordinal(s.Val) == 0 {
				c.rep.Warn(c.cfg, config.WarnUndeclared, s.Tok, "'%s' is not a value of output '%s'", s.Val, s.Var)
			}
		}
	}
}

func (c *Checker) checkBlock(b *ir.Block) {
	for i, s := range b.Stmts {
		if s.Transfers() && i+1 < len(b.Stmts) {
			c.rep.Warn(c.cfg, config.WarnUnreachableCode, b.Stmts[i+1].Tok, "unreachable statement after %s in state %d", s.Op, b.State)
			break
		}
	}
	last := b.Stmts[len(b.Stmts)-1]
	if !last.Transfers() {
		c.rep.Warn(c.cfg, config.WarnFallOff, last.Tok, "state %d ends without a transition; evaluation would loop forever here", b.State)
	}
}

func (c *Checker) checkTargets(prog *ir.Program) {
	reported := make(map[int]bool)
	for _, s := range prog.Body {
		if s.Op != ir.OpTest && s.Op != ir.OpJump {
			continue
		}
		targets := []int{s.Target}
		if s.HasFallthrough {
			targets = append(targets, s.Fallthrough)
		}
		for _, t := range targets {
			if prog.Block(t) == nil && !reported[t] {
				reported[t] = true
				c.rep.Warn(c.cfg, config.WarnEmptyState, s.Tok, "state %d has no statements; evaluation would loop forever there", t)
			}
		}
	}
}
