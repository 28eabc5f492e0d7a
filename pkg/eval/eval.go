// Package eval runs a resolved program the way the generated dispatch loop
// does, so tables can be exercised without compiling the emitted source.
package eval

import (
	"errors"
	"fmt"

	"github.com/xplshn/psuc/pkg/ir"
)

// ErrStepLimit is returned when evaluation exceeds the configured number of
// loop iterations.
var ErrStepLimit = errors.New("step limit exceeded")

// UnknownValueError reports an input that is not a value of its domain.
type UnknownValueError struct {
	Var string
	Val string
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("'%s' is not a value of input '%s'", e.Val, e.Var)
}

// StuckError reports a state from which the generated loop never leaves:
// either no block guards it, or its block ends without a transition.
type StuckError struct {
	State  int
	Reason string
}

func (e *StuckError) Error() string {
	return fmt.Sprintf("evaluation stuck in state %d: %s", e.State, e.Reason)
}

// Output is one result slot. Set is false while the slot holds the unset
// sentinel.
type Output struct {
	Name  string
	Value string
	Set   bool
}

func (o Output) String() string {
	if !o.Set {
		return o.Name + "=<unset>"
	}
	return o.Name + "=" + o.Value
}

type Machine struct {
	prog     *ir.Program
	maxSteps int
	trace    func(state int, s *ir.Stmt)
}

type Option func(*Machine)

// WithStepLimit bounds the number of dispatch-loop iterations.
func WithStepLimit(n int) Option { return func(m *Machine) { m.maxSteps = n } }

// WithTrace calls fn before every executed statement.
func WithTrace(fn func(state int, s *ir.Stmt)) Option { return func(m *Machine) { m.trace = fn } }

func New(prog *ir.Program, opts ...Option) *Machine {
	m := &Machine{prog: prog, maxSteps: 1 << 16}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Evaluate takes one value per input domain, in declared order.
func (m *Machine) Evaluate(inputs ...string) ([]Output, error) {
	if len(inputs) != len(m.prog.Inputs) {
		return nil, fmt.Errorf("expected %d input values, got %d", len(m.prog.Inputs), len(inputs))
	}
	byName := make(map[string]string, len(inputs))
	for i, e := range m.prog.Inputs {
		byName[e.Name] = inputs[i]
	}
	return m.EvaluateMap(byName)
}

// EvaluateMap takes input values by domain name; every input must be given.
func (m *Machine) EvaluateMap(inputs map[string]string) ([]Output, error) {
	for _, e := range m.prog.Inputs {
		v, ok := inputs[e.Name]
		if !ok {
			return nil, fmt.Errorf("missing value for input '%s'", e.Name)
		}
		if e.Ordinal(v) == 0 {
			return nil, &UnknownValueError{Var: e.Name, Val: v}
		}
	}
	for name := range inputs {
		if m.prog.Input(name) == nil {
			return nil, fmt.Errorf("'%s' is not an input", name)
		}
	}

	outputs := make([]Output, len(m.prog.Outputs))
	slot := make(map[string]int, len(m.prog.Outputs))
	for i, e := range m.prog.Outputs {
		outputs[i].Name = e.Name
		slot[e.Name] = i
	}

	state := 0
	for step := 0; step < m.maxSteps; step++ {
		b := m.prog.Block(state)
		if b == nil {
			return nil, &StuckError{State: state, Reason: "no block for this state"}
		}
		next, done, err := m.run(b, inputs, outputs, slot)
		if err != nil {
			return nil, err
		}
		if done {
			return outputs, nil
		}
		state = next
	}
	return nil, ErrStepLimit
}

// run executes one guarded block. It returns the next state, or done once a
// return executes.
func (m *Machine) run(b *ir.Block, inputs map[string]string, outputs []Output, slot map[string]int) (next int, done bool, err error) {
	for _, s := range b.Stmts {
		if m.trace != nil {
			m.trace(b.State, s)
		}
		switch s.Op {
		case ir.OpTest:
			if inputs[s.Var] == s.Val {
				return s.Target, false, nil
			}
			if s.HasFallthrough {
				return s.Fallthrough, false, nil
			}
		case ir.OpJump:
			return s.Target, false, nil
		case ir.OpReturn:
			return 0, true, nil
		case ir.OpAssign:
			if i, ok := slot[s.Var]; ok {
				outputs[i].Value, outputs[i].Set = s.Val, true
			}
		}
	}
	return 0, false, &StuckError{State: b.State, Reason: "block ends without a transition"}
}
