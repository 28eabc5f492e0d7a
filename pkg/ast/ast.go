// Package ast defines the program built from a pseudocode directive stream:
// variable domains plus the ordered body of control statements.
package ast

import (
	"sort"

	"github.com/xplshn/psuc/pkg/token"
)

// NodeType defines the kind of a body statement
type NodeType int

const (
	Label NodeType = iota
	Test
	Jump
	Assign
)

func (t NodeType) String() string {
	switch t {
	case Label:
		return "label"
	case Test:
		return "test"
	case Jump:
		return "jump"
	case Assign:
		return "assign"
	}
	return "unknown"
}

// Node is one statement of the program body.
type Node struct {
	Type NodeType
	Tok  token.Token
	Data interface{}
}

type LabelNode struct{ ID int }

type TestNode struct {
	Var    string
	Val    string
	Target int
}

// JumpNode with Target 0 returns the current outputs.
type JumpNode struct{ Target int }

type AssignNode struct {
	Var string
	Val string
}

func NewLabel(tok token.Token, id int) *Node {
	return &Node{Type: Label, Tok: tok, Data: LabelNode{ID: id}}
}

func NewTest(tok token.Token, variable, val string, target int) *Node {
	return &Node{Type: Test, Tok: tok, Data: TestNode{Var: variable, Val: val, Target: target}}
}

func NewJump(tok token.Token, target int) *Node {
	return &Node{Type: Jump, Tok: tok, Data: JumpNode{Target: target}}
}

func NewAssign(tok token.Token, variable, val string) *Node {
	return &Node{Type: Assign, Tok: tok, Data: AssignNode{Var: variable, Val: val}}
}

type DomainKind int

const (
	Input DomainKind = iota
	Output
)

func (k DomainKind) String() string {
	if k == Output {
		return "output"
	}
	return "input"
}

// Domain is a named enumerated variable. Values keep insertion order.
type Domain struct {
	Name   string
	Kind   DomainKind
	Values []string
	Tok    token.Token
	seen   map[string]bool
}

func NewDomain(tok token.Token, name string, kind DomainKind) *Domain {
	return &Domain{Name: name, Kind: kind, Tok: tok, seen: make(map[string]bool)}
}

// Add appends val unless already present and reports whether it was new.
func (d *Domain) Add(val string) bool {
	if d.seen == nil {
		d.seen = make(map[string]bool)
		for _, v := range d.Values {
			d.seen[v] = true
		}
	}
	if d.seen[val] {
		return false
	}
	d.seen[val] = true
	d.Values = append(d.Values, val)
	return true
}

func (d *Domain) Has(val string) bool {
	for _, v := range d.Values {
		if v == val {
			return true
		}
	}
	return false
}

// Sorted returns the values in emission order.
func (d *Domain) Sorted() []string {
	vals := append([]string(nil), d.Values...)
	sort.Strings(vals)
	return vals
}

type Program struct {
	Depth    int
	HasDepth bool
	Inputs   []*Domain
	Outputs  []*Domain
	Body     []*Node
}

func (p *Program) Input(name string) *Domain  { return findDomain(p.Inputs, name) }
func (p *Program) Output(name string) *Domain { return findDomain(p.Outputs, name) }

func findDomain(ds []*Domain, name string) *Domain {
	for _, d := range ds {
		if d.Name == name {
			return d
		}
	}
	return nil
}
