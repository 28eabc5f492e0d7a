package parser

import (
	"github.com/xplshn/psuc/pkg/ast"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/token"
	"github.com/xplshn/psuc/pkg/util"
)

// Parser folds a directive stream into an ast.Program. One Parser serves one
// translation; it owns every domain and body slice it builds.
type Parser struct {
	tokens   []token.Token
	pos      int
	current  token.Token
	previous token.Token
	cfg      *config.Config
	rep      *util.Reporter
	prog     *ast.Program
	inputs   map[string]*ast.Domain
	outputs  map[string]*ast.Domain
	depthTok token.Token
}

// NewParser creates and initializes a new Parser from a token stream
func NewParser(tokens []token.Token, cfg *config.Config, rep *util.Reporter) *Parser {
	p := &Parser{
		tokens:  tokens,
		cfg:     cfg,
		rep:     rep,
		prog:    &ast.Program{},
		inputs:  make(map[string]*ast.Domain),
		outputs: make(map[string]*ast.Domain),
	}
	if len(tokens) > 0 {
		p.current = p.tokens[0]
	}
	return p
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens) {
		p.previous = p.current
		p.pos++
		if p.pos < len(p.tokens) {
			p.current = p.tokens[p.pos]
		}
	}
}

func (p *Parser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.current.Type == token.EOF
}

// Parse consumes every token and returns the built program.
func (p *Parser) Parse() *ast.Program {
	for !p.isAtEnd() {
		p.advance()
		p.directive(p.previous)
	}
	return p.prog
}

func (p *Parser) directive(tok token.Token) {
	switch tok.Type {
	case token.InputDecl:
		p.declare(tok, ast.Input)
	case token.OutputDecl:
		p.declare(tok, ast.Output)
	case token.Depth:
		if p.prog.HasDepth && p.prog.Depth != tok.Num {
			p.rep.Warn(p.cfg, config.WarnDepth, tok, "depth redefined from %d to %d (line %d)", p.prog.Depth, tok.Num, p.depthTok.Line)
		}
		p.prog.Depth, p.prog.HasDepth, p.depthTok = tok.Num, true, tok
	case token.Label:
		p.prog.Body = append(p.prog.Body, ast.NewLabel(tok, tok.Num))
	case token.Test:
		p.prog.Body = append(p.prog.Body, ast.NewTest(tok, tok.Var, tok.Val, tok.Num))
	case token.Jump:
		p.prog.Body = append(p.prog.Body, ast.NewJump(tok, tok.Num))
	case token.Assign:
		p.prog.Body = append(p.prog.Body, ast.NewAssign(tok, tok.Var, tok.Val))
	}
}

// declare records a domain value. The first declaration of a name fixes its
// position; later ones only add values.
func (p *Parser) declare(tok token.Token, kind ast.DomainKind) {
	table, other := p.inputs, p.outputs
	if kind == ast.Output {
		table, other = p.outputs, p.inputs
	}

	d, ok := table[tok.Var]
	if !ok {
		d = ast.NewDomain(tok, tok.Var, kind)
		table[tok.Var] = d
		if kind == ast.Input {
			p.prog.Inputs = append(p.prog.Inputs, d)
		} else {
			p.prog.Outputs = append(p.prog.Outputs, d)
		}
		if prev, clash := other[tok.Var]; clash {
			p.rep.Warn(p.cfg, config.WarnExtra, tok, "'%s' is declared as both %s and %s (first at line %d)", tok.Var, prev.Kind, kind, prev.Tok.Line)
		}
	}
	d.Add(tok.Val)
}
