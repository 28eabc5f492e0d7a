package lexer

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/token"
	"github.com/xplshn/psuc/pkg/util"
)

// Lexer turns pseudocode lines into directives. Each line is read in comma
// form or symbol form depending on its first character; blank and
// unrecognized lines are skipped.
type Lexer struct {
	lines     []string
	fileIndex int
	line      int
	cfg       *config.Config
	rep       *util.Reporter
	syntax    token.Syntax
	mixed     bool
}

func NewLexer(source []rune, fileIndex int, cfg *config.Config, rep *util.Reporter) *Lexer {
	return &Lexer{
		lines:     strings.Split(string(source), "\n"),
		fileIndex: fileIndex,
		cfg:       cfg,
		rep:       rep,
	}
}

// Next returns the next directive, or a token of type EOF once the source is
// exhausted.
func (l *Lexer) Next() (token.Token, error) {
	for l.line < len(l.lines) {
		raw := l.lines[l.line]
		l.line++

		tok, err := l.lexLine(raw, l.line)
		if err != nil {
			return tok, err
		}
		if tok.Type == token.Unrecognized {
			if tok.Text != "" {
				l.rep.Warn(l.cfg, config.WarnUnrecognized, tok, "skipping unrecognized line")
			}
			continue
		}

		if l.syntax == token.NoSyntax {
			l.syntax = tok.Syntax
		} else if tok.Syntax != l.syntax && !l.mixed {
			l.mixed = true
			l.rep.Warn(l.cfg, config.WarnMixedSyntax, tok, "%s-form directive in a file that started in %s form", tok.Syntax, l.syntax)
		}
		return tok, nil
	}
	return token.Token{Type: token.EOF, FileIndex: l.fileIndex, Line: len(l.lines)}, nil
}

// Tokenize reads the whole source. The returned slice ends with an EOF token.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) lexLine(raw string, lineNo int) (token.Token, error) {
	text := strings.TrimRight(raw, " \t\r")
	tok := token.Token{
		Type:      token.Unrecognized,
		Text:      text,
		FileIndex: l.fileIndex,
		Line:      lineNo,
		Column:    1,
		Len:       utf8.RuneCountInString(text),
	}
	if text == "" {
		return tok, nil
	}

	switch text[0] {
	case '#', '<', '>', ':', '=':
		if !l.cfg.IsFeatureEnabled(config.FeatSymbol) {
			return tok, nil
		}
		return lexSymbol(tok)
	default:
		if !l.cfg.IsFeatureEnabled(config.FeatComma) {
			return tok, nil
		}
		return lexComma(tok)
	}
}

func lexComma(tok token.Token) (token.Token, error) {
	tok.Syntax = token.Comma

	r := csv.NewReader(strings.NewReader(tok.Text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	fields, err := r.Read()
	if err != nil {
		cmd, _, _ := strings.Cut(tok.Text, ",")
		typ, known := token.CommaCommands[cmd]
		if !known {
			return tok, nil
		}
		tok.Type = typ
		return tok, &util.MalformedDirectiveError{Tok: tok, Reason: err.Error()}
	}

	typ, ok := token.CommaCommands[fields[0]]
	if !ok {
		return tok, nil
	}
	tok.Type = typ

	want := 1 + arity(typ)
	if len(fields) < want {
		return tok, &util.MalformedDirectiveError{Tok: tok, Want: want, Got: len(fields)}
	}
	return fill(tok, fields[1:])
}

func lexSymbol(tok token.Token) (token.Token, error) {
	tok.Syntax = token.Symbol
	fields := strings.Fields(tok.Text)

	if fields[0] == "#" {
		if len(fields) < 2 {
			return tok, nil
		}
		typ, ok := token.SymbolDecls[fields[1]]
		if !ok {
			return tok, nil
		}
		tok.Type = typ
		want := 2 + arity(typ)
		if len(fields) < want {
			return tok, &util.MalformedDirectiveError{Tok: tok, Want: want, Got: len(fields)}
		}
		return fill(tok, fields[2:])
	}

	typ, ok := token.SymbolCommands[fields[0]]
	if !ok {
		return tok, nil
	}
	tok.Type = typ

	if typ == token.Test {
		// : var val > target
		if len(fields) < 5 {
			return tok, &util.MalformedDirectiveError{Tok: tok, Want: 5, Got: len(fields)}
		}
		if fields[3] != ">" {
			return tok, &util.MalformedDirectiveError{Tok: tok, Reason: fmt.Sprintf("expected '>' before the target, found %q", fields[3])}
		}
		return fill(tok, []string{fields[1], fields[2], fields[4]})
	}

	want := 1 + arity(typ)
	if len(fields) < want {
		return tok, &util.MalformedDirectiveError{Tok: tok, Want: want, Got: len(fields)}
	}
	return fill(tok, fields[1:])
}

// arity is the number of operands a directive takes, not counting its command.
func arity(typ token.Type) int {
	switch typ {
	case token.Depth, token.Label, token.Jump:
		return 1
	case token.Test:
		return 3
	default:
		return 2
	}
}

func fill(tok token.Token, args []string) (token.Token, error) {
	var err error
	switch tok.Type {
	case token.Depth, token.Label, token.Jump:
		tok.Num, err = number(tok, args[0])
		return tok, err
	case token.Test:
		tok.Var, tok.Val = args[0], args[1]
		if tok.Num, err = number(tok, args[2]); err != nil {
			return tok, err
		}
	default:
		tok.Var, tok.Val = args[0], args[1]
	}

	if tok.Var == "" {
		return tok, &util.MalformedDirectiveError{Tok: tok, Reason: "empty variable name"}
	}
	if tok.Val == "" {
		return tok, &util.MalformedDirectiveError{Tok: tok, Reason: "empty value name"}
	}
	return tok, nil
}

func number(tok token.Token, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, &util.MalformedDirectiveError{Tok: tok, Reason: fmt.Sprintf("%q is not a non-negative integer", s)}
	}
	return n, nil
}
