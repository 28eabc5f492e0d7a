package lexer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/token"
	"github.com/xplshn/psuc/pkg/util"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, err := NewLexer([]rune(src), 0, config.NewConfig(), nil).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	return toks
}

func TestGrammarsAgree(t *testing.T) {
	comma := strings.Join([]string{
		"I,mode,on",
		"O,lamp,off",
		"D,3",
		"L,1",
		"T,mode,on,2",
		"R,lamp,off",
		"J,0",
	}, "\n")
	symbol := strings.Join([]string{
		"# E mode on",
		"# R lamp off",
		"# D 3",
		"< 1",
		": mode on > 2",
		"= lamp off",
		"> 0",
	}, "\n")

	ignore := cmpopts.IgnoreFields(token.Token{}, "Syntax", "Text", "Len")
	if diff := cmp.Diff(tokenize(t, comma), tokenize(t, symbol), ignore); diff != "" {
		t.Errorf("comma and symbol streams differ (-comma +symbol):\n%s", diff)
	}
}

func TestDirectiveFields(t *testing.T) {
	toks := tokenize(t, "I,mode,on\nT,mode,on,12\nR,lamp,off\nL,0\n")
	want := []token.Token{
		{Type: token.InputDecl, Var: "mode", Val: "on", Line: 1},
		{Type: token.Test, Var: "mode", Val: "on", Num: 12, Line: 2},
		{Type: token.Assign, Var: "lamp", Val: "off", Line: 3},
		{Type: token.Label, Num: 0, Line: 4},
		{Type: token.EOF, Line: 5},
	}
	ignore := cmpopts.IgnoreFields(token.Token{}, "Syntax", "Text", "Len", "Column")
	if diff := cmp.Diff(want, toks, ignore); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestSkipsBlankAndUnrecognized(t *testing.T) {
	src := "\n   \nX,1,2\nhello world\n#\n# Q a b\n? 3\nL,4\r\n"
	toks := tokenize(t, src)
	if len(toks) != 2 {
		t.Fatalf("got %d tokens, want label and EOF: %+v", len(toks), toks)
	}
	if toks[0].Type != token.Label || toks[0].Num != 4 || toks[0].Line != 8 {
		t.Errorf("got %+v, want label 4 on line 8", toks[0])
	}
	if toks[0].Text != "L,4" {
		t.Errorf("trailing CR not trimmed: %q", toks[0].Text)
	}
}

func TestQuotedFields(t *testing.T) {
	toks := tokenize(t, `I,"door, front","wide open"`)
	if toks[0].Var != "door, front" || toks[0].Val != "wide open" {
		t.Errorf("got var %q val %q", toks[0].Var, toks[0].Val)
	}
}

func TestExtraFieldsIgnored(t *testing.T) {
	toks := tokenize(t, "J,3,trailing\n> 4 more")
	if toks[0].Num != 3 || toks[1].Num != 4 {
		t.Errorf("got targets %d and %d, want 3 and 4", toks[0].Num, toks[1].Num)
	}
}

func TestMalformedDirectives(t *testing.T) {
	cases := []struct {
		name string
		src  string
		typ  token.Type
		line int
		msg  string
	}{
		{"test without target", "L,1\nT,mode,on", token.Test, 2, "expected 4 fields, got 3"},
		{"input without value", "I,mode", token.InputDecl, 1, "expected 3 fields, got 2"},
		{"bare label", "\n\nL", token.Label, 3, "expected 2 fields, got 1"},
		{"symbol test without arrow", ": mode on 2 3", token.Test, 1, "expected '>' before the target"},
		{"symbol test too short", ": mode on >", token.Test, 1, "expected 5 fields, got 4"},
		{"symbol decl too short", "# E mode", token.InputDecl, 1, "expected 4 fields, got 3"},
		{"non-numeric jump", "J,next", token.Jump, 1, `"next" is not a non-negative integer`},
		{"negative label", "< -2", token.Label, 1, `"-2" is not a non-negative integer`},
		{"empty value", "R,lamp,", token.Assign, 1, "empty value name"},
		{"empty variable", "O,,on", token.OutputDecl, 1, "empty variable name"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewLexer([]rune(c.src), 0, config.NewConfig(), nil).Tokenize()
			var mde *util.MalformedDirectiveError
			if !errors.As(err, &mde) {
				t.Fatalf("got %v, want MalformedDirectiveError", err)
			}
			if mde.Tok.Type != c.typ || mde.Tok.Line != c.line {
				t.Errorf("error at %s line %d, want %s line %d", mde.Tok.Type, mde.Tok.Line, c.typ, c.line)
			}
			if !strings.Contains(mde.Error(), c.msg) {
				t.Errorf("message %q does not contain %q", mde.Error(), c.msg)
			}
		})
	}
}

func TestFeatureSwitches(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetFeature(config.FeatComma, false)
	toks, err := NewLexer([]rune("L,1\n< 2"), 0, cfg, nil).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 2 || toks[0].Num != 2 {
		t.Errorf("comma line not skipped: %+v", toks)
	}
}

func TestMixedSyntaxWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	rep := &util.Reporter{W: &buf, Files: []util.SourceFileRecord{{Name: "t.psu"}}}
	src := "L,1\n< 2\n> 0\nJ,0"
	if _, err := NewLexer([]rune(src), 0, config.NewConfig(), rep).Tokenize(); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "[-Wmixed-syntax]"); n != 1 {
		t.Errorf("got %d mixed-syntax warnings, want 1:\n%s", n, buf.String())
	}
	if !strings.HasPrefix(buf.String(), "t.psu:2:1: warning:") {
		t.Errorf("unexpected warning position:\n%s", buf.String())
	}
}
