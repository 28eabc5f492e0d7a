package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
	"github.com/xplshn/psuc/pkg/lexer"
	"github.com/xplshn/psuc/pkg/parser"
	"github.com/xplshn/psuc/pkg/util"
)

const lampSource = `I,mode,on
I,mode,off
O,lamp,on
O,lamp,off
L,1
T,mode,on,2
R,lamp,off
J,0
L,2
R,lamp,on
J,0
`

func resolve(t *testing.T, name, src string) (*ir.Program, error) {
	t.Helper()
	cfg := config.NewConfig()
	toks, err := lexer.NewLexer([]rune(src), 0, cfg, nil).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	root := parser.NewParser(toks, cfg, nil).Parse()
	return NewContext(cfg, name).GenerateIR(root)
}

func mustResolve(t *testing.T, src string) *ir.Program {
	t.Helper()
	prog, err := resolve(t, "t", src)
	if err != nil {
		t.Fatalf("GenerateIR: %v", err)
	}
	return prog
}

func firstTest(t *testing.T, prog *ir.Program) *ir.Stmt {
	t.Helper()
	for _, s := range prog.Body {
		if s.Op == ir.OpTest {
			return s
		}
	}
	t.Fatal("no test statement")
	return nil
}

func TestFallthroughLookahead(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
		has  bool
	}{
		{"next label", "L,1\nT,a,v,5\nL,2\nJ,0\nL,5\nJ,0", 2, true},
		{"through label zero", "L,1\nT,a,v,5\nL,0\nL,3\nJ,0\nL,5\nJ,0", 3, true},
		{"through several label zeros", "T,a,v,5\nL,0\nL,0\nL,7\nJ,0\nL,5\nJ,0", 7, true},
		{"statement before label", "L,1\nT,a,v,5\nR,x,y\nL,2\nJ,0\nL,5\nJ,0", 0, false},
		{"jump before label", "L,1\nT,a,v,5\nJ,3\nL,4\nJ,0\nL,3\nJ,0\nL,5\nJ,0", 0, false},
		{"end of body", "L,5\nT,a,v,5", 0, false},
		{"only label zero after", "L,5\nT,a,v,5\nL,0", 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := firstTest(t, mustResolve(t, c.body))
			if s.HasFallthrough != c.has || s.Fallthrough != c.want {
				t.Errorf("fallthrough = %d (set %v), want %d (set %v)", s.Fallthrough, s.HasFallthrough, c.want, c.has)
			}
		})
	}
}

func TestActiveStates(t *testing.T) {
	prog := mustResolve(t, "R,x,a\nL,4\nR,x,b\nL,0\nR,x,c\nL,2\nJ,0")
	var got []int
	for _, s := range prog.Body {
		if s.Op != ir.OpLabel {
			got = append(got, s.State)
		}
	}
	if diff := cmp.Diff([]int{0, 4, 4, 2}, got); diff != "" {
		t.Errorf("active states (-want +got):\n%s", diff)
	}
}

func blockShape(prog *ir.Program) map[int][]string {
	shape := make(map[int][]string)
	for _, b := range prog.Blocks {
		for _, s := range b.Stmts {
			shape[b.State] = append(shape[b.State], s.String())
		}
	}
	return shape
}

func TestLabelZeroTransparency(t *testing.T) {
	prog := mustResolve(t, "L,1\nR,x,v1\nL,0\nR,x,v2\nJ,0")
	want := map[int][]string{
		0: {"jump 1"},
		1: {"assign x = v1", "assign x = v2", "return"},
	}
	if diff := cmp.Diff(want, blockShape(prog)); diff != "" {
		t.Errorf("blocks (-want +got):\n%s", diff)
	}
}

func TestJumpAfterTestKeepsBranch(t *testing.T) {
	prog := mustResolve(t, "L,1\nT,a,v,5\nJ,3\nL,4\nJ,0\nL,3\nJ,0\nL,5\nJ,0")
	want := []string{"test a == v -> 5", "jump 3"}
	if diff := cmp.Diff(want, blockShape(prog)[1]); diff != "" {
		t.Errorf("state 1 (-want +got):\n%s", diff)
	}
}

func TestBlocksInFirstOccurrenceOrder(t *testing.T) {
	prog := mustResolve(t, "T,a,v,3\nL,3\nJ,2\nL,2\nJ,3\nL,3\nJ,0")
	var order []int
	for _, b := range prog.Blocks {
		order = append(order, b.State)
	}
	if diff := cmp.Diff([]int{0, 3, 2}, order); diff != "" {
		t.Errorf("block order (-want +got):\n%s", diff)
	}
	if got := len(prog.Block(3).Stmts); got != 2 {
		t.Errorf("state 3 has %d statements, want the jump and the return", got)
	}
	if prog.Entry != nil {
		t.Error("entry jump added to a table that starts in state 0")
	}
}

func TestEntryJump(t *testing.T) {
	prog := mustResolve(t, lampSource)
	if prog.Entry == nil || prog.Blocks[0].State != 0 || prog.Blocks[0].Stmts[0] != prog.Entry {
		t.Fatalf("no entry block: %+v", prog.Blocks[0])
	}
	if prog.Entry.Op != ir.OpJump || prog.Entry.Target != 1 || prog.Entry.Tok.Line != 5 {
		t.Errorf("entry = %s at line %d, want jump 1 at line 5", prog.Entry, prog.Entry.Tok.Line)
	}
	for _, s := range prog.Body {
		if s == prog.Entry {
			t.Error("entry jump must not appear in the body")
		}
	}
}

func TestJumpZeroReturns(t *testing.T) {
	prog := mustResolve(t, "J,0")
	if len(prog.Body) != 1 || prog.Body[0].Op != ir.OpReturn {
		t.Errorf("got %v, want a single return", prog.Body)
	}
	if !prog.HasReturn() {
		t.Error("HasReturn = false")
	}
}

func TestUnreachableTarget(t *testing.T) {
	cases := map[string]struct {
		src    string
		target int
		line   int
	}{
		"jump":        {"L,1\nJ,9", 9, 2},
		"test":        {"L,1\nT,a,v,4\nL,2\nJ,0", 4, 2},
		"label zero":  {"L,0\nJ,5\nL,0", 5, 2},
		"later label": {"J,1\nR,x,y", 1, 1},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := resolve(t, "t", c.src)
			var ute *util.UnreachableTargetError
			if !errors.As(err, &ute) {
				t.Fatalf("got %v, want UnreachableTargetError", err)
			}
			if ute.Target != c.target || ute.Tok.Line != c.line {
				t.Errorf("target %d at line %d, want %d at line %d", ute.Target, ute.Tok.Line, c.target, c.line)
			}
		})
	}

	if _, err := resolve(t, "t", "T,a,v,0\nL,3\nJ,3"); err != nil {
		t.Errorf("state 0 is always declared: %v", err)
	}
}

func TestOrdinals(t *testing.T) {
	prog := mustResolve(t, "I,ok,yes\nI,ok,no\nO,res,b\nO,res,a\nO,res,c")
	want := []ir.Member{{Name: "no", Ordinal: 1}, {Name: "yes", Ordinal: 2}}
	if diff := cmp.Diff(want, prog.Input("ok").Members); diff != "" {
		t.Errorf("ok members (-want +got):\n%s", diff)
	}
	if got := prog.Output("res").Ordinal("c"); got != 3 {
		t.Errorf("ordinal of c = %d, want 3", got)
	}
	if got := prog.Output("res").Ordinal("zzz"); got != 0 {
		t.Errorf("ordinal of a non-member = %d, want 0", got)
	}
}

func TestIdent(t *testing.T) {
	cases := map[string]string{
		"mode":        "mode",
		"door, front": "door__front",
		"1st":         "_1st",
		"a-b.c":       "a_b_c",
		"ünï":         "_n_",
	}
	for in, want := range cases {
		if got := Ident(in); got != want {
			t.Errorf("Ident(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDump(t *testing.T) {
	var sb strings.Builder
	prog := mustResolve(t, "D,2\nI,a,v\nL,1\nT,a,v,2\nL,2\nJ,0")
	prog.Dump(&sb)
	for _, want := range []string{
		"program t (depth 2)",
		"input a: v=1",
		"state 0:",
		"test a == v -> 2 else -> 2",
		"; line 4",
	} {
		if !strings.Contains(sb.String(), want) {
			t.Errorf("dump lacks %q:\n%s", want, sb.String())
		}
	}
}
