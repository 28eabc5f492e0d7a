package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xplshn/psuc/pkg/ast"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/lexer"
	"github.com/xplshn/psuc/pkg/util"
)

func parse(t *testing.T, src string, rep *util.Reporter) *ast.Program {
	t.Helper()
	cfg := config.NewConfig()
	toks, err := lexer.NewLexer([]rune(src), 0, cfg, rep).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	return NewParser(toks, cfg, rep).Parse()
}

func domains(ds []*ast.Domain) map[string][]string {
	m := make(map[string][]string, len(ds))
	for _, d := range ds {
		m[d.Name] = d.Values
	}
	return m
}

func names(ds []*ast.Domain) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

func TestDeclarationOrder(t *testing.T) {
	prog := parse(t, "I,A,x\nI,B,y\nI,A,z\nO,Q,1\nO,P,2\nO,Q,1", nil)

	if diff := cmp.Diff([]string{"A", "B"}, names(prog.Inputs)); diff != "" {
		t.Errorf("input order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Q", "P"}, names(prog.Outputs)); diff != "" {
		t.Errorf("output order (-want +got):\n%s", diff)
	}
	want := map[string][]string{"A": {"x", "z"}, "B": {"y"}}
	if diff := cmp.Diff(want, domains(prog.Inputs)); diff != "" {
		t.Errorf("input values (-want +got):\n%s", diff)
	}
	if got := prog.Output("Q").Values; len(got) != 1 {
		t.Errorf("duplicate value kept: %v", got)
	}
}

func TestSortedValues(t *testing.T) {
	prog := parse(t, "I,ok,yes\nI,ok,no\nI,ok,maybe", nil)
	if diff := cmp.Diff([]string{"maybe", "no", "yes"}, prog.Input("ok").Sorted()); diff != "" {
		t.Errorf("sorted values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"yes", "no", "maybe"}, prog.Input("ok").Values); diff != "" {
		t.Errorf("insertion order lost (-want +got):\n%s", diff)
	}
}

func TestLastDepthWins(t *testing.T) {
	var buf bytes.Buffer
	rep := &util.Reporter{W: &buf}
	prog := parse(t, "D,2\nD,5\nD,5", rep)
	if !prog.HasDepth || prog.Depth != 5 {
		t.Errorf("got depth %d (set %v), want 5", prog.Depth, prog.HasDepth)
	}
	if n := strings.Count(buf.String(), "[-Wdepth]"); n != 1 {
		t.Errorf("got %d depth warnings, want 1:\n%s", n, buf.String())
	}
}

func TestNoDepth(t *testing.T) {
	if prog := parse(t, "L,1\nJ,0", nil); prog.HasDepth {
		t.Error("depth set without a depth directive")
	}
}

func TestBodyKeepsFileOrder(t *testing.T) {
	prog := parse(t, "L,1\nI,a,v\nT,a,v,2\nR,x,y\nL,0\nJ,0\nO,x,y\nL,2\nJ,0", nil)

	var got []string
	for _, n := range prog.Body {
		got = append(got, n.Type.String())
	}
	want := []string{"label", "test", "assign", "label", "jump", "label", "jump"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("body (-want +got):\n%s", diff)
	}

	test := prog.Body[1].Data.(ast.TestNode)
	if diff := cmp.Diff(ast.TestNode{Var: "a", Val: "v", Target: 2}, test); diff != "" {
		t.Errorf("test node (-want +got):\n%s", diff)
	}
	if prog.Body[1].Tok.Line != 3 {
		t.Errorf("test node on line %d, want 3", prog.Body[1].Tok.Line)
	}
}

func TestInputOutputClash(t *testing.T) {
	var buf bytes.Buffer
	rep := &util.Reporter{W: &buf}
	prog := parse(t, "I,x,a\nO,x,b", rep)
	if len(prog.Inputs) != 1 || len(prog.Outputs) != 1 {
		t.Fatalf("got %d inputs and %d outputs", len(prog.Inputs), len(prog.Outputs))
	}
	if !strings.Contains(buf.String(), "'x' is declared as both input and output") {
		t.Errorf("missing clash warning:\n%s", buf.String())
	}
}
