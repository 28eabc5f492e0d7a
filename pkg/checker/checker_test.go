package checker_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/xplshn/psuc/pkg/checker"
	"github.com/xplshn/psuc/pkg/codegen"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/lexer"
	"github.com/xplshn/psuc/pkg/parser"
	"github.com/xplshn/psuc/pkg/util"
)

func check(t *testing.T, src string, cfg *config.Config) string {
	t.Helper()
	var buf bytes.Buffer
	rep := &util.Reporter{W: &buf, Files: []util.SourceFileRecord{{Name: "t.psu", Content: []rune(src)}}}
	toks, err := lexer.NewLexer([]rune(src), 0, cfg, nil).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	prog, err := codegen.NewContext(cfg, "t").GenerateIR(parser.NewParser(toks, cfg, nil).Parse())
	if err != nil {
		t.Fatal(err)
	}
	checker.NewChecker(cfg, rep).Check(prog)
	return buf.String()
}

func TestWarnings(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"redefined label", "L,1\nJ,0\nL,1\nJ,0", "t.psu:3:1: warning: label 1 redefined (first at line 1)"},
		{"undeclared input", "I,b,v\nT,a,v,0\nJ,0", "test on undeclared input 'a' [-Wundeclared]"},
		{"undeclared value", "I,a,v\nT,a,w,0\nJ,0", "'w' is not a value of input 'a' [-Wundeclared]"},
		{"undeclared output", "R,x,y\nJ,0", "assignment to undeclared output 'x' [-Wundeclared]"},
		{"fall off", "O,x,y\nL,1\nR,x,y\nL,2\nJ,0", "state 1 ends without a transition; evaluation would loop forever here [-Wfall-off]"},
		{"unreachable code", "O,x,y\nJ,0\nR,x,y", "t.psu:3:1: warning: unreachable statement after return in state 0 [-Wunreachable-code]"},
		{"empty state", "L,1\nJ,2\nL,2\nL,3\nJ,0", "state 2 has no statements; evaluation would loop forever there [-Wempty-state]"},
		{"no return", "L,1\nJ,1", "no 'jump 0' in the program; evaluate can never return [-Wextra]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := check(t, c.src, config.NewConfig())
			if !strings.Contains(out, c.want) {
				t.Errorf("output lacks %q:\n%s", c.want, out)
			}
		})
	}
}

func TestCleanTable(t *testing.T) {
	src := "I,mode,on\nI,mode,off\nO,lamp,on\nO,lamp,off\nL,1\nT,mode,on,2\nR,lamp,off\nJ,0\nL,2\nR,lamp,on\nJ,0"
	cfg := config.NewConfig()
	cfg.SetAllWarnings(true)
	if out := check(t, src, cfg); out != "" {
		t.Errorf("unexpected diagnostics:\n%s", out)
	}
}

func TestDisabledWarnings(t *testing.T) {
	cfg := config.NewConfig()
	cfg.SetAllWarnings(false)
	if out := check(t, "L,1\nJ,2\nL,2\nL,3\nR,x,y\nL,1", cfg); out != "" {
		t.Errorf("-Wno-all still warns:\n%s", out)
	}
}

func TestReportsCaret(t *testing.T) {
	out := check(t, "O,x,y\nJ,0\nR,x,y", config.NewConfig())
	if !strings.Contains(out, "\n  R,x,y\n  ^~~~~\n") {
		t.Errorf("no source line and caret:\n%s", out)
	}
}
