package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/token"
	"golang.org/x/term"
)

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

// Reporter prints diagnostics for one translation. A nil *Reporter discards
// everything, which is what library callers and tests usually want.
type Reporter struct {
	W        io.Writer
	Color    bool
	Files    []SourceFileRecord
	Warnings int
}

// NewReporter writes to stderr, coloured when stderr is a terminal.
func NewReporter(files ...SourceFileRecord) *Reporter {
	return &Reporter{
		W:     os.Stderr,
		Color: term.IsTerminal(int(os.Stderr.Fd())),
		Files: files,
	}
}

func (r *Reporter) paint(code, s string) string {
	if !r.Color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// findFileAndLine converts a token to a file-specific location
func (r *Reporter) findFileAndLine(tok token.Token) (filename string, line, col int) {
	if tok.FileIndex < 0 || tok.FileIndex >= len(r.Files) {
		return "unknown", tok.Line, tok.Column
	}
	return r.Files[tok.FileIndex].Name, tok.Line, tok.Column
}

// printErrorLine prints the source line and a caret under the directive
func (r *Reporter) printErrorLine(tok token.Token) {
	if tok.Line == 0 {
		return
	}
	text := tok.Text
	if text == "" {
		text = r.lineText(tok)
	}
	if text == "" {
		return
	}

	fmt.Fprintf(r.W, "  %s\n", text)

	col := tok.Column
	if col < 1 {
		col = 1
	}
	caret := "^"
	if tok.Len > 1 {
		caret += strings.Repeat("~", tok.Len-1)
	}
	fmt.Fprintf(r.W, "  %s%s\n", strings.Repeat(" ", col-1), r.paint("32", caret))
}

func (r *Reporter) lineText(tok token.Token) string {
	if tok.FileIndex < 0 || tok.FileIndex >= len(r.Files) {
		return ""
	}
	lines := strings.Split(string(r.Files[tok.FileIndex].Content), "\n")
	if tok.Line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[tok.Line-1], "\r")
}

// Error prints a formatted error message at tok.
func (r *Reporter) Error(tok token.Token, format string, args ...interface{}) {
	if r == nil {
		return
	}
	filename, line, col := r.findFileAndLine(tok)
	fmt.Fprintf(r.W, "%s:%d:%d: %s ", filename, line, col, r.paint("31", "error:"))
	fmt.Fprintf(r.W, format, args...)
	fmt.Fprintln(r.W)
	r.printErrorLine(tok)
}

// Warn prints a formatted warning if the corresponding warning is enabled.
func (r *Reporter) Warn(cfg *config.Config, wt config.Warning, tok token.Token, format string, args ...interface{}) {
	if r == nil || !cfg.IsWarningEnabled(wt) {
		return
	}
	r.Warnings++
	filename, line, col := r.findFileAndLine(tok)
	fmt.Fprintf(r.W, "%s:%d:%d: %s ", filename, line, col, r.paint("33", "warning:"))
	fmt.Fprintf(r.W, format, args...)
	fmt.Fprintf(r.W, " [-W%s]\n", cfg.Warnings[wt].Name)
	r.printErrorLine(tok)
}

// Report prints err, with position information when it carries any.
func (r *Reporter) Report(err error) {
	if r == nil || err == nil {
		return
	}
	var pe PositionedError
	if errors.As(err, &pe) {
		r.Error(pe.Token(), "%s", err.Error())
		return
	}
	fmt.Fprintf(r.W, "%s %s\n", r.paint("31", "error:"), err.Error())
}
