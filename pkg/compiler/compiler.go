// Package compiler wires the translation pipeline together:
// lexer -> parser -> codegen (resolver) -> checker -> backend.
package compiler

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xplshn/psuc/pkg/ast"
	"github.com/xplshn/psuc/pkg/checker"
	"github.com/xplshn/psuc/pkg/codegen"
	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
	"github.com/xplshn/psuc/pkg/lexer"
	"github.com/xplshn/psuc/pkg/parser"
	"github.com/xplshn/psuc/pkg/util"
)

// ReadSource loads a pseudocode file.
func ReadSource(path string) (util.SourceFileRecord, error) {
	if path == "" {
		return util.SourceFileRecord{}, &util.MissingFileError{}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return util.SourceFileRecord{}, &util.MissingFileError{Path: path, Err: err}
	}
	return util.SourceFileRecord{Name: path, Content: []rune(string(content))}, nil
}

// TableName strips the directory and extension: "tables/power.psu" -> "power".
func TableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Parse reads the directive stream of rec (file index 0) into a program.
func Parse(rec util.SourceFileRecord, cfg *config.Config, rep *util.Reporter) (*ast.Program, error) {
	toks, err := lexer.NewLexer(rec.Content, 0, cfg, rep).Tokenize()
	if err != nil {
		return nil, err
	}
	return parser.NewParser(toks, cfg, rep).Parse(), nil
}

// Compile parses, resolves and checks rec.
func Compile(rec util.SourceFileRecord, cfg *config.Config, rep *util.Reporter) (*ir.Program, error) {
	root, err := Parse(rec, cfg, rep)
	if err != nil {
		return nil, err
	}
	prog, err := codegen.NewContext(cfg, TableName(rec.Name)).GenerateIR(root)
	if err != nil {
		return nil, err
	}
	checker.NewChecker(cfg, rep).Check(prog)
	return prog, nil
}

// Translate compiles rec and renders it with the configured backend. The
// buffer is complete or nil; nothing is written anywhere on failure.
func Translate(rec util.SourceFileRecord, cfg *config.Config, rep *util.Reporter) (*bytes.Buffer, error) {
	prog, err := Compile(rec, cfg, rep)
	if err != nil {
		return nil, err
	}
	backend, err := codegen.SelectBackend(cfg.BackendName)
	if err != nil {
		return nil, err
	}
	out, err := backend.Generate(prog, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s backend code generation failed: %w", cfg.BackendName, err)
	}
	return out, nil
}

// CompileString is Compile for in-memory sources, used by tests and tools.
func CompileString(name, src string, cfg *config.Config) (*ir.Program, error) {
	return Compile(util.SourceFileRecord{Name: name, Content: []rune(src)}, cfg, nil)
}
