package codegen

import (
	"bytes"
	"fmt"

	"github.com/xplshn/psuc/pkg/config"
	"github.com/xplshn/psuc/pkg/ir"
)

// Backend is the interface that all code generation backends must implement.
type Backend interface {
	// Generate takes a resolved program and a configuration, and produces
	// the complete output text as a byte buffer.
	Generate(prog *ir.Program, cfg *config.Config) (*bytes.Buffer, error)
}

// SelectBackend returns the backend registered under name.
func SelectBackend(name string) (Backend, error) {
	switch name {
	case "python", "":
		return NewPythonBackend(), nil
	case "go":
		return NewGoBackend(), nil
	case "c":
		return NewCBackend(), nil
	case "qbe-il":
		return NewQBEBackend(true), nil
	case "qbe":
		return NewQBEBackend(false), nil
	default:
		return nil, fmt.Errorf("unsupported backend '%s'", name)
	}
}
