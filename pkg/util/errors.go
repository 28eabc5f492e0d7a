package util

import (
	"fmt"

	"github.com/xplshn/psuc/pkg/token"
)

// PositionedError is implemented by errors that point at a source directive.
type PositionedError interface {
	error
	Token() token.Token
}

// MissingFileError reports an absent or unreadable source file.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	if e.Path == "" {
		return "no input file specified"
	}
	return fmt.Sprintf("could not read file '%s': %v", e.Path, e.Err)
}

func (e *MissingFileError) Unwrap() error { return e.Err }

// MalformedDirectiveError reports a recognized directive that cannot be
// decoded: too few fields, or a field of the wrong shape.
type MalformedDirectiveError struct {
	Tok    token.Token
	Want   int
	Got    int
	Reason string
}

func (e *MalformedDirectiveError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed %s directive %q: %s", e.Tok.Type, e.Tok.Text, e.Reason)
	}
	return fmt.Sprintf("malformed %s directive %q: expected %d fields, got %d", e.Tok.Type, e.Tok.Text, e.Want, e.Got)
}

func (e *MalformedDirectiveError) Token() token.Token { return e.Tok }

// UnreachableTargetError reports a test or jump to a state no label declares.
type UnreachableTargetError struct {
	Tok    token.Token
	Target int
}

func (e *UnreachableTargetError) Error() string {
	return fmt.Sprintf("%s target %d does not name a declared state", e.Tok.Type, e.Target)
}

func (e *UnreachableTargetError) Token() token.Token { return e.Tok }
