package token

type Type int

const (
	EOF Type = iota
	Unrecognized
	InputDecl
	OutputDecl
	Depth
	Label
	Test
	Jump
	Assign
)

// Syntax identifies the surface grammar a directive was read from.
type Syntax int

const (
	NoSyntax Syntax = iota
	Comma
	Symbol
)

var typeNames = map[Type]string{
	EOF:          "EOF",
	Unrecognized: "unrecognized",
	InputDecl:    "input",
	OutputDecl:   "output",
	Depth:        "depth",
	Label:        "label",
	Test:         "test",
	Jump:         "jump",
	Assign:       "assign",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

func (s Syntax) String() string {
	switch s {
	case Comma:
		return "comma"
	case Symbol:
		return "symbol"
	}
	return "none"
}

// CommaCommands maps the first CSV field of a comma-form line to its directive.
var CommaCommands = map[string]Type{
	"I": InputDecl,
	"O": OutputDecl,
	"D": Depth,
	"L": Label,
	"J": Jump,
	"T": Test,
	"R": Assign,
}

// SymbolDecls maps the letter following '#' in a symbol-form declaration.
var SymbolDecls = map[string]Type{
	"E": InputDecl,
	"R": OutputDecl,
	"D": Depth,
}

// SymbolCommands maps the leading field of a symbol-form body line.
var SymbolCommands = map[string]Type{
	"<": Label,
	">": Jump,
	":": Test,
	"=": Assign,
}

// IsBody reports whether directives of this type are kept in the program body.
func (t Type) IsBody() bool {
	switch t {
	case Label, Test, Jump, Assign:
		return true
	}
	return false
}

// Token is one parsed line of the pseudocode stream. Num holds the label id,
// jump or test target, or depth depending on Type.
type Token struct {
	Type      Type
	Var       string
	Val       string
	Num       int
	Syntax    Syntax
	Text      string
	FileIndex int
	Line      int
	Column    int
	Len       int
}
