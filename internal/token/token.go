// Package token defines the tokens produced when lexing expression source.
package token

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int    // byte offset within the file
	LineStart int    // byte offset of the start of the current line
	Line      int    // 0-indexed line number
	Column    int    // 0-indexed column number
	File      string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// Advance returns a new Position advanced by n bytes on the same line.
func (p Position) Advance(n int) Position {
	return Position{
		Char:      p.Char + n,
		LineStart: p.LineStart,
		Line:      p.Line,
		Column:    p.Column + n,
		File:      p.File,
	}
}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	ASTERISK  Type = "*"
	CARET     Type = "^"
	COMMA     Type = ","
	EOF       Type = "EOF"
	FLOAT     Type = "FLOAT"
	IDENT     Type = "IDENT"
	ILLEGAL   Type = "ILLEGAL"
	IMAG      Type = "IMAG"
	INT       Type = "INT"
	LPAREN    Type = "("
	MINUS     Type = "-"
	NEWLINE   Type = "EOL"
	PLUS      Type = "+"
	POW       Type = "**"
	RPAREN    Type = ")"
	SEMICOLON Type = ";"
	SLASH     Type = "/"
)

// Constants that may be written by name in expressions.
var constants = map[string]Type{
	"pi": FLOAT,
	"e":  FLOAT,
}

// LookupIdentifier reports the type of an identifier: FLOAT for the named
// constants and IDENT for everything else.
func LookupIdentifier(identifier string) Type {
	if tok, ok := constants[identifier]; ok {
		return tok
	}
	return IDENT
}
