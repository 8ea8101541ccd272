// Package lexer converts expression source text into tokens.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/deepnoodle-ai/kinetic/internal/token"
)

// Lexer produces one token at a time from an input string.
type Lexer struct {
	input     string
	pos       int
	line      int
	lineStart int
	filename  string
}

// State captures the lexer position so it can be restored later.
type State struct {
	pos       int
	line      int
	lineStart int
}

// New returns a Lexer for the given input.
func New(input string) *Lexer {
	return &Lexer{input: input}
}

// SetFilename sets the filename reported in token positions.
func (l *Lexer) SetFilename(filename string) {
	l.filename = filename
}

// Filename returns the filename set by SetFilename.
func (l *Lexer) Filename() string {
	return l.filename
}

// SaveState returns the current lexer position.
func (l *Lexer) SaveState() State {
	return State{pos: l.pos, line: l.line, lineStart: l.lineStart}
}

// RestoreState rewinds the lexer to a saved position.
func (l *Lexer) RestoreState(s State) {
	l.pos, l.line, l.lineStart = s.pos, s.line, s.lineStart
}

func (l *Lexer) position() token.Position {
	return token.Position{
		Char:      l.pos,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.pos - l.lineStart,
		File:      l.filename,
	}
}

func (l *Lexer) peekByte(offset int) byte {
	if l.pos+offset < len(l.input) {
		return l.input[l.pos+offset]
	}
	return 0
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch ch := l.input[l.pos]; {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.pos++
		case ch == '#':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

// Next returns the next token. At the end of input it returns EOF tokens
// indefinitely.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespace()
	start := l.position()
	if l.pos >= len(l.input) {
		return token.Token{Type: token.EOF, StartPosition: start, EndPosition: start}, nil
	}
	ch := l.input[l.pos]
	if ch == '\n' {
		l.pos++
		tok := l.emit(token.NEWLINE, start, "\n")
		l.line++
		l.lineStart = l.pos
		return tok, nil
	}
	switch ch {
	case '+':
		return l.single(token.PLUS, start), nil
	case '-':
		return l.single(token.MINUS, start), nil
	case '/':
		return l.single(token.SLASH, start), nil
	case '^':
		return l.single(token.CARET, start), nil
	case '(':
		return l.single(token.LPAREN, start), nil
	case ')':
		return l.single(token.RPAREN, start), nil
	case ',':
		return l.single(token.COMMA, start), nil
	case ';':
		return l.single(token.SEMICOLON, start), nil
	case '*':
		if l.peekByte(1) == '*' {
			l.pos += 2
			return l.emit(token.POW, start, "**"), nil
		}
		return l.single(token.ASTERISK, start), nil
	}
	if isDigit(ch) || (ch == '.' && isDigit(l.peekByte(1))) {
		return l.readNumber(start)
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	if isIdentStart(r) {
		return l.readIdentifier(start), nil
	}
	l.pos += size
	tok := l.emit(token.ILLEGAL, start, string(r))
	return tok, fmt.Errorf("unexpected character %q", r)
}

func (l *Lexer) single(typ token.Type, start token.Position) token.Token {
	l.pos++
	return l.emit(typ, start, string(l.input[l.pos-1]))
}

func (l *Lexer) emit(typ token.Type, start token.Position, literal string) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   start.Advance(len(literal) - 1),
	}
}

func (l *Lexer) readNumber(start token.Position) (token.Token, error) {
	typ := token.INT
	l.readDigits()
	if l.peekByte(0) == '.' {
		typ = token.FLOAT
		l.pos++
		l.readDigits()
	}
	if c := l.peekByte(0); c == 'e' || c == 'E' {
		next := l.peekByte(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekByte(2))) {
			typ = token.FLOAT
			l.pos += 2
			l.readDigits()
		}
	}
	if l.peekByte(0) == 'i' && !isIdentByte(l.peekByte(1)) {
		typ = token.IMAG
		l.pos++
	}
	literal := l.input[start.Char:l.pos]
	if r, _ := utf8.DecodeRuneInString(l.input[l.pos:]); l.pos < len(l.input) && (isIdentStart(r) || r == '.') {
		for l.pos < len(l.input) {
			r, size := utf8.DecodeRuneInString(l.input[l.pos:])
			if !isIdentStart(r) && !unicode.IsDigit(r) && r != '.' {
				break
			}
			l.pos += size
		}
		literal = l.input[start.Char:l.pos]
		return l.emit(token.ILLEGAL, start, literal), fmt.Errorf("invalid number %q", literal)
	}
	return l.emit(typ, start, literal), nil
}

func (l *Lexer) readDigits() {
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) readIdentifier(start token.Position) token.Token {
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentStart(r) && !unicode.IsDigit(r) {
			break
		}
		l.pos += size
	}
	literal := l.input[start.Char:l.pos]
	return l.emit(token.LookupIdentifier(literal), start, literal)
}

// GetLineText returns the source line on which tok starts, without the
// trailing newline.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start > len(l.input) {
		return ""
	}
	line := l.input[start:]
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSuffix(line, "\r")
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentByte(ch byte) bool {
	return ch == '_' || isDigit(ch) || ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch >= utf8.RuneSelf
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}
