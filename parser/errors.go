package parser

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/kinetic/internal/token"
)

// ErrorOpts holds the data used to build a parser error. If Cause is set,
// Message is ignored.
type ErrorOpts struct {
	ErrType       string
	Message       string
	Cause         error
	File          string
	StartPosition token.Position
	EndPosition   token.Position
	SourceCode    string
}

// ParserError is implemented by every error the parser reports.
type ParserError interface {
	error
	Type() string
	Message() string
	Cause() error
	File() string
	StartPosition() token.Position
	EndPosition() token.Position
	SourceCode() string
	FriendlyErrorMessage() string
}

// NewParserError returns a BaseParserError populated with the given data.
func NewParserError(opts ErrorOpts) *BaseParserError {
	return &BaseParserError{
		errType:       opts.ErrType,
		message:       opts.Message,
		cause:         opts.Cause,
		file:          opts.File,
		startPosition: opts.StartPosition,
		endPosition:   opts.EndPosition,
		sourceCode:    opts.SourceCode,
	}
}

// BaseParserError is the simplest implementation of ParserError.
type BaseParserError struct {
	errType       string
	message       string
	cause         error
	file          string
	startPosition token.Position
	endPosition   token.Position
	sourceCode    string
}

func (e *BaseParserError) Error() string {
	msg := e.Message()
	if e.errType != "" {
		msg = fmt.Sprintf("%s: %s", e.errType, msg)
	}
	return msg
}

// FriendlyErrorMessage renders the error with its location and the offending
// source line, underlined.
func (e *BaseParserError) FriendlyErrorMessage() string {
	var sb strings.Builder
	start, end := e.startPosition, e.endPosition
	if e.file != "" {
		fmt.Fprintf(&sb, "%s:", e.file)
	}
	fmt.Fprintf(&sb, "%d:%d: %s\n", start.LineNumber(), start.ColumnNumber(), e.Error())
	if e.sourceCode == "" {
		return sb.String()
	}
	width := 1
	if end.Line == start.Line && end.Column >= start.Column {
		width = end.Column - start.Column + 1
	}
	fmt.Fprintf(&sb, "  %s\n  %s%s\n", e.sourceCode,
		strings.Repeat(" ", start.Column), strings.Repeat("^", width))
	return sb.String()
}

func (e *BaseParserError) Message() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.message
}

func (e *BaseParserError) Cause() error                  { return e.cause }
func (e *BaseParserError) Unwrap() error                 { return e.cause }
func (e *BaseParserError) File() string                  { return e.file }
func (e *BaseParserError) StartPosition() token.Position { return e.startPosition }
func (e *BaseParserError) EndPosition() token.Position   { return e.endPosition }
func (e *BaseParserError) SourceCode() string            { return e.sourceCode }
func (e *BaseParserError) Type() string                  { return e.errType }

// SyntaxError is reported when the lexer rejects the input.
type SyntaxError struct {
	*BaseParserError
}

// NewSyntaxError returns a SyntaxError populated with the given data.
func NewSyntaxError(opts ErrorOpts) *SyntaxError {
	opts.ErrType = "syntax error"
	return &SyntaxError{BaseParserError: NewParserError(opts)}
}

func tokenTypeDescription(t token.Type) string {
	switch t {
	case token.EOF:
		return "end of input"
	case token.IDENT:
		return "identifier"
	case token.NEWLINE:
		return "newline"
	default:
		return fmt.Sprintf("%q", string(t))
	}
}

func tokenDescription(t token.Token) string {
	switch t.Type {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "newline"
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}

// Errors holds every error found in one parse.
type Errors struct {
	errs []ParserError
}

// NewErrors returns nil when errs is empty.
func NewErrors(errs []ParserError) *Errors {
	if len(errs) == 0 {
		return nil
	}
	return &Errors{errs: errs}
}

// Error returns the first message and the number of others.
func (e *Errors) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.errs[0].Error(), len(e.errs)-1)
}

// Errors returns the underlying parser errors.
func (e *Errors) Errors() []ParserError {
	return e.errs
}

// Count returns the number of errors.
func (e *Errors) Count() int {
	return len(e.errs)
}

// First returns the first error.
func (e *Errors) First() ParserError {
	return e.errs[0]
}

// FriendlyErrorMessage renders every error.
func (e *Errors) FriendlyErrorMessage() string {
	var sb strings.Builder
	for _, err := range e.errs {
		sb.WriteString(err.FriendlyErrorMessage())
	}
	return sb.String()
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
func (e *Errors) Unwrap() []error {
	result := make([]error, len(e.errs))
	for i, err := range e.errs {
		result[i] = err
	}
	return result
}
