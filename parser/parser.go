// Package parser reads infix expression source into expression trees.
//
// The grammar covers numbers (including imaginary literals such as 2i and the
// constants pi and e), variables, the operators + - * / ^ (** is accepted as
// an alias for ^), unary minus, parentheses and single-argument function
// calls. Parse accepts several expressions separated by newlines or
// semicolons; ParseExpr accepts exactly one.
package parser

import (
	"context"
	"fmt"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/internal/lexer"
	"github.com/deepnoodle-ai/kinetic/internal/token"
)

type (
	prefixParseFn func() (ast.Expr, bool)
	infixParseFn  func(ast.Expr) (ast.Expr, bool)
)

var statementTerminators = map[token.Type]bool{
	token.SEMICOLON: true,
	token.NEWLINE:   true,
	token.EOF:       true,
}

// Parse parses every expression in input.
func Parse(ctx context.Context, input string, options ...Option) ([]ast.Expr, error) {
	return New(input, options...).Parse(ctx)
}

// ParseExpr parses input, which must hold exactly one expression.
func ParseExpr(ctx context.Context, input string, options ...Option) (ast.Expr, error) {
	exprs, err := Parse(ctx, input, options...)
	if err != nil {
		return nil, err
	}
	if len(exprs) != 1 {
		return nil, NewParserError(ErrorOpts{
			ErrType: "parse error",
			Message: fmt.Sprintf("expected one expression, found %d", len(exprs)),
		})
	}
	return exprs[0], nil
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name reported in errors.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth for the parser.
// The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// MaxErrors is the maximum number of errors to collect before stopping.
const MaxErrors = 10

// Parser holds the state of a single parse. Create one with New and call
// Parse once.
type Parser struct {
	ctx context.Context
	l   *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	// lexer errors for curToken and peekToken
	curErr  error
	peekErr error

	errors []ParserError

	// stmtErrorCount is the error count when the current expression started.
	stmtErrorCount int

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn

	filename string
	depth    int
	maxDepth int

	// parens counts open parentheses; newlines are insignificant inside them.
	parens int
}

// New returns a Parser for input.
func New(input string, options ...Option) *Parser {
	p := &Parser{
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	p.l = lexer.New(input)
	if p.filename != "" {
		p.l.SetFilename(p.filename)
	}

	p.nextToken()
	p.nextToken()

	p.registerPrefix(token.EOF, p.illegalToken)
	p.registerPrefix(token.FLOAT, p.parseNumber)
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)
	p.registerPrefix(token.IMAG, p.parseImaginary)
	p.registerPrefix(token.INT, p.parseNumber)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.PLUS, p.parsePrefixExpr)

	p.registerInfix(token.ASTERISK, p.parseInfixExpr)
	p.registerInfix(token.CARET, p.parseInfixExpr)
	p.registerInfix(token.LPAREN, p.parseCall)
	p.registerInfix(token.MINUS, p.parseInfixExpr)
	p.registerInfix(token.PLUS, p.parseInfixExpr)
	p.registerInfix(token.POW, p.parseInfixExpr)
	p.registerInfix(token.SLASH, p.parseInfixExpr)
	return p
}

// nextToken moves to the next token from the lexer, updating curToken and
// peekToken. A lexer error travels with its token
// and is reported when the parser reaches it.
func (p *Parser) nextToken() {
	p.curToken, p.curErr = p.peekToken, p.peekErr
	for {
		p.peekToken, p.peekErr = p.l.Next()
		if p.parens == 0 || p.peekToken.Type != token.NEWLINE {
			return
		}
	}
}

// Parse parses the whole input. If there are errors, the expressions parsed
// successfully are still returned.
func (p *Parser) Parse(ctx context.Context) ([]ast.Expr, error) {
	p.ctx = ctx
	var exprs []ast.Expr
	for !p.curTokenIs(token.EOF) {
		if p.cancelled() {
			return nil, ctx.Err()
		}
		if p.tooManyErrors() {
			break
		}
		if statementTerminators[p.curToken.Type] {
			p.nextToken()
			continue
		}
		p.stmtErrorCount = len(p.errors)
		expr := p.parseStatement()
		if expr != nil {
			exprs = append(exprs, expr)
		} else if p.hadNewError() {
			p.synchronize()
		}
		p.nextToken()
	}
	if p.hasErrors() {
		return exprs, NewErrors(p.errors)
	}
	return exprs, nil
}

func (p *Parser) parseStatement() ast.Expr {
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil
	}
	if !statementTerminators[p.peekToken.Type] {
		p.setTokenError(p.peekToken, "unexpected %s following expression", tokenDescription(p.peekToken))
		return nil
	}
	return expr
}

func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) addError(err ParserError) {
	p.errors = append(p.errors, err)
}

func (p *Parser) hasErrors() bool {
	return len(p.errors) > 0
}

func (p *Parser) tooManyErrors() bool {
	return len(p.errors) >= MaxErrors
}

// hadNewError returns true if an error was added during the current
// expression.
func (p *Parser) hadNewError() bool {
	return len(p.errors) > p.stmtErrorCount
}

// synchronize skips tokens until an expression boundary is reached.
func (p *Parser) synchronize() {
	p.parens = 0
	for !p.curTokenIs(token.EOF) && !statementTerminators[p.curToken.Type] {
		p.nextToken()
	}
}

func (p *Parser) cancelled() bool {
	if p.ctx == nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return true
	default:
		return false
	}
}

func (p *Parser) parseExpression(precedence int) ast.Expr {
	if p.hadNewError() {
		return nil
	}
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > p.maxDepth {
		p.setTokenError(p.curToken, "maximum nesting depth exceeded")
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.setTokenError(p.curToken, "invalid syntax (unexpected %s)", tokenDescription(p.curToken))
		return nil
	}
	left, ok := prefix()
	if !ok || p.hadNewError() {
		return nil
	}
	for !statementTerminators[p.peekToken.Type] && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left, ok = infix(left)
		if !ok || p.hadNewError() {
			return nil
		}
	}
	return left
}

func (p *Parser) illegalToken() (ast.Expr, bool) {
	switch {
	case p.curErr != nil:
		p.addError(NewSyntaxError(ErrorOpts{
			Cause:         p.curErr,
			File:          p.l.Filename(),
			StartPosition: p.curToken.StartPosition,
			EndPosition:   p.curToken.EndPosition,
			SourceCode:    p.l.GetLineText(p.curToken),
		}))
	case p.curTokenIs(token.EOF):
		p.setTokenError(p.curToken, "unexpected end of input")
	default:
		p.setTokenError(p.curToken, "illegal token %s", p.curToken.Literal)
	}
	return nil, false
}

func (p *Parser) setTokenError(t token.Token, msg string, args ...interface{}) {
	p.addError(NewParserError(ErrorOpts{
		ErrType:       "parse error",
		Message:       fmt.Sprintf(msg, args...),
		File:          p.l.Filename(),
		StartPosition: t.StartPosition,
		EndPosition:   t.EndPosition,
		SourceCode:    p.l.GetLineText(t),
	}))
}

func (p *Parser) curTokenIs(t token.Type) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.Type) bool {
	return p.peekToken.Type == t
}

// expectPeek advances if the next token has the given type and records an
// error otherwise.
func (p *Parser) expectPeek(context string, t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.setTokenError(p.peekToken, "unexpected %s while parsing %s (expected %s)",
		tokenDescription(p.peekToken), context, tokenTypeDescription(t))
	return false
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) currentPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

// eatNewlines skips newline tokens at the current position.
func (p *Parser) eatNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}
