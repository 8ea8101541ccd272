package parser

import (
	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/internal/token"
)

func (p *Parser) parseIdent() (ast.Expr, bool) {
	return ast.Var(p.curToken.Literal), true
}

// parsePrefixExpr handles unary plus and minus. The operand binds tighter
// than the sign, except that ^ binds tighter still: -x^2 is -(x^2).
func (p *Parser) parsePrefixExpr() (ast.Expr, bool) {
	op := p.curToken.Type
	p.nextToken()
	right := p.parseExpression(PREFIX)
	if right == nil {
		return nil, false
	}
	if op == token.MINUS {
		return negate(right), true
	}
	return right, true
}

func (p *Parser) parseInfixExpr(left ast.Expr) (ast.Expr, bool) {
	op := p.curToken.Type
	precedence := p.currentPrecedence()
	// ^ is right-associative: 2^3^2 = 2^(3^2)
	if op == token.CARET || op == token.POW {
		precedence--
	}
	p.nextToken()
	p.eatNewlines()
	right := p.parseExpression(precedence)
	if right == nil {
		return nil, false
	}
	switch op {
	case token.PLUS:
		return sum(left, right), true
	case token.MINUS:
		return sum(left, negate(right)), true
	case token.ASTERISK:
		return product(left, right), true
	case token.SLASH:
		return product(left, ast.Pow(right, ast.Num(-1))), true
	default:
		return ast.Pow(left, right), true
	}
}

func (p *Parser) parseGroupedExpr() (ast.Expr, bool) {
	p.parens++
	p.nextToken()
	p.eatNewlines()
	if p.curTokenIs(token.RPAREN) {
		p.parens--
		p.setTokenError(p.curToken, "empty parentheses")
		return nil, false
	}
	expr := p.parseExpression(LOWEST)
	if expr == nil {
		return nil, false
	}
	p.parens--
	if !p.expectPeek("parenthesized expression", token.RPAREN) {
		return nil, false
	}
	return expr, true
}

// parseCall parses the argument list of a function call. Every builtin
// function takes exactly one argument.
func (p *Parser) parseCall(function ast.Expr) (ast.Expr, bool) {
	name, ok := function.(*ast.Variable)
	if !ok {
		p.setTokenError(p.curToken, "only named functions can be called")
		return nil, false
	}
	p.parens++
	var args []ast.Expr
	if p.peekTokenIs(token.RPAREN) {
		p.parens--
		p.nextToken()
	} else {
		p.nextToken()
		p.eatNewlines()
		for {
			arg := p.parseExpression(LOWEST)
			if arg == nil {
				return nil, false
			}
			args = append(args, arg)
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
			p.nextToken()
		}
		p.parens--
		if !p.expectPeek("call arguments", token.RPAREN) {
			return nil, false
		}
	}
	if len(args) != 1 {
		p.setTokenError(p.curToken, "function %s takes exactly one argument (got %d)", name.Name, len(args))
		return nil, false
	}
	return ast.Fn(name.Name, args[0]), true
}

// sum and product extend a left operand of the same kind. Both fold left to
// right, so a+b+c and (a+b)+c evaluate identically either way.
func sum(a, b ast.Expr) ast.Expr {
	if s, ok := a.(*ast.Sum); ok {
		return ast.Add(append(append([]ast.Expr{}, s.Terms...), b)...)
	}
	return ast.Add(a, b)
}

func product(a, b ast.Expr) ast.Expr {
	if m, ok := a.(*ast.Product); ok {
		return ast.Mul(append(append([]ast.Expr{}, m.Factors...), b)...)
	}
	return ast.Mul(a, b)
}

func negate(e ast.Expr) ast.Expr {
	if c, ok := e.(*ast.Constant); ok {
		return &ast.Constant{Value: -c.Value}
	}
	return ast.Neg(e)
}
