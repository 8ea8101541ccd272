package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/deepnoodle-ai/kinetic/ast"
)

var namedConstants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

func (p *Parser) parseNumber() (ast.Expr, bool) {
	lit := p.curToken.Literal
	if v, ok := namedConstants[lit]; ok {
		return ast.Num(v), true
	}
	value, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		p.setTokenError(p.curToken, "invalid number: %s", lit)
		return nil, false
	}
	return ast.Num(value), true
}

func (p *Parser) parseImaginary() (ast.Expr, bool) {
	lit := p.curToken.Literal
	value, err := strconv.ParseFloat(strings.TrimSuffix(lit, "i"), 64)
	if err != nil {
		p.setTokenError(p.curToken, "invalid imaginary number: %s", lit)
		return nil, false
	}
	return ast.Complex(complex(0, value)), true
}
