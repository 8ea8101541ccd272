package parser

import "github.com/deepnoodle-ai/kinetic/internal/token"

// Precedence order for operators
const (
	_ int = iota
	LOWEST
	SUM     // + or -
	PRODUCT // * or /
	PREFIX  // -X
	POWER   // ^ or **
	CALL    // log(X)
)

var precedences = map[token.Type]int{
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.CARET:    POWER,
	token.POW:      POWER,
	token.LPAREN:   CALL,
}
