// Package ast defines the algebraic expression trees consumed by the
// compilers: constants, variables, n-ary sums and products, binary powers and
// unary calls. Trees are immutable once built and may be shared freely.
package ast

import (
	"bytes"
	"fmt"
	"strconv"
)

// Kind identifies the variant of an expression node.
type Kind uint8

const (
	KindConstant Kind = iota + 1
	KindVariable
	KindSum
	KindProduct
	KindPower
	KindCall
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "constant"
	case KindVariable:
		return "variable"
	case KindSum:
		return "sum"
	case KindProduct:
		return "product"
	case KindPower:
		return "power"
	case KindCall:
		return "call"
	default:
		return "unknown"
	}
}

// Expr is a node in an expression tree.
type Expr interface {
	exprNode()
	// Kind returns the node variant.
	Kind() Kind
	// String returns the node in prefix (s-expression) notation.
	String() string
}

// Constant is a numeric literal. Real constants have a zero imaginary part.
type Constant struct {
	Value complex128
}

func (x *Constant) exprNode() {}

func (x *Constant) Kind() Kind { return KindConstant }

// IsReal reports whether the constant has no imaginary part.
func (x *Constant) IsReal() bool { return imag(x.Value) == 0 }

func (x *Constant) String() string {
	if x.IsReal() {
		return strconv.FormatFloat(real(x.Value), 'g', -1, 64)
	}
	if real(x.Value) == 0 {
		return strconv.FormatFloat(imag(x.Value), 'g', -1, 64) + "i"
	}
	return fmt.Sprintf("(complex %s %s)",
		strconv.FormatFloat(real(x.Value), 'g', -1, 64),
		strconv.FormatFloat(imag(x.Value), 'g', -1, 64))
}

// Variable refers to an input by symbol name.
type Variable struct {
	Name string
}

func (x *Variable) exprNode() {}

func (x *Variable) Kind() Kind { return KindVariable }

func (x *Variable) String() string { return x.Name }

// Sum is the n-ary sum of its terms, folded left to right.
type Sum struct {
	Terms []Expr
}

func (x *Sum) exprNode() {}

func (x *Sum) Kind() Kind { return KindSum }

func (x *Sum) String() string { return nary("+", x.Terms) }

// Product is the n-ary product of its factors, folded left to right.
type Product struct {
	Factors []Expr
}

func (x *Product) exprNode() {}

func (x *Product) Kind() Kind { return KindProduct }

func (x *Product) String() string { return nary("*", x.Factors) }

// Power raises Base to Exponent.
type Power struct {
	Base     Expr
	Exponent Expr
}

func (x *Power) exprNode() {}

func (x *Power) Kind() Kind { return KindPower }

func (x *Power) String() string { return nary("^", []Expr{x.Base, x.Exponent}) }

// Call applies a named unary function to Arg. The name is not restricted
// here; compilers reject functions they cannot map.
type Call struct {
	Func string
	Arg  Expr
}

func (x *Call) exprNode() {}

func (x *Call) Kind() Kind { return KindCall }

func (x *Call) String() string { return nary(x.Func, []Expr{x.Arg}) }

func nary(op string, args []Expr) string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(op)
	for _, arg := range args {
		out.WriteString(" ")
		out.WriteString(arg.String())
	}
	out.WriteString(")")
	return out.String()
}

// Num returns a real constant.
func Num(v float64) *Constant { return &Constant{Value: complex(v, 0)} }

// Complex returns a complex constant.
func Complex(v complex128) *Constant { return &Constant{Value: v} }

// Var returns a variable reference.
func Var(name string) *Variable { return &Variable{Name: name} }

// Add returns the sum of the given terms.
func Add(terms ...Expr) *Sum { return &Sum{Terms: terms} }

// Mul returns the product of the given factors.
func Mul(factors ...Expr) *Product { return &Product{Factors: factors} }

// Pow returns base raised to exponent.
func Pow(base, exponent Expr) *Power { return &Power{Base: base, Exponent: exponent} }

// Fn returns a call of the named function.
func Fn(name string, arg Expr) *Call { return &Call{Func: name, Arg: arg} }

// Abs returns |arg|.
func Abs(arg Expr) *Call { return Fn("abs", arg) }

// Log returns the natural logarithm of arg.
func Log(arg Expr) *Call { return Fn("log", arg) }

// Exp returns e raised to arg.
func Exp(arg Expr) *Call { return Fn("exp", arg) }

// Neg returns -x expressed as a product with -1.
func Neg(x Expr) *Product { return Mul(x, Num(-1)) }

// Sub returns a - b expressed as a + (b * -1).
func Sub(a, b Expr) *Sum { return Add(a, Neg(b)) }

// Div returns a / b expressed as a * b^-1.
func Div(a, b Expr) *Product { return Mul(a, Pow(b, Num(-1))) }
