// Package scalar provides the arithmetic used by every backend for the two
// supported value types, float64 and complex128.
//
// Operations that differ between the two types (power, the builtin
// functions, conversion from constants) are resolved once into an Ops table
// so that hot loops never type-switch.
package scalar

import (
	"math"
	"math/cmplx"

	"github.com/deepnoodle-ai/kinetic/op"
)

// Scalar is the set of value types an interpreter can be instantiated with.
type Scalar interface {
	float64 | complex128
}

// Ops is the arithmetic table for one scalar type.
type Ops[S Scalar] struct {
	// Name is "real" or "complex".
	Name string
	// FromComplex converts a constant. Real scalars keep the real part.
	FromComplex func(v complex128) S
	// ToComplex widens a value for display and comparison.
	ToComplex func(v S) complex128
	// Pow raises a to b.
	Pow func(a, b S) S
	// funcs is indexed by op.Function.
	funcs [4]func(S) S
}

// Func returns the implementation of the given builtin function. It panics
// for functions outside the builtin set, which validated code never
// contains.
func (o *Ops[S]) Func(f op.Function) func(S) S {
	return o.funcs[f]
}

// Apply evaluates the builtin function f at v.
func (o *Ops[S]) Apply(f op.Function, v S) S {
	return o.funcs[f](v)
}

var realOps = Ops[float64]{
	Name:        "real",
	FromComplex: func(v complex128) float64 { return real(v) },
	ToComplex:   func(v float64) complex128 { return complex(v, 0) },
	Pow:         math.Pow,
	funcs: [4]func(float64) float64{
		op.Abs: math.Abs,
		op.Log: math.Log,
		op.Exp: math.Exp,
	},
}

var complexOps = Ops[complex128]{
	Name:        "complex",
	FromComplex: func(v complex128) complex128 { return v },
	ToComplex:   func(v complex128) complex128 { return v },
	Pow:         complexPow,
	funcs: [4]func(complex128) complex128{
		op.Abs: func(v complex128) complex128 { return complex(cmplx.Abs(v), 0) },
		op.Log: cmplx.Log,
		op.Exp: cmplx.Exp,
	},
}

// complexPow follows cmplx.Pow except that a real base with a real exponent
// is computed with math.Pow when the result is real: the base is
// non-negative or the exponent is an integer. Such results match the real
// backend bit for bit and carry no rounding noise in the imaginary part.
func complexPow(a, b complex128) complex128 {
	if imag(a) == 0 && imag(b) == 0 && (real(a) >= 0 || real(b) == math.Trunc(real(b))) {
		return complex(math.Pow(real(a), real(b)), 0)
	}
	return cmplx.Pow(a, b)
}

// For returns the arithmetic table for S.
func For[S Scalar]() *Ops[S] {
	var zero S
	switch any(zero).(type) {
	case float64:
		return any(&realOps).(*Ops[S])
	default:
		return any(&complexOps).(*Ops[S])
	}
}

// FoldReal evaluates a builtin function on a real constant at compile time.
func FoldReal(f op.Function, v float64) float64 {
	return realOps.Apply(f, v)
}

// FoldComplex evaluates a builtin function on a complex constant at compile
// time.
func FoldComplex(f op.Function, v complex128) complex128 {
	return complexOps.Apply(f, v)
}
