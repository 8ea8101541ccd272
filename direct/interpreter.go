package direct

import (
	"fmt"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// Interpreter evaluates direct Code with scalars of type S.
type Interpreter[S scalar.Scalar] struct {
	code *Code
	ops  *scalar.Ops[S]
}

// NewInterpreter returns an interpreter with no code.
func NewInterpreter[S scalar.Scalar]() *Interpreter[S] {
	return &Interpreter[S]{ops: scalar.For[S]()}
}

// SetCode points the interpreter at code.
func (in *Interpreter[S]) SetCode(code *Code) error {
	if code == nil {
		return fmt.Errorf("nil code")
	}
	in.code = code
	return nil
}

// Code returns the current code, or nil.
func (in *Interpreter[S]) Code() *Code {
	return in.code
}

// InputSize returns the minimum length of the input vector.
func (in *Interpreter[S]) InputSize() int {
	if in.code == nil {
		return 0
	}
	return in.code.inputSize
}

// OutputSize returns the minimum length of the output vector.
func (in *Interpreter[S]) OutputSize() int {
	if in.code == nil {
		return 0
	}
	return in.code.outputSize
}

// Run substitutes input into every recorded expression and stores the
// reduced values.
func (in *Interpreter[S]) Run(input, output []S) {
	if in.code == nil {
		return
	}
	symbols := in.code.symbols
	lookup := func(name string) (complex128, bool) {
		slot, ok := symbols.Lookup(name)
		if !ok {
			return 0, false
		}
		return in.ops.ToComplex(input[slot]), true
	}
	for _, stmt := range in.code.statements {
		// Symbols and functions were checked at compile time, so reduction
		// cannot fail here.
		value, _ := Reduce[S](ast.Substitute(stmt.Expr, lookup), in.code.functions)
		output[stmt.Slot] = value
	}
}

// Reduce evaluates a variable-free expression tree. Sums and products fold
// left to right, in the same order as compiled bytecode.
func Reduce[S scalar.Scalar](node ast.Expr, functions compiler.FunctionTable) (S, error) {
	return reducer[S]{ops: scalar.For[S](), functions: functions}.reduce(node)
}

type reducer[S scalar.Scalar] struct {
	ops       *scalar.Ops[S]
	functions compiler.FunctionTable
}

func (r reducer[S]) reduce(node ast.Expr) (S, error) {
	switch node := node.(type) {
	case *ast.Constant:
		return r.ops.FromComplex(node.Value), nil
	case *ast.Variable:
		return 0, fmt.Errorf("unbound variable %q", node.Name)
	case *ast.Sum:
		return r.fold(node.Terms, 0, func(a, b S) S { return a + b })
	case *ast.Product:
		return r.fold(node.Factors, 1, func(a, b S) S { return a * b })
	case *ast.Power:
		base, err := r.reduce(node.Base)
		if err != nil {
			return 0, err
		}
		exponent, err := r.reduce(node.Exponent)
		if err != nil {
			return 0, err
		}
		return r.ops.Pow(base, exponent), nil
	case *ast.Call:
		fn, err := r.functions.Resolve(node.Func)
		if err != nil {
			return 0, err
		}
		arg, err := r.reduce(node.Arg)
		if err != nil {
			return 0, err
		}
		return r.ops.Apply(fn, arg), nil
	default:
		return 0, fmt.Errorf("unknown expression type: %T", node)
	}
}

func (r reducer[S]) fold(operands []ast.Expr, neutral S, combine func(a, b S) S) (S, error) {
	if len(operands) == 0 {
		return neutral, nil
	}
	acc, err := r.reduce(operands[0])
	if err != nil {
		return 0, err
	}
	for _, operand := range operands[1:] {
		value, err := r.reduce(operand)
		if err != nil {
			return 0, err
		}
		acc = combine(acc, value)
	}
	return acc, nil
}
