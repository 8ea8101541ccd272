// Package native compiles expressions ahead of time into trees of Go
// closures, one per statement, and calls them directly with no interpreter
// loop or value stack.
//
// Compilation runs the regular assembler and optimizer, rebuilds the
// dependence forest of the finalized bytecode, and lowers every node into a
// closure specialized for its opcode and operand shape. The result has the
// same contract as the bytecode backends.
package native

import (
	"fmt"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/op"
	"github.com/deepnoodle-ai/kinetic/optimizer"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

type (
	expr[S scalar.Scalar]      func(input []S) S
	statement[S scalar.Scalar] func(input, output []S)
)

// Code is a compiled function from an input vector to an output vector.
type Code[S scalar.Scalar] struct {
	statements []statement[S]
	source     *bytecode.Code
}

// Run evaluates every statement. input must hold at least InputSize values
// and output at least OutputSize.
func (c *Code[S]) Run(input, output []S) {
	for _, stmt := range c.statements {
		stmt(input, output)
	}
}

// Source returns the finalized bytecode the closures were lowered from.
func (c *Code[S]) Source() *bytecode.Code {
	return c.source
}

// InputSize returns the minimum length of the input vector.
func (c *Code[S]) InputSize() int {
	return c.source.InputSize()
}

// OutputSize returns the minimum length of the output vector.
func (c *Code[S]) OutputSize() int {
	return c.source.OutputSize()
}

// Compiler builds native Code for scalar type S.
type Compiler[S scalar.Scalar] struct {
	assembler *compiler.Compiler
	code      *Code[S]
}

// New returns a Compiler resolving variables through symbols. Options are
// passed to the underlying assembler.
func New[S scalar.Scalar](symbols *compiler.SymbolTable, opts ...compiler.Option) *Compiler[S] {
	return &Compiler[S]{assembler: compiler.New(symbols, opts...)}
}

// CompileExpressionAndStore adds a statement storing node into slot.
func (c *Compiler[S]) CompileExpressionAndStore(node ast.Expr, slot int) error {
	return c.assembler.CompileExpressionAndStore(node, slot)
}

// CompileVector compiles es[i] into output slot offset+i.
func (c *Compiler[S]) CompileVector(es []ast.Expr, offset int) error {
	return compiler.CompileVector(c, es, offset)
}

// CompileMatrix compiles rows starting at output slot offset.
func (c *Compiler[S]) CompileMatrix(rows [][]ast.Expr, order compiler.Order, offset int) error {
	return compiler.CompileMatrix(c, rows, order, offset)
}

// Finalize assembles and optimizes the statements at the given level, then
// lowers them to closures.
func (c *Compiler[S]) Finalize(level int) error {
	if err := c.assembler.Finalize(level); err != nil {
		return err
	}
	code, err := Lower[S](c.assembler.Code())
	if err != nil {
		return err
	}
	c.code = code
	return nil
}

// Code returns the compiled code, or nil before Finalize.
func (c *Compiler[S]) Code() *Code[S] {
	return c.code
}

// Lower turns valid bytecode into native Code.
func Lower[S scalar.Scalar](code *bytecode.Code) (*Code[S], error) {
	forest, err := optimizer.Build(code)
	if err != nil {
		return nil, err
	}
	l := lowering[S]{ops: scalar.For[S]()}
	out := &Code[S]{source: code, statements: make([]statement[S], len(forest.Roots))}
	for i, root := range forest.Roots {
		stmt, err := l.statement(root)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		out.statements[i] = stmt
	}
	return out, nil
}

type lowering[S scalar.Scalar] struct {
	ops *scalar.Ops[S]
}

func (l lowering[S]) statement(v *optimizer.Value) (statement[S], error) {
	slot := v.Inst.Imm.Index()
	switch v.Op() {
	case op.Store:
		x, err := l.expr(v.Args[0])
		if err != nil {
			return nil, err
		}
		return func(input, output []S) { output[slot] = x(input) }, nil
	case op.StoreZero:
		return func(_, output []S) { output[slot] = 0 }, nil
	default:
		return nil, errz.Validationf(-1, "%s cannot start a statement", v.Op())
	}
}

func (l lowering[S]) expr(v *optimizer.Value) (expr[S], error) {
	switch v.Op() {
	case op.Load:
		slot := v.Inst.Imm.Index()
		return func(input []S) S { return input[slot] }, nil
	case op.Push:
		c := l.ops.FromComplex(v.Inst.Imm.Value())
		return func([]S) S { return c }, nil
	case op.Call:
		x, err := l.expr(v.Args[0])
		if err != nil {
			return nil, err
		}
		fn := l.ops.Func(v.Inst.Function())
		return func(input []S) S { return fn(x(input)) }, nil
	case op.Add, op.Sub, op.Mul, op.Div, op.Pow:
		if v.Inst.HasImmediate() {
			x, err := l.expr(v.Args[0])
			if err != nil {
				return nil, err
			}
			return l.immediate(v.Op(), x, l.ops.FromComplex(v.Inst.Imm.Value())), nil
		}
		a, err := l.expr(v.Args[0])
		if err != nil {
			return nil, err
		}
		b, err := l.expr(v.Args[1])
		if err != nil {
			return nil, err
		}
		return l.binary(v.Op(), a, b), nil
	default:
		return nil, errz.Validationf(-1, "%s does not produce a value", v.Op())
	}
}

func (l lowering[S]) immediate(code op.Code, x expr[S], c S) expr[S] {
	switch code {
	case op.Add:
		return func(input []S) S { return x(input) + c }
	case op.Sub:
		return func(input []S) S { return x(input) - c }
	case op.Mul:
		return func(input []S) S { return x(input) * c }
	case op.Div:
		return func(input []S) S { return x(input) / c }
	default:
		pow := l.ops.Pow
		return func(input []S) S { return pow(x(input), c) }
	}
}

func (l lowering[S]) binary(code op.Code, a, b expr[S]) expr[S] {
	switch code {
	case op.Add:
		return func(input []S) S { return a(input) + b(input) }
	case op.Sub:
		return func(input []S) S { return a(input) - b(input) }
	case op.Mul:
		return func(input []S) S { return a(input) * b(input) }
	case op.Div:
		return func(input []S) S { return a(input) / b(input) }
	default:
		pow := l.ops.Pow
		return func(input []S) S { return pow(a(input), b(input)) }
	}
}

// Interpreter adapts native Code to the interpreter role. It holds no
// scratch state, so unlike the bytecode interpreter it is safe for
// concurrent use.
type Interpreter[S scalar.Scalar] struct {
	code *Code[S]
}

// NewInterpreter returns an interpreter with no code.
func NewInterpreter[S scalar.Scalar]() *Interpreter[S] {
	return &Interpreter[S]{}
}

// SetCode points the interpreter at code.
func (in *Interpreter[S]) SetCode(code *Code[S]) error {
	if code == nil {
		return fmt.Errorf("nil code")
	}
	in.code = code
	return nil
}

// Run calls the compiled code.
func (in *Interpreter[S]) Run(input, output []S) {
	if in.code != nil {
		in.code.Run(input, output)
	}
}

// InputSize returns the minimum length of the input vector.
func (in *Interpreter[S]) InputSize() int {
	if in.code == nil {
		return 0
	}
	return in.code.InputSize()
}

// OutputSize returns the minimum length of the output vector.
func (in *Interpreter[S]) OutputSize() int {
	if in.code == nil {
		return 0
	}
	return in.code.OutputSize()
}
