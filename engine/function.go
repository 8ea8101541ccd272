package engine

import (
	"fmt"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// Evaluator maps an input vector to an output vector.
type Evaluator[S scalar.Scalar] interface {
	// Eval returns a fresh output vector of OutputSize values.
	Eval(input []S) ([]S, error)
	// EvalInto writes into output, which must hold OutputSize values.
	EvalInto(input, output []S) error
	InputSize() int
	OutputSize() int
}

// Function is a vector or matrix of expressions compiled once by an engine
// and evaluated any number of times. It is written against the Engine
// interface only, so every backend is usable through it.
//
// A Function is not safe for concurrent use.
type Function[C any, S scalar.Scalar] struct {
	engine      string
	code        C
	interpreter Interpreter[C, S]
}

// NewVector compiles es into output slots 0..len(es)-1 at the given
// optimization level.
func NewVector[C any, S scalar.Scalar](
	e Engine[C, S],
	symbols *compiler.SymbolTable,
	es []ast.Expr,
	level int,
) (*Function[C, S], error) {
	return build(e, symbols, level, func(c Compiler[C]) error {
		return c.CompileVector(es, 0)
	})
}

// NewMatrix compiles a rectangular matrix of expressions into the output
// vector in the given order.
func NewMatrix[C any, S scalar.Scalar](
	e Engine[C, S],
	symbols *compiler.SymbolTable,
	rows [][]ast.Expr,
	order compiler.Order,
	level int,
) (*Function[C, S], error) {
	return build(e, symbols, level, func(c Compiler[C]) error {
		return c.CompileMatrix(rows, order, 0)
	})
}

func build[C any, S scalar.Scalar](
	e Engine[C, S],
	symbols *compiler.SymbolTable,
	level int,
	compile func(Compiler[C]) error,
) (*Function[C, S], error) {
	c := e.NewCompiler(symbols)
	if err := compile(c); err != nil {
		return nil, fmt.Errorf("%s backend: %w", e.Name(), err)
	}
	if err := c.Finalize(level); err != nil {
		return nil, fmt.Errorf("%s backend: %w", e.Name(), err)
	}
	code := c.Code()
	interpreter := e.NewInterpreter()
	if err := interpreter.SetCode(code); err != nil {
		return nil, fmt.Errorf("%s backend: %w", e.Name(), err)
	}
	return &Function[C, S]{engine: e.Name(), code: code, interpreter: interpreter}, nil
}

// Engine returns the name of the engine that compiled the function.
func (f *Function[C, S]) Engine() string {
	return f.engine
}

// Code returns the compiled artifact.
func (f *Function[C, S]) Code() C {
	return f.code
}

// InputSize returns the minimum length of the input vector.
func (f *Function[C, S]) InputSize() int {
	return f.interpreter.InputSize()
}

// OutputSize returns the length of the output vector.
func (f *Function[C, S]) OutputSize() int {
	return f.interpreter.OutputSize()
}

// Run evaluates without checking vector lengths.
func (f *Function[C, S]) Run(input, output []S) {
	f.interpreter.Run(input, output)
}

// EvalInto checks vector lengths and evaluates into output.
func (f *Function[C, S]) EvalInto(input, output []S) error {
	if len(input) < f.InputSize() {
		return fmt.Errorf("input has %d values, expected at least %d", len(input), f.InputSize())
	}
	if len(output) < f.OutputSize() {
		return fmt.Errorf("output has %d values, expected at least %d", len(output), f.OutputSize())
	}
	f.interpreter.Run(input, output)
	return nil
}

// Eval evaluates into a new output vector.
func (f *Function[C, S]) Eval(input []S) ([]S, error) {
	output := make([]S, f.OutputSize())
	if err := f.EvalInto(input, output); err != nil {
		return nil, err
	}
	return output, nil
}
