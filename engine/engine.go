// Package engine defines the backend abstraction shared by every way of
// evaluating compiled expressions.
//
// An engine is a triad: an artifact type C (the compiled code), a Compiler
// that builds C from expression trees and a SymbolTable, and an Interpreter
// that runs C against input and output vectors of scalar type S. Client code
// written against Engine[C, S] works unchanged with any backend.
package engine

import (
	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/direct"
	"github.com/deepnoodle-ai/kinetic/native"
	"github.com/deepnoodle-ai/kinetic/scalar"
	"github.com/deepnoodle-ai/kinetic/vm"
)

// Compiler builds an artifact of type C.
type Compiler[C any] interface {
	CompileExpressionAndStore(node ast.Expr, slot int) error
	CompileVector(es []ast.Expr, offset int) error
	CompileMatrix(rows [][]ast.Expr, order compiler.Order, offset int) error
	Finalize(level int) error
	Code() C
}

// Interpreter runs an artifact of type C with scalars of type S.
type Interpreter[C any, S scalar.Scalar] interface {
	SetCode(code C) error
	Run(input, output []S)
	InputSize() int
	OutputSize() int
}

// Engine creates the compiler and interpreter of one backend.
type Engine[C any, S scalar.Scalar] interface {
	Name() string
	NewCompiler(symbols *compiler.SymbolTable) Compiler[C]
	NewInterpreter() Interpreter[C, S]
}

// Bytecode compiles to bytecode run by the stack-machine interpreter.
type Bytecode[S scalar.Scalar] struct {
	Options []compiler.Option
}

func (Bytecode[S]) Name() string { return "bytecode" }

func (e Bytecode[S]) NewCompiler(symbols *compiler.SymbolTable) Compiler[*bytecode.Code] {
	return compiler.New(symbols, e.Options...)
}

func (Bytecode[S]) NewInterpreter() Interpreter[*bytecode.Code, S] {
	return vm.New[S]()
}

// Parallel compiles to bytecode split round-robin into Workers fragments
// that run concurrently.
type Parallel[S scalar.Scalar] struct {
	Workers int
	Options []compiler.Option
}

func (Parallel[S]) Name() string { return "parallel" }

func (e Parallel[S]) NewCompiler(symbols *compiler.SymbolTable) Compiler[[]*bytecode.Code] {
	return compiler.NewParallel(symbols, e.Workers, e.Options...)
}

func (Parallel[S]) NewInterpreter() Interpreter[[]*bytecode.Code, S] {
	return vm.NewParallel[S]()
}

// Direct records expression trees and reduces them on every call.
type Direct[S scalar.Scalar] struct {
	Options []direct.Option
}

func (Direct[S]) Name() string { return "direct" }

func (e Direct[S]) NewCompiler(symbols *compiler.SymbolTable) Compiler[*direct.Code] {
	return direct.New(symbols, e.Options...)
}

func (Direct[S]) NewInterpreter() Interpreter[*direct.Code, S] {
	return direct.NewInterpreter[S]()
}

// Native compiles to closures called without an interpreter loop.
type Native[S scalar.Scalar] struct {
	Options []compiler.Option
}

func (Native[S]) Name() string { return "native" }

func (e Native[S]) NewCompiler(symbols *compiler.SymbolTable) Compiler[*native.Code[S]] {
	return native.New[S](symbols, e.Options...)
}

func (Native[S]) NewInterpreter() Interpreter[*native.Code[S], S] {
	return native.NewInterpreter[S]()
}

var (
	_ Engine[*bytecode.Code, float64]              = Bytecode[float64]{}
	_ Engine[[]*bytecode.Code, complex128]         = Parallel[complex128]{}
	_ Engine[*direct.Code, float64]                = Direct[float64]{}
	_ Engine[*native.Code[complex128], complex128] = Native[complex128]{}
)
