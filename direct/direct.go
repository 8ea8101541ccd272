// Package direct is the reference backend. Its compiler only records which
// expression goes to which output slot; its interpreter substitutes the input
// values into every expression tree and reduces the result on each call.
//
// Nothing is compiled or optimized, which makes it slow but easy to trust.
// It is used as the oracle that the other backends are checked against.
package direct

import (
	"fmt"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/errz"
)

// Statement is an expression and the output slot it is stored to.
type Statement struct {
	Expr ast.Expr
	Slot int
}

// Code is the artifact of the direct backend.
type Code struct {
	statements []Statement
	symbols    *compiler.SymbolTable
	functions  compiler.FunctionTable
	inputSize  int
	outputSize int
}

// Statements returns the recorded statements in compilation order.
func (c *Code) Statements() []Statement {
	return c.statements
}

// InputSize returns the minimum length of the input vector.
func (c *Code) InputSize() int {
	return c.inputSize
}

// OutputSize returns the minimum length of the output vector.
func (c *Code) OutputSize() int {
	return c.outputSize
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithFunctionTable replaces the default function name bindings.
func WithFunctionTable(table compiler.FunctionTable) Option {
	return func(c *Compiler) {
		c.code.functions = table
	}
}

// Compiler records expressions. Symbols and function names are checked when
// an expression is added so that errors surface at compile time, as they do
// for the other backends.
type Compiler struct {
	code      *Code
	finalized bool
}

// New returns a Compiler resolving variables through symbols.
func New(symbols *compiler.SymbolTable, opts ...Option) *Compiler {
	if symbols == nil {
		symbols = compiler.NewSymbolTable()
	}
	c := &Compiler{
		code: &Code{
			symbols:   symbols,
			functions: compiler.DefaultFunctions(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileExpressionAndStore records node as the value of output[slot].
func (c *Compiler) CompileExpressionAndStore(node ast.Expr, slot int) error {
	if c.finalized {
		return errz.Statef("cannot compile into finalized code")
	}
	if slot < 0 {
		return fmt.Errorf("invalid output slot %d", slot)
	}
	if node == nil {
		return fmt.Errorf("nil expression")
	}
	inputSize := c.code.inputSize
	var err error
	ast.Inspect(node, func(n ast.Expr) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case *ast.Variable:
			index, ok := c.code.symbols.Lookup(n.Name)
			if !ok {
				err = errz.UndefinedSymbol(n.Name, c.code.symbols.Names())
				return false
			}
			inputSize = max(inputSize, index+1)
		case *ast.Call:
			_, err = c.code.functions.Resolve(n.Func)
		}
		return err == nil
	})
	if err != nil {
		return err
	}
	c.code.statements = append(c.code.statements, Statement{Expr: node, Slot: slot})
	c.code.inputSize = inputSize
	c.code.outputSize = max(c.code.outputSize, slot+1)
	return nil
}

// CompileVector records es[i] as the value of output[offset+i].
func (c *Compiler) CompileVector(es []ast.Expr, offset int) error {
	return compiler.CompileVector(c, es, offset)
}

// CompileMatrix records a matrix of expressions starting at output slot
// offset.
func (c *Compiler) CompileMatrix(rows [][]ast.Expr, order compiler.Order, offset int) error {
	return compiler.CompileMatrix(c, rows, order, offset)
}

// Finalize freezes the compiler. The direct backend has nothing to
// optimize, so level is ignored.
func (c *Compiler) Finalize(level int) error {
	if c.finalized {
		return errz.Statef("code is already finalized")
	}
	c.finalized = true
	return nil
}

// Code returns the recorded statements.
func (c *Compiler) Code() *Code {
	return c.code
}
