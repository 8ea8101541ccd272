// Package compiler assembles expression trees into bytecode.
//
// A Compiler owns one Code object. Each call to CompileExpressionAndStore
// appends an independent statement: the expression's instructions in
// post-order (operands before operators) followed by a STORE to the requested
// output slot. All statements share one SymbolTable, which maps variable
// names to input slots.
//
// Once every expression has been compiled, Finalize validates the code and,
// at optimization level 1 and above, runs it through the optimizer. After
// Finalize the Compiler is frozen and the Code may be handed to any number of
// interpreters.
package compiler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/optimizer"
)

// Compiler is used to compile expression trees into bytecode.
type Compiler struct {
	// The code being built. Replaced by its optimized form in Finalize.
	code *bytecode.Code

	// Shared, read-only variable to input slot mapping
	symbols *SymbolTable

	// Function name bindings, fixed at construction
	functions FunctionTable

	// Optional override of the optimizer passes
	passes []optimizer.Pass

	logger zerolog.Logger

	finalized bool
	stats     optimizer.Stats
}

// New returns a Compiler that resolves variables through symbols.
func New(symbols *SymbolTable, opts ...Option) *Compiler {
	if symbols == nil {
		symbols = NewSymbolTable()
	}
	c := &Compiler{
		code:      bytecode.New(),
		symbols:   symbols,
		functions: DefaultFunctions(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Symbols returns the symbol table used to resolve variables.
func (c *Compiler) Symbols() *SymbolTable {
	return c.symbols
}

// Code returns the code compiled so far, or the finalized code once Finalize
// has succeeded.
func (c *Compiler) Code() *bytecode.Code {
	return c.code
}

// Finalized reports whether Finalize has succeeded.
func (c *Compiler) Finalized() bool {
	return c.finalized
}

// Stats returns the optimizer statistics recorded by Finalize.
func (c *Compiler) Stats() optimizer.Stats {
	return c.stats
}

// CompileExpressionAndStore appends a statement that evaluates node and
// stores the result in output[slot]. On error the code is left unchanged.
func (c *Compiler) CompileExpressionAndStore(node ast.Expr, slot int) error {
	if c.finalized {
		return errz.Statef("cannot compile into finalized code %s", c.code.ID())
	}
	if slot < 0 {
		return fmt.Errorf("invalid output slot %d", slot)
	}
	scratch := bytecode.New()
	if err := c.compile(scratch, node); err != nil {
		return err
	}
	scratch.Append(bytecode.Store(slot))
	c.code.AppendCode(scratch)
	return nil
}

func (c *Compiler) compile(code *bytecode.Code, node ast.Expr) error {
	switch node := node.(type) {
	case *ast.Constant:
		code.Append(bytecode.PushValue(node.Value))
	case *ast.Variable:
		slot, ok := c.symbols.Lookup(node.Name)
		if !ok {
			return errz.UndefinedSymbol(node.Name, c.symbols.Names())
		}
		code.Append(bytecode.Load(slot))
	case *ast.Sum:
		return c.compileFold(code, node.Terms, bytecode.Add(), 0)
	case *ast.Product:
		return c.compileFold(code, node.Factors, bytecode.Mul(), 1)
	case *ast.Power:
		if err := c.compile(code, node.Base); err != nil {
			return err
		}
		if err := c.compile(code, node.Exponent); err != nil {
			return err
		}
		code.Append(bytecode.Pow())
	case *ast.Call:
		fn, err := c.functions.Resolve(node.Func)
		if err != nil {
			return err
		}
		if err := c.compile(code, node.Arg); err != nil {
			return err
		}
		code.Append(bytecode.Call(fn))
	case nil:
		return fmt.Errorf("nil expression")
	default:
		return fmt.Errorf("unknown expression type: %T", node)
	}
	return nil
}

// compileFold emits every operand followed by len(operands)-1 copies of
// inst, which folds the operands left to right. An empty operand list
// compiles to the operation's neutral element.
func (c *Compiler) compileFold(code *bytecode.Code, operands []ast.Expr, inst bytecode.Instruction, neutral float64) error {
	if len(operands) == 0 {
		code.Append(bytecode.Push(neutral))
		return nil
	}
	for _, operand := range operands {
		if err := c.compile(code, operand); err != nil {
			return err
		}
	}
	for i := 1; i < len(operands); i++ {
		code.Append(inst)
	}
	return nil
}

// Finalize validates the compiled code and, at level 1 and above, replaces it
// with its optimized form. It must be called exactly once, after the last
// expression has been compiled.
func (c *Compiler) Finalize(level int) error {
	if c.finalized {
		return errz.Statef("code %s is already finalized", c.code.ID())
	}
	opts := []optimizer.Option{optimizer.WithLogger(c.logger)}
	if c.passes != nil {
		opts = append(opts, optimizer.WithPasses(c.passes...))
	}
	optimized, stats, err := optimizer.Optimize(c.code, level, opts...)
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	c.code = optimized
	c.stats = stats
	c.finalized = true
	c.logger.Debug().
		Str("code", c.code.ID()).
		Int("opt_level", level).
		Int("instructions", c.code.Len()).
		Int("stack", c.code.MinStackSize()).
		Int("inputs", c.code.InputSize()).
		Int("outputs", c.code.OutputSize()).
		Msg("finalized")
	return nil
}
