// Package kinetic compiles vectors of arithmetic expressions once and
// evaluates them many times.
//
// Expressions are written in infix notation and compiled by one of several
// backends that all produce identical results:
//
//	prog, err := kinetic.Compile[float64](ctx, []string{
//		"alpha*x - beta*x*y",
//		"delta*x*y - gamma*y",
//	}, kinetic.WithSymbols("x", "y", "alpha", "beta", "delta", "gamma"))
//	...
//	out, err := prog.Eval([]float64{10, 5, 1.1, 0.4, 0.1, 0.4})
package kinetic

import (
	"context"
	"fmt"
	"sort"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/engine"
	"github.com/deepnoodle-ai/kinetic/model"
	"github.com/deepnoodle-ai/kinetic/parser"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// Program is a compiled vector of expressions. A Program is not safe for
// concurrent use; compile one per goroutine.
type Program[S scalar.Scalar] struct {
	evaluator engine.Evaluator[S]
	symbols   *compiler.SymbolTable
	outputs   []string
	backend   string
}

// Compile parses each source as one expression and compiles them into
// output slots in order.
func Compile[S scalar.Scalar](ctx context.Context, sources []string, opts ...Option) (*Program[S], error) {
	o := collectOptions(opts...)
	var parserOpts []parser.Option
	if o.filename != "" {
		parserOpts = append(parserOpts, parser.WithFilename(o.filename))
	}
	exprs := make([]ast.Expr, len(sources))
	for i, source := range sources {
		expr, err := parser.ParseExpr(ctx, source, parserOpts...)
		if err != nil {
			return nil, fmt.Errorf("expression %d: %w", i, err)
		}
		exprs[i] = expr
	}
	return compile[S](exprs, symbolsFor(o.symbols, exprs), nil, o)
}

// CompileExprs compiles expression trees directly.
func CompileExprs[S scalar.Scalar](exprs []ast.Expr, opts ...Option) (*Program[S], error) {
	o := collectOptions(opts...)
	return compile[S](exprs, symbolsFor(o.symbols, exprs), nil, o)
}

// CompileModel compiles every output of a model, using the model's input
// layout. WithSymbols is ignored.
func CompileModel[S scalar.Scalar](m *model.Model, opts ...Option) (*Program[S], error) {
	o := collectOptions(opts...)
	return compile[S](m.Expressions(), m.SymbolTable(), m.OutputNames(), o)
}

func compile[S scalar.Scalar](
	exprs []ast.Expr,
	symbols *compiler.SymbolTable,
	outputs []string,
	o *options,
) (*Program[S], error) {
	ev, err := engine.Compile[S](o.engineConfig(), symbols, exprs)
	if err != nil {
		return nil, err
	}
	return &Program[S]{
		evaluator: ev,
		symbols:   symbols,
		outputs:   outputs,
		backend:   o.backend,
	}, nil
}

func symbolsFor(names []string, exprs []ast.Expr) *compiler.SymbolTable {
	if len(names) > 0 {
		return compiler.NewSymbolTable(names...)
	}
	seen := map[string]bool{}
	for _, expr := range exprs {
		for _, name := range ast.Variables(expr) {
			seen[name] = true
		}
	}
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return compiler.NewSymbolTable(names...)
}

// Backend returns the name of the backend that compiled the program.
func (p *Program[S]) Backend() string {
	return p.backend
}

// Symbols returns the input names in input vector order.
func (p *Program[S]) Symbols() []string {
	return p.symbols.Names()
}

// OutputNames returns the output names when the program was compiled from
// a model.
func (p *Program[S]) OutputNames() []string {
	return p.outputs
}

// InputSize returns the minimum input vector length.
func (p *Program[S]) InputSize() int {
	return p.evaluator.InputSize()
}

// OutputSize returns the output vector length.
func (p *Program[S]) OutputSize() int {
	return p.evaluator.OutputSize()
}

// Eval evaluates the program on an input vector laid out like Symbols.
func (p *Program[S]) Eval(input []S) ([]S, error) {
	return p.evaluator.Eval(input)
}

// EvalInto evaluates into a caller-supplied output vector without
// allocating.
func (p *Program[S]) EvalInto(input, output []S) error {
	return p.evaluator.EvalInto(input, output)
}

// EvalMap evaluates the program with inputs given by name.
func (p *Program[S]) EvalMap(vars map[string]S) ([]S, error) {
	input := make([]S, max(p.symbols.Size(), p.InputSize()))
	for name, v := range vars {
		slot, ok := p.symbols.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown input %q", name)
		}
		input[slot] = v
	}
	for _, name := range p.symbols.Names() {
		if _, ok := vars[name]; !ok {
			return nil, fmt.Errorf("missing input %q", name)
		}
	}
	return p.evaluator.Eval(input)
}

// Eval compiles a single expression and evaluates it once with the given
// variables.
func Eval(ctx context.Context, source string, vars map[string]float64, opts ...Option) (float64, error) {
	prog, err := Compile[float64](ctx, []string{source}, opts...)
	if err != nil {
		return 0, err
	}
	out, err := prog.EvalMap(vars)
	if err != nil {
		return 0, err
	}
	return out[0], nil
}
