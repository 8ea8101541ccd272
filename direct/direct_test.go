package direct

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/op"
)

func TestDirectEvaluation(t *testing.T) {
	x, y := ast.Var("x"), ast.Var("y")
	c := New(compiler.NewSymbolTable("x", "y"))
	require.NoError(t, c.CompileVector([]ast.Expr{
		ast.Add(x, ast.Num(0)),
		ast.Log(ast.Num(1)),
		ast.Mul(x, y, ast.Num(2)),
		ast.Div(ast.Exp(x), ast.Abs(y)),
		ast.Pow(y, ast.Num(2)),
		ast.Add(),
		ast.Mul(),
	}, 0))
	require.NoError(t, c.Finalize(2))

	code := c.Code()
	require.Equal(t, 2, code.InputSize())
	require.Equal(t, 7, code.OutputSize())
	require.Len(t, code.Statements(), 7)

	in := NewInterpreter[float64]()
	require.NoError(t, in.SetCode(code))
	output := make([]float64, in.OutputSize())
	in.Run([]float64{3.5, -2}, output)
	require.Equal(t, 3.5, output[0])
	require.Equal(t, 0.0, output[1])
	require.Equal(t, -14.0, output[2])
	require.InDelta(t, math.Exp(3.5)/2, output[3], 1e-12)
	require.Equal(t, 4.0, output[4])
	require.Equal(t, 0.0, output[5])
	require.Equal(t, 1.0, output[6])
}

func TestDirectComplex(t *testing.T) {
	c := New(compiler.NewSymbolTable("z"))
	require.NoError(t, c.CompileExpressionAndStore(ast.Log(ast.Var("z")), 1))
	require.NoError(t, c.Finalize(0))

	in := NewInterpreter[complex128]()
	require.NoError(t, in.SetCode(c.Code()))
	output := make([]complex128, 2)
	in.Run([]complex128{-1}, output)
	require.Equal(t, complex(0, math.Pi), output[1])
	require.Equal(t, complex128(0), output[0])
}

func TestDirectCompileErrors(t *testing.T) {
	c := New(compiler.NewSymbolTable("x"))
	err := c.CompileExpressionAndStore(ast.Add(ast.Var("x"), ast.Var("q")), 0)
	require.True(t, errz.IsKind(err, errz.ErrSymbol))

	err = c.CompileExpressionAndStore(ast.Fn("cos", ast.Var("x")), 0)
	require.True(t, errz.IsKind(err, errz.ErrUnsupportedFunction))

	require.Error(t, c.CompileExpressionAndStore(ast.Num(1), -2))
	require.Error(t, c.CompileExpressionAndStore(nil, 0))
	require.Empty(t, c.Code().Statements())
	require.Equal(t, 0, c.Code().InputSize())

	require.NoError(t, c.Finalize(0))
	require.True(t, errz.IsKind(c.Finalize(0), errz.ErrState))
	require.True(t, errz.IsKind(c.CompileExpressionAndStore(ast.Num(1), 0), errz.ErrState))
}

func TestDirectFunctionTable(t *testing.T) {
	table := compiler.NewFunctionTable(map[string]op.Function{"ln": op.Log})
	c := New(compiler.NewSymbolTable("x"), WithFunctionTable(table))
	require.NoError(t, c.CompileExpressionAndStore(ast.Fn("ln", ast.Var("x")), 0))
	require.Error(t, c.CompileExpressionAndStore(ast.Exp(ast.Var("x")), 1))

	in := NewInterpreter[float64]()
	require.NoError(t, in.SetCode(c.Code()))
	output := make([]float64, 1)
	in.Run([]float64{math.E}, output)
	require.InDelta(t, 1, output[0], 1e-15)
}

func TestReduce(t *testing.T) {
	fns := compiler.DefaultFunctions()

	v, err := Reduce[float64](ast.Add(ast.Num(1), ast.Mul(ast.Num(2), ast.Num(3))), fns)
	require.NoError(t, err)
	require.Equal(t, 7.0, v)

	_, err = Reduce[float64](ast.Add(ast.Num(1), ast.Var("x")), fns)
	require.Error(t, err)

	_, err = Reduce[complex128](ast.Fn("sin", ast.Num(1)), fns)
	require.True(t, errz.IsKind(err, errz.ErrUnsupportedFunction))

	c, err := Reduce[complex128](ast.Pow(ast.Complex(1i), ast.Num(2)), fns)
	require.NoError(t, err)
	require.InDelta(t, -1, real(c), 1e-15)
}

func TestInterpreterWithoutCode(t *testing.T) {
	in := NewInterpreter[float64]()
	require.Nil(t, in.Code())
	require.Equal(t, 0, in.InputSize())
	require.Equal(t, 0, in.OutputSize())
	in.Run(nil, nil)
	require.Error(t, in.SetCode(nil))
}
