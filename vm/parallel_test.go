package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/compiler"
)

func batch(k int) []ast.Expr {
	x, y, z := ast.Var("x"), ast.Var("y"), ast.Var("z")
	es := make([]ast.Expr, k)
	for i := range es {
		c := ast.Num(float64(i + 1))
		switch i % 4 {
		case 0:
			es[i] = ast.Add(ast.Mul(c, x), y)
		case 1:
			es[i] = ast.Exp(ast.Mul(ast.Neg(y), c))
		case 2:
			es[i] = ast.Pow(ast.Add(x, z), c)
		default:
			es[i] = ast.Log(ast.Abs(ast.Sub(z, c)))
		}
	}
	return es
}

func TestParallelMatchesSingleWorker(t *testing.T) {
	const k = 13
	symbols := compiler.NewSymbolTable("x", "y", "z")
	input := []float64{0.5, 1.25, -2}

	single := compiler.New(symbols)
	require.NoError(t, single.CompileVector(batch(k), 0))
	require.NoError(t, single.Finalize(1))
	want, err := Run(single.Code(), input)
	require.NoError(t, err)

	for workers := 1; workers <= k; workers++ {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			pc := compiler.NewParallel(symbols, workers)
			require.NoError(t, pc.CompileVector(batch(k), 0))
			require.NoError(t, pc.Finalize(1))

			p := NewParallel[float64]()
			require.NoError(t, p.SetCode(pc.Code()))
			require.Equal(t, workers, p.Workers())
			require.Equal(t, k, p.OutputSize())
			require.Equal(t, 3, p.InputSize())

			got, err := p.Eval(input)
			require.NoError(t, err)
			require.Equal(t, want, got)
		})
	}
}

func TestParallelRejectsOverlappingFragments(t *testing.T) {
	a := bytecode.FromInstructions(bytecode.Load(0), bytecode.Store(1))
	b := bytecode.FromInstructions(bytecode.Push(1), bytecode.Store(1))
	err := NewParallel[float64]().SetCode([]*bytecode.Code{a, b})
	require.Error(t, err)
	require.Contains(t, err.Error(), "slot 1")
}

func TestParallelEmpty(t *testing.T) {
	p := NewParallel[complex128]()
	p.Run(nil, nil)
	out, err := p.Eval(nil)
	require.NoError(t, err)
	require.Empty(t, out)

	_, err = NewParallel[float64]().Eval(nil)
	require.NoError(t, err)

	invalid := bytecode.FromInstructions(bytecode.Add())
	require.Error(t, p.SetCode([]*bytecode.Code{invalid}))
}

func TestParallelRepeatedSlotMatchesSingle(t *testing.T) {
	symbols := compiler.NewSymbolTable("x")
	compile := func(c compiler.Target) {
		require.NoError(t, c.CompileExpressionAndStore(ast.Num(3), 0))
		require.NoError(t, c.CompileExpressionAndStore(ast.Var("x"), 1))
		require.NoError(t, c.CompileExpressionAndStore(ast.Num(7), 0))
	}
	single := compiler.New(symbols)
	compile(single)
	require.NoError(t, single.Finalize(0))
	want, err := Run[float64](single.Code(), []float64{5})
	require.NoError(t, err)
	require.Equal(t, []float64{7, 5}, want)

	for workers := 1; workers <= 3; workers++ {
		p := compiler.NewParallel(symbols, workers)
		compile(p)
		require.NoError(t, p.Finalize(0))
		interp := NewParallel[float64]()
		require.NoError(t, interp.SetCode(p.Code()), "workers=%d", workers)
		got, err := interp.Eval([]float64{5})
		require.NoError(t, err)
		require.Equal(t, want, got, "workers=%d", workers)
	}
}
