package kinetic

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/engine"
	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/model"
	"github.com/deepnoodle-ai/kinetic/op"
)

var lotkaVolterra = []string{
	"alpha*x - beta*x*y",
	"delta*x*y - gamma*y",
}

func TestCompileEveryBackend(t *testing.T) {
	ctx := context.Background()
	input := []float64{10, 5, 1.1, 0.4, 0.1, 0.4}
	want := []float64{1.1*10 - 0.4*10*5, 0.1*10*5 - 0.4*5}
	for _, backend := range engine.Backends() {
		t.Run(backend, func(t *testing.T) {
			prog, err := Compile[float64](ctx, lotkaVolterra,
				WithBackend(backend),
				WithWorkers(2),
				WithSymbols("x", "y", "alpha", "beta", "delta", "gamma"))
			require.NoError(t, err)
			require.Equal(t, backend, prog.Backend())
			require.Equal(t, 6, prog.InputSize())
			require.Equal(t, 2, prog.OutputSize())
			out, err := prog.Eval(input)
			require.NoError(t, err)
			require.InDeltaSlice(t, want, out, 1e-12)
		})
	}
}

func TestInferredSymbols(t *testing.T) {
	prog, err := Compile[float64](context.Background(), lotkaVolterra)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta", "delta", "gamma", "x", "y"}, prog.Symbols())

	out, err := prog.EvalMap(map[string]float64{
		"x": 10, "y": 5, "alpha": 1.1, "beta": 0.4, "delta": 0.1, "gamma": 0.4,
	})
	require.NoError(t, err)
	require.InDelta(t, -9.0, out[0], 1e-12)

	_, err = prog.EvalMap(map[string]float64{"x": 1})
	require.ErrorContains(t, err, "missing input")
	_, err = prog.EvalMap(map[string]float64{"w": 1})
	require.ErrorContains(t, err, `unknown input "w"`)
}

func TestEval(t *testing.T) {
	v, err := Eval(context.Background(), "log(abs(x)) + exp(0)", map[string]float64{"x": -math.E})
	require.NoError(t, err)
	require.InDelta(t, 2.0, v, 1e-15)

	_, err = Eval(context.Background(), "x +", nil)
	require.ErrorContains(t, err, "expression 0")

	_, err = Eval(context.Background(), "tan(x)", map[string]float64{"x": 1})
	require.True(t, errz.IsKind(err, errz.ErrUnsupportedFunction))
}

func TestComplexProgram(t *testing.T) {
	prog, err := Compile[complex128](context.Background(), []string{"exp(1i*pi*t)", "log(t)"},
		WithBackend(engine.BackendNative))
	require.NoError(t, err)
	out, err := prog.Eval([]complex128{-1})
	require.NoError(t, err)
	require.InDelta(t, math.Cos(-math.Pi), real(out[0]), 1e-12)
	require.InDelta(t, math.Sin(-math.Pi), imag(out[0]), 1e-12)
	require.Equal(t, complex(0, math.Pi), out[1])
}

func TestCompileModel(t *testing.T) {
	m, err := model.Parse(context.Background(), []byte(`
[[output]]
name = "rate"
expr = "k*A*B"
`))
	require.NoError(t, err)
	prog, err := CompileModel[float64](m, WithBackend(engine.BackendDirect))
	require.NoError(t, err)
	require.Equal(t, []string{"rate"}, prog.OutputNames())
	out := make([]float64, 1)
	require.NoError(t, prog.EvalInto([]float64{2, 3, 0.5}, out))
	require.Equal(t, []float64{3}, out)
}

func TestOptions(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	prog, err := CompileExprs[float64]([]ast.Expr{ast.Fn("ln", ast.Var("x"))},
		WithFunctions(map[string]op.Function{"ln": op.Log}),
		WithOptimization(0),
		WithLogger(logger))
	require.NoError(t, err)
	out, err := prog.Eval([]float64{math.E})
	require.NoError(t, err)
	require.Equal(t, []float64{1}, out)
	require.Contains(t, buf.String(), `"message":"compiling"`)

	_, err = CompileExprs[float64]([]ast.Expr{ast.Abs(ast.Var("x"))},
		WithFunctions(map[string]op.Function{"ln": op.Log}))
	require.True(t, errz.IsKind(err, errz.ErrUnsupportedFunction))

	_, err = CompileExprs[float64](nil, WithBackend("gpu"))
	require.ErrorContains(t, err, "unknown backend")
}
