package compiler

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/op"
)

func TestCompileExpressionAndStore(t *testing.T) {
	x, y := ast.Var("x"), ast.Var("y")
	tests := []struct {
		name string
		expr ast.Expr
		want string
	}{
		{"constant", ast.Num(2), "PUSH 2\nSTORE 0"},
		{"complex constant", ast.Complex(1+2i), "PUSH (1+2i)\nSTORE 0"},
		{"variable", y, "LOAD 1\nSTORE 0"},
		{"sum", ast.Add(x, y, ast.Num(1)), "LOAD 0\nLOAD 1\nPUSH 1\nADD\nADD\nSTORE 0"},
		{"product", ast.Mul(x, y), "LOAD 0\nLOAD 1\nMUL\nSTORE 0"},
		{"single term", ast.Add(x), "LOAD 0\nSTORE 0"},
		{"empty sum", ast.Add(), "PUSH 0\nSTORE 0"},
		{"empty product", ast.Mul(), "PUSH 1\nSTORE 0"},
		{"power", ast.Pow(x, ast.Num(2)), "LOAD 0\nPUSH 2\nPOW\nSTORE 0"},
		{"call", ast.Log(x), "LOAD 0\nCALL log\nSTORE 0"},
		{"nested", ast.Exp(ast.Mul(x, ast.Abs(y))), "LOAD 0\nLOAD 1\nCALL abs\nMUL\nCALL exp\nSTORE 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(NewSymbolTable("x", "y"))
			require.NoError(t, c.CompileExpressionAndStore(tt.expr, 0))
			require.Equal(t, tt.want, c.Code().String())
			require.True(t, c.Code().Validate())
		})
	}
}

func TestCompileAppendsStatements(t *testing.T) {
	c := New(NewSymbolTable("x"))
	require.NoError(t, c.CompileExpressionAndStore(ast.Var("x"), 1))
	require.NoError(t, c.CompileExpressionAndStore(ast.Num(3), 0))
	require.Equal(t, "LOAD 0\nSTORE 1\nPUSH 3\nSTORE 0", c.Code().String())
	require.NoError(t, c.Finalize(0))
	require.Equal(t, 1, c.Code().InputSize())
	require.Equal(t, 2, c.Code().OutputSize())
	require.Equal(t, 1, c.Code().MinStackSize())
}

func TestCompileUndefinedSymbol(t *testing.T) {
	c := New(NewSymbolTable("x"))
	err := c.CompileExpressionAndStore(ast.Add(ast.Var("x"), ast.Var("z")), 0)
	require.Error(t, err)
	require.True(t, errz.IsKind(err, errz.ErrSymbol))

	var symErr *errz.SymbolError
	require.ErrorAs(t, err, &symErr)
	require.Equal(t, "z", symErr.Symbol)
	require.Equal(t, []string{"x"}, symErr.Suggestions)

	// A failed expression leaves no partial statement behind.
	require.Equal(t, 0, c.Code().Len())
}

func TestCompileUnsupportedFunction(t *testing.T) {
	c := New(NewSymbolTable("x"))
	err := c.CompileExpressionAndStore(ast.Fn("sin", ast.Var("x")), 0)
	require.True(t, errz.IsKind(err, errz.ErrUnsupportedFunction))
	require.Contains(t, err.Error(), `"sin"`)
	require.Equal(t, 0, c.Code().Len())

	err = c.CompileExpressionAndStore(ast.Fn("lg", ast.Var("x")), 0)
	require.ErrorContains(t, err, `did you mean "log"?`)
}

func TestCompileCustomFunctionTable(t *testing.T) {
	table := NewFunctionTable(map[string]op.Function{
		"ln":    op.Log,
		"bogus": op.Function(99),
	})
	c := New(NewSymbolTable("x"), WithFunctionTable(table))
	require.NoError(t, c.CompileExpressionAndStore(ast.Fn("ln", ast.Var("x")), 0))
	require.Equal(t, "LOAD 0\nCALL log\nSTORE 0", c.Code().String())

	err := c.CompileExpressionAndStore(ast.Log(ast.Var("x")), 1)
	require.True(t, errz.IsKind(err, errz.ErrUnsupportedFunction))
	err = c.CompileExpressionAndStore(ast.Fn("bogus", ast.Var("x")), 1)
	require.True(t, errz.IsKind(err, errz.ErrUnsupportedFunction))
}

func TestCompileInvalidInput(t *testing.T) {
	c := New(nil)
	require.Error(t, c.CompileExpressionAndStore(ast.Num(1), -1))
	require.Error(t, c.CompileExpressionAndStore(nil, 0))
	require.Equal(t, 0, c.Code().Len())
}

func TestFinalizeOnce(t *testing.T) {
	c := New(NewSymbolTable())
	require.NoError(t, c.CompileExpressionAndStore(ast.Num(1), 0))
	require.NoError(t, c.Finalize(1))
	require.True(t, c.Finalized())

	err := c.Finalize(1)
	require.True(t, errz.IsKind(err, errz.ErrState))

	err = c.CompileExpressionAndStore(ast.Num(2), 1)
	require.True(t, errz.IsKind(err, errz.ErrState))
	require.Equal(t, "PUSH 1\nSTORE 0", c.Code().String())
}

func TestFinalizeLevels(t *testing.T) {
	tests := []struct {
		name  string
		expr  ast.Expr
		level int
		want  string
	}{
		{"add zero level 0", ast.Add(ast.Var("x"), ast.Num(0)), 0, "LOAD 0\nPUSH 0\nADD\nSTORE 2"},
		{"add zero level 1", ast.Add(ast.Var("x"), ast.Num(0)), 1, "LOAD 0\nSTORE 2"},
		{"log one level 1", ast.Log(ast.Num(1)), 1, "PUSH 0\nSTORE 2"},
		{"log one level 2", ast.Log(ast.Num(1)), 2, "STORE_ZERO 2"},
		{"constant left", ast.Mul(ast.Num(3), ast.Var("x")), 1, "LOAD 0\nMUL 3\nSTORE 2"},
		{"difference", ast.Sub(ast.Var("x"), ast.Var("y")), 1, "LOAD 0\nLOAD 1\nSUB\nSTORE 2"},
		{"power one", ast.Pow(ast.Var("y"), ast.Num(1)), 1, "LOAD 1\nSTORE 2"},
		{"power zero", ast.Pow(ast.Var("y"), ast.Num(0)), 1, "PUSH 1\nSTORE 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(NewSymbolTable("x", "y"))
			require.NoError(t, c.CompileExpressionAndStore(tt.expr, 2))
			require.NoError(t, c.Finalize(tt.level))
			require.Equal(t, tt.want, c.Code().String())
			require.True(t, c.Code().Validated())
		})
	}
}

func TestFinalizeStats(t *testing.T) {
	c := New(NewSymbolTable("x"))
	require.NoError(t, c.CompileExpressionAndStore(ast.Add(ast.Num(0), ast.Var("x")), 0))
	require.NoError(t, c.Finalize(1))
	stats := c.Stats()
	require.Equal(t, 4, stats.InstructionsBefore)
	require.Equal(t, 2, stats.InstructionsAfter)
	require.Equal(t, 1, stats.Rewrites["immediate-value-rhs"])
	require.Equal(t, 1, stats.Rewrites["immediate-value"])
	require.Equal(t, 1, stats.Rewrites["remove-units"])
}

func TestFinalizeWithConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(zerolog.ConsoleWriter{Out: &buf, NoColor: true}).Level(zerolog.TraceLevel)
	for level := 0; level <= 2; level++ {
		buf.Reset()
		c := New(NewSymbolTable("x"), WithLogger(logger))
		require.NoError(t, c.CompileExpressionAndStore(ast.Mul(ast.Var("x"), ast.Num(1)), 0))
		require.NotPanics(t, func() {
			require.NoError(t, c.Finalize(level))
		})
		require.Contains(t, buf.String(), "DBG")
		require.Contains(t, buf.String(), "finalized")
		require.Contains(t, buf.String(), "opt_level=")
	}
}
