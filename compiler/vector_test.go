package compiler

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/op"
)

// storedSlots returns the output slot of every statement, in order.
func storedSlots(code *bytecode.Code) []int {
	var slots []int
	for _, inst := range code.Instructions() {
		if inst.Op == op.Store || inst.Op == op.StoreZero {
			slots = append(slots, inst.Imm.Index())
		}
	}
	return slots
}

func TestCompileVector(t *testing.T) {
	c := New(NewSymbolTable("x"))
	es := []ast.Expr{ast.Var("x"), ast.Num(1), ast.Log(ast.Var("x"))}
	require.NoError(t, c.CompileVector(es, 4))
	require.Equal(t, []int{4, 5, 6}, storedSlots(c.Code()))
}

func TestCompileVectorAggregatesErrors(t *testing.T) {
	c := New(NewSymbolTable("x"))
	es := []ast.Expr{ast.Var("nope"), ast.Var("x"), ast.Fn("tan", ast.Var("x"))}
	err := c.CompileVector(es, 0)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 2)
	require.True(t, errz.IsKind(merr.Errors[0], errz.ErrSymbol))
	require.True(t, errz.IsKind(merr.Errors[1], errz.ErrUnsupportedFunction))

	// The valid element is still compiled.
	require.Equal(t, []int{1}, storedSlots(c.Code()))
}

func TestCompileMatrix(t *testing.T) {
	rows := [][]ast.Expr{
		{ast.Num(0), ast.Num(1), ast.Num(2)},
		{ast.Num(3), ast.Num(4), ast.Num(5)},
	}
	tests := []struct {
		order Order
		want  []int
	}{
		{RowMajor, []int{1, 2, 3, 4, 5, 6}},
		{ColumnMajor, []int{1, 3, 5, 2, 4, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			c := New(NewSymbolTable())
			require.NoError(t, c.CompileMatrix(rows, tt.order, 1))
			require.Equal(t, tt.want, storedSlots(c.Code()))
		})
	}
}

func TestCompileMatrixRagged(t *testing.T) {
	c := New(NewSymbolTable())
	rows := [][]ast.Expr{{ast.Num(1), ast.Num(2)}, {ast.Num(3)}}
	require.Error(t, c.CompileMatrix(rows, RowMajor, 0))
	require.Equal(t, 0, c.Code().Len())
	require.NoError(t, c.CompileMatrix(nil, RowMajor, 0))
}
