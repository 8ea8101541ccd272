package compiler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/bytecode"
)

func TestPartition(t *testing.T) {
	c := New(NewSymbolTable("x"))
	for i := 0; i < 5; i++ {
		require.NoError(t, c.CompileExpressionAndStore(ast.Mul(ast.Var("x"), ast.Num(float64(i))), i))
	}
	require.NoError(t, c.Finalize(0))

	tests := []struct {
		workers int
		want    [][]int
	}{
		{1, [][]int{{0, 1, 2, 3, 4}}},
		{2, [][]int{{0, 2, 4}, {1, 3}}},
		{3, [][]int{{0, 3}, {1, 4}, {2}}},
		{5, [][]int{{0}, {1}, {2}, {3}, {4}}},
		{8, [][]int{{0}, {1}, {2}, {3}, {4}}},
	}
	for _, tt := range tests {
		fragments, err := Partition(c.Code(), tt.workers)
		require.NoError(t, err)
		require.Len(t, fragments, len(tt.want))
		for i, fragment := range fragments {
			require.True(t, fragment.Validated())
			require.Equal(t, tt.want[i], storedSlots(fragment))
		}
	}
}

func TestPartitionEdgeCases(t *testing.T) {
	_, err := Partition(bytecode.New(), 0)
	require.Error(t, err)

	fragments, err := Partition(bytecode.New(), 4)
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	require.Equal(t, 0, fragments[0].Len())

	invalid := bytecode.FromInstructions(bytecode.Load(0), bytecode.Add(), bytecode.Store(0))
	_, err = Partition(invalid, 2)
	require.Error(t, err)
}

func TestPartitionRepeatedSlot(t *testing.T) {
	c := New(NewSymbolTable("x"))
	require.NoError(t, c.CompileExpressionAndStore(ast.Num(3), 0))
	require.NoError(t, c.CompileExpressionAndStore(ast.Var("x"), 1))
	require.NoError(t, c.CompileExpressionAndStore(ast.Num(7), 0))
	require.NoError(t, c.CompileExpressionAndStore(ast.Var("x"), 2))
	require.NoError(t, c.Finalize(0))

	tests := []struct {
		workers int
		want    [][]int
	}{
		{1, [][]int{{0, 1, 0, 2}}},
		{2, [][]int{{0, 0, 2}, {1}}},
		{3, [][]int{{0, 0}, {1}, {2}}},
		{4, [][]int{{0, 0}, {1}, {2}}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("workers=%d", tt.workers), func(t *testing.T) {
			fragments, err := Partition(c.Code(), tt.workers)
			require.NoError(t, err)
			require.Len(t, fragments, len(tt.want))
			for i, fragment := range fragments {
				require.Equal(t, tt.want[i], storedSlots(fragment))
			}
			first := fragments[0].Split()
			require.Equal(t, "PUSH 3\nSTORE 0", first[0].String())
			require.Contains(t, fragments[0].String(), "PUSH 7\nSTORE 0")
		})
	}
}

func TestPartitionLeavesValidatedCodeAlone(t *testing.T) {
	c := New(NewSymbolTable("x"))
	require.NoError(t, c.CompileExpressionAndStore(ast.Var("x"), 0))
	require.NoError(t, c.Finalize(0))
	code := c.Code()
	require.True(t, code.Validated())
	before := code.Clone()
	_, err := Partition(code, 2)
	require.NoError(t, err)
	require.True(t, code.Equal(before))
	require.Equal(t, before.MinStackSize(), code.MinStackSize())
}

func TestParallelCompiler(t *testing.T) {
	p := NewParallel(NewSymbolTable("x", "y"), 2)
	require.Equal(t, 2, p.Workers())
	es := []ast.Expr{ast.Var("x"), ast.Var("y"), ast.Add(ast.Var("x"), ast.Num(0))}
	require.NoError(t, p.CompileVector(es, 0))
	require.Len(t, p.Code(), 1)
	require.NoError(t, p.Finalize(1))

	fragments := p.Code()
	require.Len(t, fragments, 2)
	require.Equal(t, "LOAD 0\nSTORE 0\nLOAD 0\nSTORE 2", fragments[0].String())
	require.Equal(t, "LOAD 1\nSTORE 1", fragments[1].String())
	require.Equal(t, 6, p.Unpartitioned().Len())
}
