package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		expr Expr
		want string
	}{
		{Num(2.5), "2.5"},
		{Complex(2i), "2i"},
		{Complex(1+2i), "(complex 1 2)"},
		{Var("x"), "x"},
		{Add(Var("x"), Num(1)), "(+ x 1)"},
		{Mul(Var("k"), Var("A"), Var("B")), "(* k A B)"},
		{Pow(Var("x"), Num(2)), "(^ x 2)"},
		{Log(Var("x")), "(log x)"},
		{Sub(Var("a"), Var("b")), "(+ a (* b -1))"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestKinds(t *testing.T) {
	require.Equal(t, KindConstant, Num(1).Kind())
	require.Equal(t, KindVariable, Var("x").Kind())
	require.Equal(t, KindSum, Add().Kind())
	require.Equal(t, KindProduct, Mul().Kind())
	require.Equal(t, KindPower, Pow(Num(1), Num(2)).Kind())
	require.Equal(t, KindCall, Exp(Num(1)).Kind())
	require.Equal(t, "power", KindPower.String())
}

func TestVariablesAndFunctions(t *testing.T) {
	e := Add(Mul(Var("k1"), Var("A")), Exp(Var("A")), Fn("sin", Var("B")))
	require.Equal(t, []string{"A", "B", "k1"}, Variables(e))
	require.Equal(t, []string{"exp", "sin"}, Functions(e))
	require.Equal(t, 8, Size(e))
}

func TestInspectSkipsChildren(t *testing.T) {
	e := Add(Mul(Var("a"), Var("b")), Var("c"))
	var seen []string
	Inspect(e, func(n Expr) bool {
		if v, ok := n.(*Variable); ok {
			seen = append(seen, v.Name)
		}
		_, isProduct := n.(*Product)
		return !isProduct
	})
	require.Equal(t, []string{"c"}, seen)
}

func TestSubstitute(t *testing.T) {
	e := Add(Var("x"), Pow(Var("y"), Num(2)))
	out := Substitute(e, func(name string) (complex128, bool) {
		if name == "x" {
			return 3, true
		}
		return 0, false
	})
	require.Equal(t, "(+ 3 (^ y 2))", out.String())
	// The original tree is untouched
	require.Equal(t, "(+ x (^ y 2))", e.String())
}
