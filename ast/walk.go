package ast

import "sort"

// Visitor defines the interface for expression traversal. If Visit returns
// nil, children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Expr) (w Visitor)
}

// Walk traverses an expression in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each child of node.
func Walk(v Visitor, node Expr) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
}

type inspector func(Expr) bool

func (f inspector) Visit(node Expr) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an expression in depth-first order, calling f for each
// node. If f returns false, the children of that node are skipped.
func Inspect(node Expr, f func(Expr) bool) {
	Walk(inspector(f), node)
}

// Children returns the direct operands of node in evaluation order.
func Children(node Expr) []Expr {
	switch n := node.(type) {
	case *Sum:
		return n.Terms
	case *Product:
		return n.Factors
	case *Power:
		return []Expr{n.Base, n.Exponent}
	case *Call:
		return []Expr{n.Arg}
	default:
		return nil
	}
}

// Variables returns the distinct variable names referenced by node, sorted.
func Variables(node Expr) []string {
	seen := map[string]bool{}
	Inspect(node, func(e Expr) bool {
		if v, ok := e.(*Variable); ok {
			seen[v.Name] = true
		}
		return true
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Functions returns the distinct function names called within node, sorted.
func Functions(node Expr) []string {
	seen := map[string]bool{}
	Inspect(node, func(e Expr) bool {
		if c, ok := e.(*Call); ok {
			seen[c.Func] = true
		}
		return true
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Size returns the number of nodes in the tree.
func Size(node Expr) int {
	n := 0
	Inspect(node, func(Expr) bool {
		n++
		return true
	})
	return n
}

// Substitute returns a copy of node in which every variable resolved by
// lookup is replaced by a constant. Unresolved variables are kept. The input
// tree is not modified.
func Substitute(node Expr, lookup func(name string) (complex128, bool)) Expr {
	switch n := node.(type) {
	case *Variable:
		if v, ok := lookup(n.Name); ok {
			return &Constant{Value: v}
		}
		return n
	case *Sum:
		return &Sum{Terms: substituteAll(n.Terms, lookup)}
	case *Product:
		return &Product{Factors: substituteAll(n.Factors, lookup)}
	case *Power:
		return &Power{
			Base:     Substitute(n.Base, lookup),
			Exponent: Substitute(n.Exponent, lookup),
		}
	case *Call:
		return &Call{Func: n.Func, Arg: Substitute(n.Arg, lookup)}
	default:
		return node
	}
}

func substituteAll(nodes []Expr, lookup func(string) (complex128, bool)) []Expr {
	out := make([]Expr, len(nodes))
	for i, n := range nodes {
		out[i] = Substitute(n, lookup)
	}
	return out
}
