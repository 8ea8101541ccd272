package compiler

import (
	"sort"

	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/op"
)

// FunctionTable maps the function names used in expression trees to builtin
// function ids. It is built once, before compilation starts, and never
// modified afterwards.
type FunctionTable struct {
	byName map[string]op.Function
}

// NewFunctionTable returns a table with the given name bindings. Names
// bound to ids outside the builtin set are ignored.
func NewFunctionTable(bindings map[string]op.Function) FunctionTable {
	byName := make(map[string]op.Function, len(bindings))
	for name, fn := range bindings {
		if fn.Valid() {
			byName[name] = fn
		}
	}
	return FunctionTable{byName: byName}
}

// DefaultFunctions binds "abs", "log" and "exp".
func DefaultFunctions() FunctionTable {
	bindings := map[string]op.Function{}
	for _, fn := range op.Functions() {
		bindings[fn.String()] = fn
	}
	return NewFunctionTable(bindings)
}

// Resolve returns the builtin bound to name.
func (t FunctionTable) Resolve(name string) (op.Function, error) {
	if fn, ok := t.byName[name]; ok {
		return fn, nil
	}
	return 0, &errz.UnsupportedFunctionError{Function: name, Suggestions: errz.Suggest(name, t.Names())}
}

// Names returns the bound function names, sorted.
func (t FunctionTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
