// Package model loads expression models from TOML files.
//
// A model names its inputs, lists its outputs as infix expressions and may
// carry default input values:
//
//	name = "lotka-volterra"
//
//	[symbols]
//	names = ["x", "y", "alpha", "beta"]
//
//	[[output]]
//	name = "dx"
//	expr = "alpha*x - beta*x*y"
//
//	[inputs]
//	x = 10.0
//
// When symbols.names is omitted, the inputs are the variables referenced by
// the outputs, sorted by name.
package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/parser"
)

// Model is a parsed and validated model file.
type Model struct {
	Name    string             `toml:"name"`
	Symbols Symbols            `toml:"symbols"`
	Outputs []Output           `toml:"output"`
	Inputs  map[string]float64 `toml:"inputs"`

	// Path is the file the model was loaded from, if any.
	Path string `toml:"-"`

	exprs   []ast.Expr
	symbols *compiler.SymbolTable
}

// Symbols declares the input vector layout.
type Symbols struct {
	Names []string `toml:"names"`
}

// Output is one named output expression.
type Output struct {
	Name string `toml:"name"`
	Expr string `toml:"expr"`
}

// Load reads and parses the model file at path.
func Load(ctx context.Context, path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	m, err := parse(ctx, data, path)
	if err != nil {
		return nil, err
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return m, nil
}

// Parse parses a model from TOML text.
func Parse(ctx context.Context, data []byte) (*Model, error) {
	return parse(ctx, data, "")
}

func parse(ctx context.Context, data []byte, path string) (*Model, error) {
	var m Model
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		if path != "" {
			return nil, fmt.Errorf("parse error in %s: %w", path, err)
		}
		return nil, fmt.Errorf("parse error: %w", err)
	}
	m.Path = path
	var result *multierror.Error
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		result = multierror.Append(result, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", ")))
	}
	if err := m.compile(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		if path != "" {
			return nil, fmt.Errorf("invalid model %s: %w", path, err)
		}
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return &m, nil
}

// compile parses every output expression and checks that the model is
// consistent. All problems are reported together.
func (m *Model) compile(ctx context.Context) error {
	var result *multierror.Error
	if len(m.Outputs) == 0 {
		result = multierror.Append(result, fmt.Errorf("model has no outputs"))
	}

	var opts []parser.Option
	if m.Path != "" {
		opts = append(opts, parser.WithFilename(m.Path))
	}
	seen := map[string]bool{}
	used := map[string]bool{}
	m.exprs = make([]ast.Expr, len(m.Outputs))
	for i, out := range m.Outputs {
		label := out.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
			result = multierror.Append(result, fmt.Errorf("output %s: missing name", label))
		} else if seen[label] {
			result = multierror.Append(result, fmt.Errorf("output %s: duplicate name", label))
		}
		seen[label] = true

		if strings.TrimSpace(out.Expr) == "" {
			result = multierror.Append(result, fmt.Errorf("output %s: missing expr", label))
			continue
		}
		expr, err := parser.ParseExpr(ctx, out.Expr, opts...)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("output %s: %w", label, err))
			continue
		}
		functions := compiler.DefaultFunctions()
		for _, name := range ast.Functions(expr) {
			if _, err := functions.Resolve(name); err != nil {
				result = multierror.Append(result, fmt.Errorf("output %s: %w", label, err))
			}
		}
		for _, name := range ast.Variables(expr) {
			used[name] = true
		}
		m.exprs[i] = expr
	}

	names := m.Symbols.Names
	if len(names) == 0 {
		for name := range used {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	m.symbols = compiler.NewSymbolTable(names...)
	if m.symbols.Len() != len(names) {
		result = multierror.Append(result, fmt.Errorf("symbols: duplicate names in %v", names))
	}
	for _, name := range sortedKeys(used) {
		if !m.symbols.IsDefined(name) {
			result = multierror.Append(result, fmt.Errorf("symbols: %q is used but not declared", name))
		}
	}
	for _, name := range sortedKeys(m.Inputs) {
		if !m.symbols.IsDefined(name) {
			result = multierror.Append(result, fmt.Errorf("inputs: %q is not a symbol", name))
		}
	}
	return result.ErrorOrNil()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Expressions returns the parsed output expressions in file order.
func (m *Model) Expressions() []ast.Expr {
	return m.exprs
}

// SymbolTable returns the input layout.
func (m *Model) SymbolTable() *compiler.SymbolTable {
	return m.symbols
}

// OutputNames returns the output names in file order.
func (m *Model) OutputNames() []string {
	names := make([]string, len(m.Outputs))
	for i, out := range m.Outputs {
		names[i] = out.Name
	}
	return names
}

// InputVector lays out values in symbol order. Values missing from
// overrides fall back to the model's [inputs] table; a symbol with neither
// is an error.
func (m *Model) InputVector(overrides map[string]float64) ([]float64, error) {
	vector := make([]float64, m.symbols.Size())
	var result *multierror.Error
	for _, name := range m.symbols.Names() {
		slot, _ := m.symbols.Lookup(name)
		if v, ok := overrides[name]; ok {
			vector[slot] = v
		} else if v, ok := m.Inputs[name]; ok {
			vector[slot] = v
		} else {
			result = multierror.Append(result, fmt.Errorf("no value for input %q", name))
		}
	}
	for _, name := range sortedKeys(overrides) {
		if !m.symbols.IsDefined(name) {
			result = multierror.Append(result, fmt.Errorf("%q is not an input of model %s", name, m.Name))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return vector, nil
}
