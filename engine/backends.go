package engine

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/direct"
	"github.com/deepnoodle-ai/kinetic/native"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// Backend names accepted by Config.
const (
	BackendBytecode = "bytecode"
	BackendParallel = "parallel"
	BackendDirect   = "direct"
	BackendNative   = "native"
)

// Backends returns every backend name, sorted.
func Backends() []string {
	names := []string{BackendBytecode, BackendParallel, BackendDirect, BackendNative}
	sort.Strings(names)
	return names
}

// Config selects and configures a backend at run time.
type Config struct {
	// Backend is one of the Backend* names. Empty means bytecode.
	Backend string
	// Workers is the fragment count of the parallel backend.
	Workers int
	// Level is the optimization level passed to Finalize.
	Level int
	// Functions overrides the default function name bindings when set.
	Functions *compiler.FunctionTable
	// Logger receives compiler diagnostics.
	Logger zerolog.Logger
}

// Compile compiles es into output slots 0..len(es)-1 with the backend named
// in cfg.
func Compile[S scalar.Scalar](cfg Config, symbols *compiler.SymbolTable, es []ast.Expr) (Evaluator[S], error) {
	opts := []compiler.Option{compiler.WithLogger(cfg.Logger)}
	var directOpts []direct.Option
	if cfg.Functions != nil {
		opts = append(opts, compiler.WithFunctionTable(*cfg.Functions))
		directOpts = append(directOpts, direct.WithFunctionTable(*cfg.Functions))
	}
	cfg.Logger.Debug().
		Str("backend", cfg.Backend).
		Int("opt_level", cfg.Level).
		Int("expressions", len(es)).
		Msg("compiling")

	switch cfg.Backend {
	case "", BackendBytecode:
		f, err := NewVector[*bytecode.Code, S](Bytecode[S]{Options: opts}, symbols, es, cfg.Level)
		return evaluator(f, err)
	case BackendParallel:
		e := Parallel[S]{Workers: max(cfg.Workers, 1), Options: opts}
		f, err := NewVector[[]*bytecode.Code, S](e, symbols, es, cfg.Level)
		return evaluator(f, err)
	case BackendDirect:
		f, err := NewVector[*direct.Code, S](Direct[S]{Options: directOpts}, symbols, es, cfg.Level)
		return evaluator(f, err)
	case BackendNative:
		f, err := NewVector[*native.Code[S], S](Native[S]{Options: opts}, symbols, es, cfg.Level)
		return evaluator(f, err)
	default:
		return nil, fmt.Errorf("unknown backend %q (available: %v)", cfg.Backend, Backends())
	}
}

func evaluator[C any, S scalar.Scalar](f *Function[C, S], err error) (Evaluator[S], error) {
	if err != nil {
		return nil, err
	}
	return f, nil
}
