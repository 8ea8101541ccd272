package kinetic

import (
	"runtime"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/engine"
	"github.com/deepnoodle-ai/kinetic/op"
)

// DefaultOptimization is the optimization level used unless
// WithOptimization is given.
const DefaultOptimization = 1

// Option configures a compilation.
type Option func(*options)

type options struct {
	backend   string
	workers   int
	level     int
	logger    zerolog.Logger
	functions map[string]op.Function
	symbols   []string
	filename  string
}

func collectOptions(opts ...Option) *options {
	o := &options{
		backend: engine.BackendBytecode,
		workers: runtime.GOMAXPROCS(0),
		level:   DefaultOptimization,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) engineConfig() engine.Config {
	cfg := engine.Config{
		Backend: o.backend,
		Workers: o.workers,
		Level:   o.level,
		Logger:  o.logger,
	}
	if o.functions != nil {
		functions := compiler.NewFunctionTable(o.functions)
		cfg.Functions = &functions
	}
	return cfg
}

// WithBackend selects the evaluation backend: "bytecode" (the default),
// "parallel", "direct" or "native".
func WithBackend(name string) Option {
	return func(o *options) {
		o.backend = name
	}
}

// WithWorkers sets the number of fragments run concurrently by the parallel
// backend. The default is GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithOptimization sets the optimization level. Level 0 disables the
// optimizer, level 1 applies the expression rewrites and level 2 also turns
// stores of zero into STORE_ZERO.
func WithOptimization(level int) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithLogger sets the logger that receives compiler and optimizer events.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFunctions replaces the default abs, log and exp name bindings with
// the given ones. It may be given more than once; the last binding of a name
// wins.
func WithFunctions(bindings map[string]op.Function) Option {
	return func(o *options) {
		if o.functions == nil {
			o.functions = map[string]op.Function{}
		}
		for name, fn := range bindings {
			o.functions[name] = fn
		}
	}
}

// WithSymbols fixes the input vector layout. Without it, inputs are the
// variables referenced by the expressions, sorted by name.
func WithSymbols(names ...string) Option {
	return func(o *options) {
		o.symbols = names
	}
}

// WithFilename sets the filename reported in parse errors.
func WithFilename(filename string) Option {
	return func(o *options) {
		o.filename = filename
	}
}
