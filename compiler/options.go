package compiler

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/kinetic/optimizer"
)

// Option is a configuration function for a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for finalize and optimizer diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithFunctionTable replaces the default function name bindings.
func WithFunctionTable(table FunctionTable) Option {
	return func(c *Compiler) {
		c.functions = table
	}
}

// WithPasses replaces the optimizer passes run by Finalize at level 1 and
// above.
func WithPasses(passes ...optimizer.Pass) Option {
	return func(c *Compiler) {
		c.passes = passes
	}
}
