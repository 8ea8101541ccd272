package optimizer

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/kinetic/bytecode"
)

// Option configures Optimize.
type Option func(*config)

type config struct {
	logger zerolog.Logger
	passes []Pass
}

// WithLogger sets the logger that receives per-rewrite trace events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithPasses overrides the passes chosen by the optimization level. The
// level still decides whether the optimizer runs at all.
func WithPasses(passes ...Pass) Option {
	return func(c *config) {
		c.passes = passes
	}
}

// Optimize rewrites code at the given level and returns the optimized,
// validated result. At level 0 the input is only validated and returned as
// is. The input is never modified.
func Optimize(code *bytecode.Code, level int, opts ...Option) (*bytecode.Code, Stats, error) {
	cfg := &config{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}
	stats := Stats{
		Rewrites:           map[string]int{},
		InstructionsBefore: code.Len(),
		InstructionsAfter:  code.Len(),
	}
	if level <= 0 {
		if err := code.Check(); err != nil {
			return nil, stats, err
		}
		return code, stats, nil
	}
	passes := cfg.passes
	if passes == nil {
		passes = PassesForLevel(level)
	}
	forest, err := Build(code)
	if err != nil {
		return nil, stats, err
	}
	pm := NewPassManager(passes, cfg.logger)
	pm.Apply(forest)

	optimized := forest.Serialize()
	if err := optimized.Check(); err != nil {
		return nil, stats, fmt.Errorf("optimized code is invalid: %w", err)
	}
	stats.Rewrites = pm.Stats().Rewrites
	stats.InstructionsAfter = optimized.Len()
	cfg.logger.Debug().
		Int("opt_level", level).
		Int("before", stats.InstructionsBefore).
		Int("after", stats.InstructionsAfter).
		Int("rewrites", stats.Total()).
		Msg("optimized")
	return optimized, stats, nil
}
