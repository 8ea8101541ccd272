package optimizer

import (
	"github.com/rs/zerolog"
)

// Pass is a local rewrite rule. TryRewrite inspects a value (and, usually,
// its direct arguments) and returns a replacement when the rule applies.
// Implementations must build new values rather than edit v.
type Pass interface {
	Name() string
	TryRewrite(v *Value) (*Value, bool)
}

// Stats summarizes one optimizer run.
type Stats struct {
	// Rewrites counts successful rewrites per pass name.
	Rewrites map[string]int
	// InstructionsBefore and InstructionsAfter are the code lengths on
	// either side of the run.
	InstructionsBefore int
	InstructionsAfter  int
}

// Total returns the number of rewrites across all passes.
func (s Stats) Total() int {
	total := 0
	for _, n := range s.Rewrites {
		total += n
	}
	return total
}

// PassManager applies a list of passes to a forest until none matches.
//
// Each subtree is brought to a fixpoint bottom-up: the arguments of a value
// are rewritten first, then passes are applied to the value itself. Whenever
// a pass replaces the value, the replacement's arguments are revisited and
// all passes are tried again, since a rewrite below or at a node can enable
// further rewrites at that node.
type PassManager struct {
	passes []Pass
	logger zerolog.Logger
	stats  Stats
}

// NewPassManager returns a manager running passes in the given order. Order
// matters: the first matching pass wins and later passes may rely on the
// normal forms established by earlier ones.
func NewPassManager(passes []Pass, logger zerolog.Logger) *PassManager {
	return &PassManager{
		passes: passes,
		logger: logger,
		stats:  Stats{Rewrites: map[string]int{}},
	}
}

// Passes returns the registered passes.
func (pm *PassManager) Passes() []Pass {
	return pm.passes
}

// Stats returns the rewrite counts accumulated so far.
func (pm *PassManager) Stats() Stats {
	return pm.stats
}

// Apply rewrites every root of the forest to a fixpoint and reports whether
// anything changed.
func (pm *PassManager) Apply(f *Forest) bool {
	changed := false
	for i, root := range f.Roots {
		if v, ok := pm.rewrite(root); ok {
			f.Roots[i] = v
			changed = true
		}
	}
	return changed
}

func (pm *PassManager) rewrite(v *Value) (*Value, bool) {
	changed := false
	for !v.settled {
		for i, arg := range v.Args {
			if rewritten, ok := pm.rewrite(arg); ok {
				v.Args[i] = rewritten
				changed = true
			}
		}
		rewritten, ok := pm.applyOnce(v)
		if !ok {
			v.settled = true
			break
		}
		v = rewritten
		changed = true
	}
	return v, changed
}

func (pm *PassManager) applyOnce(v *Value) (*Value, bool) {
	for _, pass := range pm.passes {
		rewritten, ok := pass.TryRewrite(v)
		if !ok {
			continue
		}
		pm.stats.Rewrites[pass.Name()]++
		if e := pm.logger.Trace(); e.Enabled() {
			e.Str("pass", pass.Name()).
				Str("before", v.String()).
				Str("after", rewritten.String()).
				Msg("rewrite")
		}
		return rewritten, true
	}
	return nil, false
}
