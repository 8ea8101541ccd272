package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/deepnoodle-ai/kinetic"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/engine"
	"github.com/deepnoodle-ai/kinetic/internal/table"
	"github.com/deepnoodle-ai/kinetic/model"
	"github.com/deepnoodle-ai/kinetic/optimizer"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// checkResult is the outcome of compiling and evaluating one backend.
type checkResult struct {
	Backend string
	Err     error
	// Mismatch names the first output that disagrees with the direct
	// backend, if any.
	Mismatch string
}

func (r checkResult) OK() bool {
	return r.Err == nil && r.Mismatch == ""
}

func (a *app) checkCmd() *cobra.Command {
	var tolerance float64
	cmd := &cobra.Command{
		Use:   "check <model>",
		Short: "Validate a model on every backend",
		Long: "Compile a model with every backend and, when the model provides\n" +
			"values for all inputs, compare each result with the direct backend.\n" +
			"Optimizer statistics are printed for the bytecode compilation.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			vector, err := m.InputVector(nil)
			if err != nil {
				a.logger.Info().Err(err).Msg("skipping evaluation")
				vector = nil
			}
			var results []checkResult
			if a.v.GetBool("complex") {
				results = checkBackends[complex128](a, m, vector, tolerance)
			} else {
				results = checkBackends[float64](a, m, vector, tolerance)
			}

			out := cmd.OutOrStdout()
			ok := color.New(color.FgGreen).SprintFunc()
			failed := 0
			t := table.NewTable(out).WithHeader([]string{"BACKEND", "STATUS", "DETAIL"})
			for _, r := range results {
				switch {
				case r.Err != nil:
					failed++
					t.Append([]string{r.Backend, red("FAIL"), r.Err.Error()})
				case r.Mismatch != "":
					failed++
					t.Append([]string{r.Backend, red("FAIL"), r.Mismatch})
				case vector == nil:
					t.Append([]string{r.Backend, ok("OK"), "compiled"})
				default:
					t.Append([]string{r.Backend, ok("OK"), "matches direct"})
				}
			}
			t.Render()

			stats, err := optimizerStats(m, a.v.GetInt("opt"))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s: %d -> %d instructions, %d rewrites\n",
				m.Name, stats.InstructionsBefore, stats.InstructionsAfter, stats.Total())
			if len(stats.Rewrites) > 0 {
				passes := make([]string, 0, len(stats.Rewrites))
				for name := range stats.Rewrites {
					passes = append(passes, name)
				}
				sort.Strings(passes)
				st := table.NewTable(out).
					WithHeader([]string{"PASS", "REWRITES"}).
					WithColumnAlignment([]table.Alignment{table.AlignLeft, table.AlignRight})
				for _, name := range passes {
					st.Append([]string{name, strconv.Itoa(stats.Rewrites[name])})
				}
				st.Render()
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d backends failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-9, "relative tolerance when comparing with the direct backend")
	return cmd
}

// checkBackends compiles m with every backend concurrently. When vector is
// non-nil each backend is also evaluated and compared with the direct
// backend.
func checkBackends[S scalar.Scalar](a *app, m *model.Model, vector []float64, tolerance float64) []checkResult {
	backends := engine.Backends()
	results := make([]checkResult, len(backends))
	outputs := make([][]S, len(backends))
	var input []S
	if vector != nil {
		input = widen[S](vector)
	}
	var g errgroup.Group
	for i, backend := range backends {
		results[i].Backend = backend
		g.Go(func() error {
			opts := append(a.options(), kinetic.WithBackend(backend))
			prog, err := kinetic.CompileModel[S](m, opts...)
			if err != nil {
				results[i].Err = err
				return nil
			}
			if input != nil {
				outputs[i], results[i].Err = prog.Eval(input)
			}
			return nil
		})
	}
	_ = g.Wait()
	if input == nil {
		return results
	}

	oracle := sort.SearchStrings(backends, engine.BackendDirect)
	if results[oracle].Err != nil {
		return results
	}
	ops := scalar.For[S]()
	names := m.OutputNames()
	for i := range results {
		if i == oracle || results[i].Err != nil {
			continue
		}
		for j, want := range outputs[oracle] {
			w, got := ops.ToComplex(want), ops.ToComplex(outputs[i][j])
			if !approxEqual(w, got, tolerance) {
				results[i].Mismatch = fmt.Sprintf("%s: got %s, want %s", names[j], formatValue(got), formatValue(w))
				break
			}
		}
	}
	return results
}

// optimizerStats compiles m to bytecode and returns what the optimizer did.
func optimizerStats(m *model.Model, level int) (optimizer.Stats, error) {
	c := compiler.New(m.SymbolTable())
	if err := c.CompileVector(m.Expressions(), 0); err != nil {
		return optimizer.Stats{}, err
	}
	if err := c.Finalize(level); err != nil {
		return optimizer.Stats{}, err
	}
	return c.Stats(), nil
}
