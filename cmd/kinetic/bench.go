package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/deepnoodle-ai/kinetic"
	"github.com/deepnoodle-ai/kinetic/engine"
	"github.com/deepnoodle-ai/kinetic/internal/table"
	"github.com/deepnoodle-ai/kinetic/model"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// benchResult is the timing of one backend.
type benchResult struct {
	Backend    string
	Iterations int
	Compile    time.Duration
	Total      time.Duration
}

func (r benchResult) PerCall() time.Duration {
	if r.Iterations == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Iterations)
}

func (a *app) benchCmd() *cobra.Command {
	var (
		iterations int
		all        bool
	)
	cmd := &cobra.Command{
		Use:   "bench <model>",
		Short: "Time repeated evaluation of a model",
		Long: "Compile a model and evaluate it repeatedly with the model's default\n" +
			"inputs. With --all, every backend is compiled concurrently and then\n" +
			"timed one after another.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if iterations < 1 {
				return fmt.Errorf("iterations must be positive, got %d", iterations)
			}
			m, err := a.loadModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			vector, err := m.InputVector(nil)
			if err != nil {
				return err
			}
			backends := []string{a.v.GetString("backend")}
			if all {
				backends = engine.Backends()
			}
			var results []benchResult
			if a.v.GetBool("complex") {
				results, err = benchBackends(a, m, widen[complex128](vector), backends, iterations)
			} else {
				results, err = benchBackends(a, m, widen[float64](vector), backends, iterations)
			}
			if err != nil {
				return err
			}
			t := table.NewTable(cmd.OutOrStdout()).
				WithHeader([]string{"BACKEND", "COMPILE", "ITERATIONS", "TOTAL", "PER CALL"}).
				WithColumnAlignment([]table.Alignment{
					table.AlignLeft,
					table.AlignRight,
					table.AlignRight,
					table.AlignRight,
					table.AlignRight,
				})
			for _, r := range results {
				t.Append([]string{
					r.Backend,
					r.Compile.String(),
					fmt.Sprint(r.Iterations),
					r.Total.String(),
					r.PerCall().String(),
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVarP(&iterations, "iterations", "n", 100000, "number of evaluations per backend")
	cmd.Flags().BoolVar(&all, "all", false, "benchmark every backend")
	return cmd
}

// benchBackends compiles every backend concurrently, then times them one at
// a time so they do not compete for CPUs.
func benchBackends[S scalar.Scalar](a *app, m *model.Model, input []S, backends []string, iterations int) ([]benchResult, error) {
	programs := make([]*kinetic.Program[S], len(backends))
	results := make([]benchResult, len(backends))
	var g errgroup.Group
	for i, backend := range backends {
		g.Go(func() error {
			start := time.Now()
			opts := append(a.options(), kinetic.WithBackend(backend))
			prog, err := kinetic.CompileModel[S](m, opts...)
			if err != nil {
				return err
			}
			programs[i] = prog
			results[i] = benchResult{Backend: backend, Iterations: iterations, Compile: time.Since(start)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, prog := range programs {
		output := make([]S, prog.OutputSize())
		if err := prog.EvalInto(input, output); err != nil {
			return nil, fmt.Errorf("%s: %w", backends[i], err)
		}
		start := time.Now()
		for n := 0; n < iterations; n++ {
			_ = prog.EvalInto(input, output)
		}
		results[i].Total = time.Since(start)
		a.logger.Info().
			Str("backend", backends[i]).
			Dur("per_call", results[i].PerCall()).
			Msg("benchmarked")
	}
	return results, nil
}
