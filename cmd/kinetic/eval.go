package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/internal/table"
	"github.com/deepnoodle-ai/kinetic/model"
	"github.com/deepnoodle-ai/kinetic/scalar"
	"github.com/deepnoodle-ai/kinetic/vm"
)

func (a *app) evalCmd() *cobra.Command {
	var (
		output string
		trace  bool
	)
	cmd := &cobra.Command{
		Use:   "eval <model> [name=value...]",
		Short: "Evaluate a model once",
		Long: "Evaluate every output of a model. Inputs default to the model's\n" +
			"[inputs] table and may be overridden with name=value arguments.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			overrides, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			vector, err := m.InputVector(overrides)
			if err != nil {
				return err
			}

			var values []complex128
			switch {
			case trace && a.v.GetBool("complex"):
				values, err = traceModel[complex128](m, vector, a.v.GetInt("opt"), cmd.ErrOrStderr())
			case trace:
				values, err = traceModel[float64](m, vector, a.v.GetInt("opt"), cmd.ErrOrStderr())
			case a.v.GetBool("complex"):
				values, err = evaluate[complex128](m, vector, a.options())
			default:
				values, err = evaluate[float64](m, vector, a.options())
			}
			if err != nil {
				return err
			}

			names := m.OutputNames()
			switch output {
			case "table":
				t := table.NewTable(cmd.OutOrStdout()).
					WithHeader([]string{"OUTPUT", "VALUE"}).
					WithColumnAlignment([]table.Alignment{table.AlignLeft, table.AlignRight})
				for i, v := range values {
					t.Append([]string{names[i], formatValue(v)})
				}
				t.Render()
				return nil
			case "json":
				result := make(map[string]any, len(values))
				for i, v := range values {
					result[names[i]] = jsonValue(v)
				}
				formatter := prettyjson.NewFormatter()
				formatter.DisabledColor = color.NoColor
				data, err := formatter.Marshal(result)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			default:
				return fmt.Errorf("unknown output format %q (expected table or json)", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table or json")
	cmd.Flags().BoolVar(&trace, "trace", false, "print every executed instruction to stderr")
	return cmd
}

// tracer prints the interpreter state after each instruction.
type tracer[S scalar.Scalar] struct {
	vm.NoOpObserver[S]
	w     io.Writer
	names []string
}

func (t tracer[S]) OnStep(event vm.StepEvent[S]) bool {
	ops := scalar.For[S]()
	stack := make([]string, len(event.Stack))
	for i, v := range event.Stack {
		stack[i] = formatValue(ops.ToComplex(v))
	}
	fmt.Fprintf(t.w, "%4d  %-14s %v\n", event.Offset, event.Instruction, stack)
	return true
}

func (t tracer[S]) OnStore(event vm.StoreEvent[S]) bool {
	name := fmt.Sprintf("#%d", event.Slot)
	if event.Slot < len(t.names) {
		name = t.names[event.Slot]
	}
	fmt.Fprintf(t.w, "      %s = %s\n", color.CyanString(name), formatValue(scalar.For[S]().ToComplex(event.Value)))
	return true
}

// traceModel evaluates m on the bytecode interpreter, reporting every step.
func traceModel[S scalar.Scalar](m *model.Model, vector []float64, level int, w io.Writer) ([]complex128, error) {
	c := compiler.New(m.SymbolTable())
	if err := c.CompileVector(m.Expressions(), 0); err != nil {
		return nil, err
	}
	if err := c.Finalize(level); err != nil {
		return nil, err
	}
	interp, err := vm.NewWithCode[S](c.Code())
	if err != nil {
		return nil, err
	}
	output := make([]S, interp.OutputSize())
	interp.Trace(widen[S](vector), output, tracer[S]{w: w, names: m.OutputNames()})
	ops := scalar.For[S]()
	result := make([]complex128, len(output))
	for i, v := range output {
		result[i] = ops.ToComplex(v)
	}
	return result, nil
}
