package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/dis"
	"github.com/deepnoodle-ai/kinetic/engine"
)

func (a *app) disCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dis <model>",
		Short: "Disassemble the bytecode compiled for a model",
		Long: "Compile a model and print its bytecode as a table. With the parallel\n" +
			"backend, each fragment is listed separately.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.loadModel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			opts := []compiler.Option{compiler.WithLogger(a.logger)}
			level := a.v.GetInt("opt")
			disOpts := []dis.Option{
				dis.WithSymbols(m.SymbolTable()),
				dis.WithOutputNames(m.OutputNames()),
			}
			out := cmd.OutOrStdout()

			if a.v.GetString("backend") != engine.BackendParallel {
				c := compiler.New(m.SymbolTable(), opts...)
				if err := c.CompileVector(m.Expressions(), 0); err != nil {
					return err
				}
				if err := c.Finalize(level); err != nil {
					return err
				}
				return dis.Fprint(out, c.Code(), disOpts...)
			}

			c := compiler.NewParallel(m.SymbolTable(), max(a.v.GetInt("workers"), 1), opts...)
			if err := c.CompileVector(m.Expressions(), 0); err != nil {
				return err
			}
			if err := c.Finalize(level); err != nil {
				return err
			}
			bold := color.New(color.Bold).SprintFunc()
			for i, fragment := range c.Code() {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, bold(fmt.Sprintf("fragment %d/%d", i+1, len(c.Code()))))
				if err := dis.Fprint(out, fragment, disOpts...); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
