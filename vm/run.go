package vm

import (
	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// Run evaluates code once in a new interpreter and returns the output
// vector.
func Run[S scalar.Scalar](code *bytecode.Code, input []S) ([]S, error) {
	machine, err := NewWithCode[S](code)
	if err != nil {
		return nil, err
	}
	return machine.Eval(input)
}
