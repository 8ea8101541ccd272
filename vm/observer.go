package vm

import (
	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/op"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// StepEvent describes one executed instruction.
type StepEvent[S scalar.Scalar] struct {
	// Offset of the instruction in the code.
	Offset int
	// Instruction that was executed.
	Instruction bytecode.Instruction
	// Stack after the instruction, bottom first. The slice aliases the
	// interpreter's stack and is only valid during the callback.
	Stack []S
}

// StoreEvent describes a write to the output vector.
type StoreEvent[S scalar.Scalar] struct {
	Offset int
	Slot   int
	Value  S
}

// Observer receives execution events from Trace. Returning false from either
// method stops execution.
//
// Implementations can embed NoOpObserver and override what they need.
type Observer[S scalar.Scalar] interface {
	OnStep(event StepEvent[S]) bool
	OnStore(event StoreEvent[S]) bool
}

// NoOpObserver accepts every event.
type NoOpObserver[S scalar.Scalar] struct{}

func (NoOpObserver[S]) OnStep(StepEvent[S]) bool { return true }

func (NoOpObserver[S]) OnStore(StoreEvent[S]) bool { return true }

// Trace executes the code like Run, reporting every instruction and every
// store to observer. It returns false if the observer stopped execution
// early, in which case output may be partially written.
//
// Trace is meant for debugging; it is much slower than Run.
func (vm *Interpreter[S]) Trace(input, output []S, observer Observer[S]) bool {
	sp := 0
	for i := range vm.program {
		in := &vm.program[i]
		sp = vm.step(in, sp, input, output)
		inst := vm.code.At(i)
		if in.op == op.Store || in.op == op.StoreZero {
			event := StoreEvent[S]{Offset: i, Slot: in.slot, Value: output[in.slot]}
			if !observer.OnStore(event) {
				return false
			}
		}
		if !observer.OnStep(StepEvent[S]{Offset: i, Instruction: inst, Stack: vm.stack[:sp]}) {
			return false
		}
	}
	return true
}
