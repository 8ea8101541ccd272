// Package vm provides the stack-machine interpreter that executes bytecode
// against an input vector, writing an output vector.
//
// The instruction set has no branches, so Run visits every instruction
// exactly once, left to right. All checks happen in SetCode: once code has
// been accepted, Run cannot fail and does not allocate.
//
// An Interpreter is not safe for concurrent use, since its value stack is
// scratch state. Many interpreters may share one Code object. Parallel runs
// one interpreter per code fragment.
package vm

import (
	"fmt"

	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/op"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// instruction is a decoded bytecode instruction with its immediate converted
// to the interpreter's scalar type.
type instruction[S scalar.Scalar] struct {
	op     op.Code
	hasImm bool
	value  S
	slot   int
	fn     func(S) S
}

// Interpreter executes one Code object with scalars of type S.
type Interpreter[S scalar.Scalar] struct {
	code    *bytecode.Code
	program []instruction[S]
	stack   []S
	ops     *scalar.Ops[S]
}

// New returns an interpreter with no code. Run is a no-op until SetCode is
// called.
func New[S scalar.Scalar]() *Interpreter[S] {
	return &Interpreter[S]{ops: scalar.For[S]()}
}

// NewWithCode returns an interpreter for code.
func NewWithCode[S scalar.Scalar](code *bytecode.Code) (*Interpreter[S], error) {
	vm := New[S]()
	if err := vm.SetCode(code); err != nil {
		return nil, err
	}
	return vm, nil
}

// SetCode points the interpreter at code, validating it first if it has
// been modified since it was last validated. The interpreter keeps a
// reference to code; it must not be mutated while the interpreter uses it.
//
// Complex immediates lose their imaginary part in a real interpreter.
func (vm *Interpreter[S]) SetCode(code *bytecode.Code) error {
	if code == nil {
		return fmt.Errorf("nil code")
	}
	if !code.Validated() {
		if err := code.Check(); err != nil {
			return err
		}
	}
	program := make([]instruction[S], code.Len())
	for i := range program {
		program[i] = vm.decode(code.At(i))
	}
	if size := code.MinStackSize(); cap(vm.stack) < size {
		vm.stack = make([]S, size)
	} else {
		vm.stack = vm.stack[:size]
	}
	vm.code = code
	vm.program = program
	return nil
}

func (vm *Interpreter[S]) decode(inst bytecode.Instruction) instruction[S] {
	decoded := instruction[S]{op: inst.Op, hasImm: inst.HasImmediate()}
	switch {
	case inst.Imm.IsNumeric():
		decoded.value = vm.ops.FromComplex(inst.Imm.Value())
	case inst.Op == op.Call:
		decoded.fn = vm.ops.Func(inst.Function())
	case inst.HasImmediate():
		decoded.slot = inst.Imm.Index()
	}
	return decoded
}

// Code returns the code set by SetCode, or nil.
func (vm *Interpreter[S]) Code() *bytecode.Code {
	return vm.code
}

// InputSize returns the minimum length of the input vector.
func (vm *Interpreter[S]) InputSize() int {
	if vm.code == nil {
		return 0
	}
	return vm.code.InputSize()
}

// OutputSize returns the minimum length of the output vector.
func (vm *Interpreter[S]) OutputSize() int {
	if vm.code == nil {
		return 0
	}
	return vm.code.OutputSize()
}

// Clone returns an independent interpreter over the same code. The decoded
// program is shared; the stack is not.
func (vm *Interpreter[S]) Clone() *Interpreter[S] {
	return &Interpreter[S]{
		code:    vm.code,
		program: vm.program,
		stack:   make([]S, len(vm.stack)),
		ops:     vm.ops,
	}
}

// Run executes the code once. input must hold at least InputSize values and
// output at least OutputSize; only the slots the code stores to are written.
func (vm *Interpreter[S]) Run(input, output []S) {
	sp := 0
	for i := range vm.program {
		sp = vm.step(&vm.program[i], sp, input, output)
	}
}

// step executes one instruction with the stack holding sp values and returns
// the new stack height.
func (vm *Interpreter[S]) step(in *instruction[S], sp int, input, output []S) int {
	stack := vm.stack
	switch in.op {
	case op.Add:
		if in.hasImm {
			stack[sp-1] += in.value
			return sp
		}
		stack[sp-2] += stack[sp-1]
		return sp - 1
	case op.Sub:
		if in.hasImm {
			stack[sp-1] -= in.value
			return sp
		}
		stack[sp-2] -= stack[sp-1]
		return sp - 1
	case op.Mul:
		if in.hasImm {
			stack[sp-1] *= in.value
			return sp
		}
		stack[sp-2] *= stack[sp-1]
		return sp - 1
	case op.Div:
		if in.hasImm {
			stack[sp-1] /= in.value
			return sp
		}
		stack[sp-2] /= stack[sp-1]
		return sp - 1
	case op.Pow:
		if in.hasImm {
			stack[sp-1] = vm.ops.Pow(stack[sp-1], in.value)
			return sp
		}
		stack[sp-2] = vm.ops.Pow(stack[sp-2], stack[sp-1])
		return sp - 1
	case op.Load:
		stack[sp] = input[in.slot]
		return sp + 1
	case op.Store:
		output[in.slot] = stack[sp-1]
		return sp - 1
	case op.StoreZero:
		output[in.slot] = 0
		return sp
	case op.Push:
		stack[sp] = in.value
		return sp + 1
	case op.Call:
		stack[sp-1] = in.fn(stack[sp-1])
		return sp
	}
	return sp
}

// Eval checks the input length, runs the code and returns a fresh output
// vector of OutputSize values.
func (vm *Interpreter[S]) Eval(input []S) ([]S, error) {
	if len(input) < vm.InputSize() {
		return nil, fmt.Errorf("input has %d values, code reads %d", len(input), vm.InputSize())
	}
	output := make([]S, vm.OutputSize())
	vm.Run(input, output)
	return output, nil
}
