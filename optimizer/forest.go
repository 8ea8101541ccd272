// Package optimizer rewrites bytecode through a dependence forest: the tree
// of values reconstructed by simulating the stack machine.
//
// Every STORE or STORE_ZERO in a Code object becomes the root of one tree.
// Each node owns the values it consumes, so the forest is a set of
// single-owner trees rather than a shared graph. A rewrite replaces a value
// slot with a new value; nodes are never edited in place.
//
// Building a forest and serializing it back without applying any pass
// reproduces the original instruction sequence exactly.
package optimizer

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/op"
)

// Value is one instruction together with the values it consumes, in stack
// order (Args[0] was pushed first).
type Value struct {
	Inst bytecode.Instruction
	Args []*Value

	// settled is set once no pass matches this node or any node below it.
	settled bool
}

// NewValue returns a value for inst consuming args.
func NewValue(inst bytecode.Instruction, args ...*Value) *Value {
	return &Value{Inst: inst, Args: args}
}

// Op returns the opcode of the value's instruction.
func (v *Value) Op() op.Code {
	return v.Inst.Op
}

// IsPush reports whether the value is a PUSH constant.
func (v *Value) IsPush() bool {
	return v.Inst.Op == op.Push
}

// IsConstant reports whether the value is a PUSH of exactly c.
func (v *Value) IsConstant(c float64) bool {
	return v.IsPush() && v.Inst.Imm.Equals(c)
}

// IsBinary reports whether the value is an arithmetic instruction taking
// both operands from the stack.
func (v *Value) IsBinary() bool {
	return op.GetInfo(v.Inst.Op).Binary && !v.Inst.HasImmediate() && len(v.Args) == 2
}

// IsImmediate reports whether the value is an arithmetic instruction of the
// given opcode with an immediate right-hand side.
func (v *Value) IsImmediate(code op.Code) bool {
	return v.Inst.Op == code && v.Inst.Imm.IsNumeric() && len(v.Args) == 1
}

// IsScaledBy reports whether the value is "x * c" with an immediate c.
func (v *Value) IsScaledBy(c float64) bool {
	return v.IsImmediate(op.Mul) && v.Inst.Imm.Equals(c)
}

// Size returns the number of values in the subtree.
func (v *Value) Size() int {
	n := 1
	for _, arg := range v.Args {
		n += arg.Size()
	}
	return n
}

// String renders the subtree in prefix notation, e.g. "(STORE 0 (LOAD 1))".
func (v *Value) String() string {
	if len(v.Args) == 0 {
		return v.Inst.String()
	}
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(v.Inst.String())
	for _, arg := range v.Args {
		sb.WriteString(" ")
		sb.WriteString(arg.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Forest is the set of root values of a Code object, one per statement, in
// program order.
type Forest struct {
	Roots []*Value
}

// Build reconstructs the dependence forest of code by simulating its
// instructions on an abstract stack of values. The code must be valid.
func Build(code *bytecode.Code) (*Forest, error) {
	if !code.Validated() {
		if err := code.Check(); err != nil {
			return nil, fmt.Errorf("building dependence forest: %w", err)
		}
	}
	forest := &Forest{}
	stack := make([]*Value, 0, code.MinStackSize())
	for i := 0; i < code.Len(); i++ {
		inst := code.At(i)
		pops, pushes := op.GetInfo(inst.Op).StackEffect(inst.HasImmediate())
		var args []*Value
		if pops > 0 {
			args = make([]*Value, pops)
			copy(args, stack[len(stack)-pops:])
			stack = stack[:len(stack)-pops]
		}
		value := NewValue(inst, args...)
		if pushes > 0 {
			stack = append(stack, value)
		} else {
			forest.Roots = append(forest.Roots, value)
		}
	}
	return forest, nil
}

// Serialize linearizes the forest into a new Code object, emitting every
// value after the values it consumes. The result is not validated.
func (f *Forest) Serialize() *bytecode.Code {
	code := bytecode.New()
	for _, root := range f.Roots {
		emit(code, root)
	}
	return code
}

func emit(code *bytecode.Code, v *Value) {
	for _, arg := range v.Args {
		emit(code, arg)
	}
	code.Append(v.Inst)
}

// Size returns the number of values in the forest, which equals the number
// of instructions it serializes to.
func (f *Forest) Size() int {
	n := 0
	for _, root := range f.Roots {
		n += root.Size()
	}
	return n
}

// String renders one root per line.
func (f *Forest) String() string {
	lines := make([]string, len(f.Roots))
	for i, root := range f.Roots {
		lines[i] = root.String()
	}
	return strings.Join(lines, "\n")
}
