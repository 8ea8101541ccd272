package bytecode

import (
	"strings"

	"github.com/gofrs/uuid"

	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/op"
)

// Code is an ordered sequence of instructions together with the metadata an
// interpreter needs to run it: the minimum stack size and the input and
// output vector lengths it addresses.
//
// Code is mutable while a compiler or optimizer owns it. Any mutation clears
// the validated flag; Validate must succeed again before execution. Once
// frozen it is safe for concurrent reads.
type Code struct {
	id           string
	instructions []Instruction
	minStackSize int
	inputSize    int
	outputSize   int
	validated    bool
}

// New returns an empty Code object.
func New() *Code {
	return &Code{id: newID()}
}

// FromInstructions returns a Code object holding a copy of the given
// instructions. The result is not validated.
func FromInstructions(instructions ...Instruction) *Code {
	c := New()
	c.Append(instructions...)
	return c
}

func newID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}

// ID returns a unique identifier used to correlate log entries.
func (c *Code) ID() string {
	return c.id
}

// Append adds instructions to the end of the code.
func (c *Code) Append(instructions ...Instruction) {
	c.instructions = append(c.instructions, instructions...)
	c.validated = false
}

// AppendCode concatenates other onto c. The minimum stack size becomes the
// larger of the two, since the programs run one after the other.
func (c *Code) AppendCode(other *Code) {
	c.instructions = append(c.instructions, other.instructions...)
	c.minStackSize = max(c.minStackSize, other.minStackSize)
	c.inputSize = max(c.inputSize, other.inputSize)
	c.outputSize = max(c.outputSize, other.outputSize)
	c.validated = false
}

// Len returns the number of instructions.
func (c *Code) Len() int {
	return len(c.instructions)
}

// At returns the instruction at the given index.
func (c *Code) At(index int) Instruction {
	return c.instructions[index]
}

// Instructions returns a copy of the instruction sequence.
func (c *Code) Instructions() []Instruction {
	out := make([]Instruction, len(c.instructions))
	copy(out, c.instructions)
	return out
}

// MinStackSize returns the deepest stack reached while executing the code,
// as computed by the last Validate call.
func (c *Code) MinStackSize() int {
	return c.minStackSize
}

// InputSize returns one more than the largest slot loaded.
func (c *Code) InputSize() int {
	return c.inputSize
}

// OutputSize returns one more than the largest slot stored.
func (c *Code) OutputSize() int {
	return c.outputSize
}

// Validated reports whether Validate succeeded since the last mutation.
func (c *Code) Validated() bool {
	return c.validated
}

// Validate recomputes the stack and vector sizes and reports whether the
// instruction sequence is well formed.
func (c *Code) Validate() bool {
	return c.Check() == nil
}

// Check validates the code like Validate and describes the first problem
// found.
//
// The sequence is simulated on an initially empty stack. No instruction may
// find fewer operands than it consumes, every STORE must consume the only
// value on the stack, and the stack must be empty at the end.
func (c *Code) Check() error {
	c.validated = false
	height, deepest := 0, 0
	inputs, outputs := 0, 0
	for offset, inst := range c.instructions {
		info := op.GetInfo(inst.Op)
		if info.Code == op.Invalid {
			return errz.Validationf(offset, "unknown opcode %d", inst.Op)
		}
		if err := checkImmediate(offset, info, inst); err != nil {
			return err
		}
		pops, pushes := info.StackEffect(inst.HasImmediate())
		if height < pops {
			return errz.Validationf(offset, "%s needs %d operand(s), stack holds %d",
				info.Name, pops, height)
		}
		if inst.Op == op.Store && height != 1 {
			return errz.Validationf(offset, "STORE with %d values on the stack", height)
		}
		if inst.Op == op.StoreZero && height != 0 {
			return errz.Validationf(offset, "STORE_ZERO with %d values on the stack", height)
		}
		height += pushes - pops
		deepest = max(deepest, height)
		switch inst.Op {
		case op.Load:
			inputs = max(inputs, inst.Imm.index+1)
		case op.Store, op.StoreZero:
			outputs = max(outputs, inst.Imm.index+1)
		}
	}
	if height != 0 {
		return errz.Validationf(-1, "final stack height %d, expected 0", height)
	}
	c.minStackSize = deepest
	c.inputSize = inputs
	c.outputSize = outputs
	c.validated = true
	return nil
}

func checkImmediate(offset int, info op.Info, inst Instruction) error {
	switch {
	case info.Indexed:
		if inst.Imm.kind != IndexImmediate {
			return errz.Validationf(offset, "%s requires an index immediate", info.Name)
		}
		if inst.Imm.index < 0 {
			return errz.Validationf(offset, "%s with negative index %d", info.Name, inst.Imm.index)
		}
		if inst.Op == op.Call && !inst.Function().Valid() {
			return errz.Validationf(offset, "CALL of unknown function %d", inst.Imm.index)
		}
	case info.Binary:
		if inst.HasImmediate() && !inst.Imm.IsNumeric() {
			return errz.Validationf(offset, "%s requires a numeric immediate", info.Name)
		}
	case inst.Op == op.Push:
		if !inst.Imm.IsNumeric() {
			return errz.Validationf(offset, "PUSH requires a numeric immediate")
		}
	}
	return nil
}

// Equal reports whether both codes hold the same instruction sequence.
func (c *Code) Equal(other *Code) bool {
	if len(c.instructions) != len(other.instructions) {
		return false
	}
	for i, inst := range c.instructions {
		if !inst.Same(other.instructions[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy with a new ID.
func (c *Code) Clone() *Code {
	clone := *c
	clone.id = newID()
	clone.instructions = c.Instructions()
	return &clone
}

// Split divides the code into its statements: maximal sequences that end in
// STORE or STORE_ZERO. Each statement depends only on the input vector, so
// statements storing to distinct slots may be executed in any order. The code
// must be valid.
func (c *Code) Split() []*Code {
	var statements []*Code
	start := 0
	for i, inst := range c.instructions {
		if inst.Op != op.Store && inst.Op != op.StoreZero {
			continue
		}
		statements = append(statements, FromInstructions(c.instructions[start:i+1]...))
		start = i + 1
	}
	return statements
}

// String returns one instruction per line.
func (c *Code) String() string {
	var sb strings.Builder
	for i, inst := range c.instructions {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(inst.String())
	}
	return sb.String()
}
