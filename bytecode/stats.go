package bytecode

import "github.com/deepnoodle-ai/kinetic/op"

// Stats contains statistics about compiled bytecode.
type Stats struct {
	// InstructionCount is the total number of instructions.
	InstructionCount int

	// StatementCount is the number of STORE and STORE_ZERO instructions.
	StatementCount int

	// ImmediateCount is the number of arithmetic instructions with an
	// immediate right-hand side.
	ImmediateCount int

	// MinStackSize is the stack depth required to run the code.
	MinStackSize int

	// Opcodes counts instructions per opcode name.
	Opcodes map[string]int
}

// Stats returns statistics about this code block.
func (c *Code) Stats() Stats {
	stats := Stats{
		InstructionCount: len(c.instructions),
		MinStackSize:     c.minStackSize,
		Opcodes:          map[string]int{},
	}
	for _, inst := range c.instructions {
		stats.Opcodes[inst.Op.String()]++
		switch {
		case inst.Op == op.Store || inst.Op == op.StoreZero:
			stats.StatementCount++
		case op.GetInfo(inst.Op).Binary && inst.HasImmediate():
			stats.ImmediateCount++
		}
	}
	return stats
}
