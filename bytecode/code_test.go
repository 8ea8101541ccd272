package bytecode

import (
	"math"
	"testing"

	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/op"
	"github.com/stretchr/testify/require"
)

func TestValidateComputesSizes(t *testing.T) {
	// output[2] = input[0] + input[1] * 2
	code := FromInstructions(
		Load(0),
		Load(1),
		WithImmediate(op.Mul, Real(2)),
		Add(),
		Store(2),
	)
	require.False(t, code.Validated())
	require.True(t, code.Validate())
	require.True(t, code.Validated())
	require.Equal(t, 2, code.MinStackSize())
	require.Equal(t, 2, code.InputSize())
	require.Equal(t, 3, code.OutputSize())
}

func TestValidateRejectsUnbalanced(t *testing.T) {
	tests := []struct {
		name   string
		code   *Code
		reason string
	}{
		{
			name:   "add with one operand",
			code:   FromInstructions(Load(0), Add(), Store(0)),
			reason: "ADD needs 2 operand(s), stack holds 1",
		},
		{
			name:   "leftover value",
			code:   FromInstructions(Load(0), Load(1), Store(0)),
			reason: "STORE with 2 values on the stack",
		},
		{
			name:   "no store",
			code:   FromInstructions(Load(0)),
			reason: "final stack height 1, expected 0",
		},
		{
			name:   "store on empty stack",
			code:   FromInstructions(Store(0)),
			reason: "STORE needs 1 operand(s), stack holds 0",
		},
		{
			name:   "store zero with pending value",
			code:   FromInstructions(Load(0), StoreZero(1), Store(0)),
			reason: "STORE_ZERO with 1 values on the stack",
		},
		{
			name:   "unknown function",
			code:   FromInstructions(Load(0), Call(op.Function(9)), Store(0)),
			reason: "CALL of unknown function 9",
		},
		{
			name:   "negative slot",
			code:   FromInstructions(Load(-1), Store(0)),
			reason: "LOAD with negative index -1",
		},
		{
			name:   "index immediate on arithmetic",
			code:   FromInstructions(Load(0), WithImmediate(op.Add, Index(1)), Store(0)),
			reason: "ADD requires a numeric immediate",
		},
		{
			name:   "unknown opcode",
			code:   FromInstructions(Instruction{Op: op.Code(99)}),
			reason: "unknown opcode 99",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.False(t, tt.code.Validate())
			err := tt.code.Check()
			require.Error(t, err)
			require.True(t, errz.IsKind(err, errz.ErrCodeValidation))
			require.Contains(t, err.Error(), tt.reason)
			require.False(t, tt.code.Validated())
		})
	}
}

func TestImmediateArithmeticNeedsOneOperand(t *testing.T) {
	code := FromInstructions(Load(0), WithImmediate(op.Pow, Real(3)), Store(0))
	require.True(t, code.Validate())
	require.Equal(t, 1, code.MinStackSize())
}

func TestMutationClearsValidation(t *testing.T) {
	code := FromInstructions(Push(1), Store(0))
	require.True(t, code.Validate())
	code.Append(Load(0))
	require.False(t, code.Validated())
	require.False(t, code.Validate())
}

func TestAppendCode(t *testing.T) {
	a := FromInstructions(Load(0), Load(1), Load(2), Add(), Add(), Store(0))
	b := FromInstructions(Load(3), Store(1))
	require.True(t, a.Validate())
	require.True(t, b.Validate())

	a.AppendCode(b)
	require.Equal(t, 3, a.MinStackSize())
	require.Equal(t, 8, a.Len())
	require.False(t, a.Validated())
	require.True(t, a.Validate())
	require.Equal(t, 4, a.InputSize())
	require.Equal(t, 2, a.OutputSize())
}

func TestSplit(t *testing.T) {
	code := FromInstructions(
		Load(0), Push(2), Mul(), Store(0),
		StoreZero(1),
		Load(1), Call(op.Exp), Store(2),
	)
	require.True(t, code.Validate())
	statements := code.Split()
	require.Len(t, statements, 3)
	require.Equal(t, "LOAD 0\nPUSH 2\nMUL\nSTORE 0", statements[0].String())
	require.Equal(t, "STORE_ZERO 1", statements[1].String())
	require.Equal(t, "LOAD 1\nCALL exp\nSTORE 2", statements[2].String())
	for _, s := range statements {
		require.True(t, s.Validate())
	}
}

func TestEqualAndClone(t *testing.T) {
	a := FromInstructions(Push(math.NaN()), Store(0))
	b := a.Clone()
	require.True(t, a.Equal(b))
	require.NotEqual(t, a.ID(), b.ID())

	b.Append(StoreZero(1))
	require.False(t, a.Equal(b))
	require.Equal(t, 2, a.Len())
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		inst Instruction
		want string
	}{
		{Add(), "ADD"},
		{WithImmediate(op.Sub, Real(-1.5)), "SUB -1.5"},
		{WithImmediate(op.Mul, Complex(1+2i)), "MUL (1+2i)"},
		{Load(4), "LOAD 4"},
		{StoreZero(7), "STORE_ZERO 7"},
		{Call(op.Log), "CALL log"},
		{PushValue(3), "PUSH 3"},
		{Instruction{Op: op.Code(77)}, "OP(77)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, tt.inst.String())
		})
	}
}

func TestImmediate(t *testing.T) {
	require.Equal(t, RealImmediate, Numeric(2).Kind())
	require.Equal(t, ComplexImmediate, Numeric(2i).Kind())
	require.True(t, Real(1).Equals(1))
	require.False(t, Complex(1+1i).Equals(1))
	require.False(t, Index(1).Equals(1))
	require.True(t, Complex(-1).Equals(-1))
}

func TestStats(t *testing.T) {
	code := FromInstructions(
		Load(0), WithImmediate(op.Mul, Real(2)), Store(0),
		StoreZero(1),
	)
	require.True(t, code.Validate())
	stats := code.Stats()
	require.Equal(t, 4, stats.InstructionCount)
	require.Equal(t, 2, stats.StatementCount)
	require.Equal(t, 1, stats.ImmediateCount)
	require.Equal(t, 1, stats.MinStackSize)
	require.Equal(t, 1, stats.Opcodes["MUL"])
}
