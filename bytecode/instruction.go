package bytecode

import (
	"fmt"
	"math"
	"strconv"

	"github.com/deepnoodle-ai/kinetic/op"
)

// ImmediateKind describes what an instruction's immediate field holds.
type ImmediateKind uint8

const (
	// NoImmediate means the instruction takes all operands from the stack.
	NoImmediate ImmediateKind = iota
	// RealImmediate is a real numeric constant.
	RealImmediate
	// ComplexImmediate is a real+imaginary numeric constant.
	ComplexImmediate
	// IndexImmediate is a slot index or a function id.
	IndexImmediate
)

// Immediate is a constant or index encoded directly in an instruction.
type Immediate struct {
	kind  ImmediateKind
	value complex128
	index int
}

// Real returns a real numeric immediate.
func Real(v float64) Immediate {
	return Immediate{kind: RealImmediate, value: complex(v, 0)}
}

// Complex returns a complex numeric immediate.
func Complex(v complex128) Immediate {
	return Immediate{kind: ComplexImmediate, value: v}
}

// Numeric returns a real immediate when v has no imaginary part and a complex
// one otherwise.
func Numeric(v complex128) Immediate {
	if imag(v) == 0 {
		return Real(real(v))
	}
	return Complex(v)
}

// Index returns an index immediate.
func Index(i int) Immediate {
	return Immediate{kind: IndexImmediate, index: i}
}

// Kind returns the immediate kind.
func (i Immediate) Kind() ImmediateKind { return i.kind }

// IsNumeric reports whether the immediate holds a numeric constant.
func (i Immediate) IsNumeric() bool {
	return i.kind == RealImmediate || i.kind == ComplexImmediate
}

// Value returns the numeric constant. Real immediates have a zero imaginary
// part.
func (i Immediate) Value() complex128 { return i.value }

// Index returns the slot index or function id.
func (i Immediate) Index() int { return i.index }

// Equals reports whether the immediate is numeric and exactly equal to v.
func (i Immediate) Equals(v float64) bool {
	return i.IsNumeric() && i.value == complex(v, 0)
}

func (i Immediate) String() string {
	switch i.kind {
	case RealImmediate:
		return strconv.FormatFloat(real(i.value), 'g', -1, 64)
	case ComplexImmediate:
		return fmt.Sprintf("%g", i.value)
	case IndexImmediate:
		return strconv.Itoa(i.index)
	default:
		return ""
	}
}

// Instruction is a single opcode with an optional immediate.
type Instruction struct {
	Op  op.Code
	Imm Immediate
}

// HasImmediate reports whether the instruction carries an immediate.
func (i Instruction) HasImmediate() bool {
	return i.Imm.kind != NoImmediate
}

// Same reports whether both instructions are identical. Numeric immediates
// are compared bit for bit, so NaN constants compare equal to themselves.
func (i Instruction) Same(other Instruction) bool {
	a, b := i.Imm, other.Imm
	return i.Op == other.Op &&
		a.kind == b.kind &&
		a.index == b.index &&
		math.Float64bits(real(a.value)) == math.Float64bits(real(b.value)) &&
		math.Float64bits(imag(a.value)) == math.Float64bits(imag(b.value))
}

// Function returns the builtin function of a CALL instruction.
func (i Instruction) Function() op.Function {
	return op.Function(i.Imm.index)
}

func (i Instruction) String() string {
	name := i.Op.String()
	if name == "" {
		name = fmt.Sprintf("OP(%d)", i.Op)
	}
	if !i.HasImmediate() {
		return name
	}
	if i.Op == op.Call {
		if fn := i.Function(); fn.Valid() {
			return name + " " + fn.String()
		}
	}
	return name + " " + i.Imm.String()
}

// Add returns an ADD instruction taking both operands from the stack.
func Add() Instruction { return Instruction{Op: op.Add} }

// Sub returns a SUB instruction taking both operands from the stack.
func Sub() Instruction { return Instruction{Op: op.Sub} }

// Mul returns a MUL instruction taking both operands from the stack.
func Mul() Instruction { return Instruction{Op: op.Mul} }

// Div returns a DIV instruction taking both operands from the stack.
func Div() Instruction { return Instruction{Op: op.Div} }

// Pow returns a POW instruction taking both operands from the stack.
func Pow() Instruction { return Instruction{Op: op.Pow} }

// Load returns an instruction that pushes input[slot].
func Load(slot int) Instruction { return Instruction{Op: op.Load, Imm: Index(slot)} }

// Store returns an instruction that pops into output[slot].
func Store(slot int) Instruction { return Instruction{Op: op.Store, Imm: Index(slot)} }

// StoreZero returns an instruction that writes zero into output[slot].
func StoreZero(slot int) Instruction { return Instruction{Op: op.StoreZero, Imm: Index(slot)} }

// Push returns an instruction that pushes a real constant.
func Push(v float64) Instruction { return Instruction{Op: op.Push, Imm: Real(v)} }

// PushValue returns an instruction that pushes a constant, complex when it
// has an imaginary part.
func PushValue(v complex128) Instruction { return Instruction{Op: op.Push, Imm: Numeric(v)} }

// Call returns an instruction that applies a builtin function to the top of
// the stack.
func Call(fn op.Function) Instruction { return Instruction{Op: op.Call, Imm: Index(int(fn))} }

// WithImmediate returns a copy of a binary instruction with an immediate
// right-hand side.
func WithImmediate(code op.Code, imm Immediate) Instruction {
	return Instruction{Op: code, Imm: imm}
}
