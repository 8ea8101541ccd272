package optimizer

import (
	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/op"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// ImmediateValueRHS moves a constant operand of a commutative operation to
// the right-hand side: c + x becomes x + c, c * x becomes x * c.
type ImmediateValueRHS struct{}

func (ImmediateValueRHS) Name() string { return "immediate-value-rhs" }

func (ImmediateValueRHS) TryRewrite(v *Value) (*Value, bool) {
	if !v.IsBinary() || !v.Op().IsCommutative() {
		return nil, false
	}
	lhs, rhs := v.Args[0], v.Args[1]
	if !lhs.IsPush() || rhs.IsPush() {
		return nil, false
	}
	return NewValue(v.Inst, rhs, lhs), true
}

// ImmediateValue folds a constant right-hand operand into the instruction's
// immediate field.
type ImmediateValue struct{}

func (ImmediateValue) Name() string { return "immediate-value" }

func (ImmediateValue) TryRewrite(v *Value) (*Value, bool) {
	if !v.IsBinary() || !v.Args[1].IsPush() {
		return nil, false
	}
	inst := bytecode.WithImmediate(v.Op(), v.Args[1].Inst.Imm)
	return NewValue(inst, v.Args[0]), true
}

// RemoveUnits drops identity operations: x + 0, x - 0, x * 1, x / 1 and
// x ^ 1 become x, and x ^ 0 becomes the constant 1.
type RemoveUnits struct{}

func (RemoveUnits) Name() string { return "remove-units" }

func (RemoveUnits) TryRewrite(v *Value) (*Value, bool) {
	if len(v.Args) != 1 || !v.Inst.Imm.IsNumeric() {
		return nil, false
	}
	imm := v.Inst.Imm
	switch v.Op() {
	case op.Add, op.Sub:
		if imm.Equals(0) {
			return v.Args[0], true
		}
	case op.Mul, op.Div:
		if imm.Equals(1) {
			return v.Args[0], true
		}
	case op.Pow:
		if imm.Equals(1) {
			return v.Args[0], true
		}
		if imm.Equals(0) {
			return NewValue(bytecode.Push(1)), true
		}
	}
	return nil, false
}

// ConstantFolding evaluates a builtin function applied to a constant. Real
// constants fold with real arithmetic and stay real; complex constants fold
// with complex arithmetic. A real constant outside the function's real
// domain, such as log(-1), is left alone so that complex interpreters still
// compute the complex result.
type ConstantFolding struct{}

func (ConstantFolding) Name() string { return "constant-folding" }

func (ConstantFolding) TryRewrite(v *Value) (*Value, bool) {
	if v.Op() != op.Call || len(v.Args) != 1 || !v.Args[0].IsPush() {
		return nil, false
	}
	fn := v.Inst.Function()
	if !fn.Valid() {
		return nil, false
	}
	imm := v.Args[0].Inst.Imm
	var folded bytecode.Immediate
	switch imm.Kind() {
	case bytecode.RealImmediate:
		if imag(scalar.FoldComplex(fn, imm.Value())) != 0 {
			return nil, false
		}
		folded = bytecode.Real(scalar.FoldReal(fn, real(imm.Value())))
	case bytecode.ComplexImmediate:
		folded = bytecode.Complex(scalar.FoldComplex(fn, imm.Value()))
	default:
		return nil, false
	}
	return NewValue(bytecode.WithImmediate(op.Push, folded)), true
}

// ZeroStore replaces a store of the constant zero with STORE_ZERO.
type ZeroStore struct{}

func (ZeroStore) Name() string { return "zero-store" }

func (ZeroStore) TryRewrite(v *Value) (*Value, bool) {
	if v.Op() != op.Store || len(v.Args) != 1 || !v.Args[0].IsConstant(0) {
		return nil, false
	}
	return NewValue(bytecode.StoreZero(v.Inst.Imm.Index())), true
}

// ConstantPropagation lifts a constant factor out of a product so that it
// can meet other constants further up: (x * c) * y and y * (x * c) both
// become (x * y) * c.
type ConstantPropagation struct{}

func (ConstantPropagation) Name() string { return "constant-propagation" }

func (ConstantPropagation) TryRewrite(v *Value) (*Value, bool) {
	if v.Op() != op.Mul || !v.IsBinary() {
		return nil, false
	}
	lhs, rhs := v.Args[0], v.Args[1]
	var scaled, other *Value
	switch {
	case lhs.IsImmediate(op.Mul):
		scaled, other = lhs, rhs
	case rhs.IsImmediate(op.Mul):
		scaled, other = rhs, lhs
	default:
		return nil, false
	}
	product := NewValue(bytecode.Mul(), scaled.Args[0], other)
	return NewValue(scaled.Inst, product), true
}

// InstructionCanonization turns additions of negated terms into
// subtractions: x + (y * -1) becomes x - y, (x * -1) + y becomes y - x and
// (x * -1) + (y * -1) becomes (x + y) * -1.
type InstructionCanonization struct{}

func (InstructionCanonization) Name() string { return "instruction-canonization" }

func (InstructionCanonization) TryRewrite(v *Value) (*Value, bool) {
	if v.Op() != op.Add || !v.IsBinary() {
		return nil, false
	}
	lhs, rhs := v.Args[0], v.Args[1]
	lneg, rneg := lhs.IsScaledBy(-1), rhs.IsScaledBy(-1)
	switch {
	case lneg && rneg:
		sum := NewValue(bytecode.Add(), lhs.Args[0], rhs.Args[0])
		return NewValue(bytecode.WithImmediate(op.Mul, bytecode.Real(-1)), sum), true
	case rneg:
		return NewValue(bytecode.Sub(), lhs, rhs.Args[0]), true
	case lneg:
		return NewValue(bytecode.Sub(), rhs, lhs.Args[0]), true
	}
	return nil, false
}

// ExpressionPasses returns the passes run at optimization level 1, in
// application order.
func ExpressionPasses() []Pass {
	return []Pass{
		ImmediateValueRHS{},
		ImmediateValue{},
		RemoveUnits{},
		ConstantFolding{},
		ConstantPropagation{},
		InstructionCanonization{},
	}
}

// AllPasses returns every pass, in application order. ZeroStore sits
// between constant folding and constant propagation.
func AllPasses() []Pass {
	return []Pass{
		ImmediateValueRHS{},
		ImmediateValue{},
		RemoveUnits{},
		ConstantFolding{},
		ZeroStore{},
		ConstantPropagation{},
		InstructionCanonization{},
	}
}

// PassesForLevel returns the passes run at the given optimization level.
// Level 0 runs none.
func PassesForLevel(level int) []Pass {
	switch {
	case level <= 0:
		return nil
	case level == 1:
		return ExpressionPasses()
	default:
		return AllPasses()
	}
}
