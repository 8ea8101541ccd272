// Package op defines the opcodes executed by the expression stack machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint8

const (
	Invalid Code = 0

	// Arithmetic. Each pops its right-hand side from the stack unless the
	// instruction carries an immediate value, in which case only the
	// left-hand side is popped.
	Add Code = 1
	Sub Code = 2
	Mul Code = 3
	Div Code = 4
	Pow Code = 5

	// Load and store
	Load      Code = 10
	Store     Code = 11
	StoreZero Code = 12

	// Constants
	Push Code = 20

	// Builtin function call
	Call Code = 30
)

// Function identifies one of the builtin functions reachable through the
// Call opcode. The set is closed; every backend maps each one explicitly.
type Function uint8

const (
	Abs Function = 1
	Log Function = 2
	Exp Function = 3
)

// String returns the lowercase name of the function, e.g. "log".
func (f Function) String() string {
	switch f {
	case Abs:
		return "abs"
	case Log:
		return "log"
	case Exp:
		return "exp"
	default:
		return ""
	}
}

// Valid reports whether f is a member of the builtin function set.
func (f Function) Valid() bool {
	return f >= Abs && f <= Exp
}

// Functions returns all builtin functions in id order.
func Functions() []Function {
	return []Function{Abs, Log, Exp}
}

// ParseFunction looks up a builtin function by its lowercase name.
func ParseFunction(name string) (Function, bool) {
	for _, f := range Functions() {
		if f.String() == name {
			return f, true
		}
	}
	return 0, false
}

// Info contains information about an opcode.
type Info struct {
	Code Code
	Name string
	// Pops is the number of stack operands consumed when the instruction
	// carries no immediate value.
	Pops int
	// Pushes is the number of values the instruction leaves on the stack.
	Pushes int
	// Binary is true for arithmetic opcodes that may carry an immediate
	// right-hand side.
	Binary bool
	// Indexed is true for opcodes whose immediate is a slot or function index.
	Indexed bool
}

// StackEffect returns the number of values popped given whether the
// instruction carries an immediate.
func (i Info) StackEffect(hasImmediate bool) (pops, pushes int) {
	if i.Binary && hasImmediate {
		return i.Pops - 1, i.Pushes
	}
	return i.Pops, i.Pushes
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op      Code
		name    string
		pops    int
		pushes  int
		binary  bool
		indexed bool
	}
	ops := []opInfo{
		{Add, "ADD", 2, 1, true, false},
		{Sub, "SUB", 2, 1, true, false},
		{Mul, "MUL", 2, 1, true, false},
		{Div, "DIV", 2, 1, true, false},
		{Pow, "POW", 2, 1, true, false},
		{Load, "LOAD", 0, 1, false, true},
		{Store, "STORE", 1, 0, false, true},
		{StoreZero, "STORE_ZERO", 0, 0, false, true},
		{Push, "PUSH", 0, 1, false, false},
		{Call, "CALL", 1, 1, false, true},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:    o.op,
			Name:    o.name,
			Pops:    o.pops,
			Pushes:  o.pushes,
			Binary:  o.binary,
			Indexed: o.indexed,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	return infos[op]
}

// String returns the opcode name, e.g. "STORE_ZERO".
func (c Code) String() string {
	return infos[c].Name
}

// IsCommutative reports whether the operands of a binary opcode may be
// swapped without changing the result.
func (c Code) IsCommutative() bool {
	return c == Add || c == Mul
}
