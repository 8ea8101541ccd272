// Package bytecode provides the linear instruction representation shared by
// the assembler, the optimizer and the stack-machine interpreters.
//
// # Instruction Set
//
// The instruction set is branch-free. Every instruction either pushes one
// value (LOAD, PUSH), combines values (ADD, SUB, MUL, DIV, POW, CALL) or
// writes the single remaining value to the output vector (STORE). STORE_ZERO
// writes zero without touching the stack.
//
// Arithmetic instructions may carry an immediate right-hand side:
//
//	LOAD 0      // push input[0]
//	MUL 2.5     // replace top of stack t with t * 2.5
//	STORE 3     // output[3] = pop()
//
// # Statements
//
// A Code object is a concatenation of statements, each ending in STORE or
// STORE_ZERO and each starting from an empty stack. Statements only read the
// input vector and write distinct output slots, so they are independent and
// [Code.Split] can distribute them across workers.
//
// # Validation
//
// [Code.Validate] must succeed before execution. Validation recomputes the
// minimum stack size and the input and output vector sizes; interpreters use
// these to size their scratch space once, so running never allocates and
// never fails.
package bytecode
