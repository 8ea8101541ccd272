// Package dis renders compiled bytecode as a human-readable listing.
package dis

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/compiler"
	"github.com/deepnoodle-ai/kinetic/errz"
	"github.com/deepnoodle-ai/kinetic/internal/table"
	"github.com/deepnoodle-ai/kinetic/op"
)

// Instruction is one disassembled instruction.
type Instruction struct {
	Offset   int
	Opcode   op.Code
	Name     string
	Operands []string
	// Stack is the stack height after the instruction executes.
	Stack int
	// Annotation names the symbol or output behind a slot index, if known.
	Annotation string
}

// Option configures Disassemble.
type Option func(*options)

type options struct {
	symbols *compiler.SymbolTable
	outputs []string
}

// WithSymbols annotates LOAD instructions with input variable names.
func WithSymbols(symbols *compiler.SymbolTable) Option {
	return func(o *options) { o.symbols = symbols }
}

// WithOutputNames annotates STORE and STORE_ZERO instructions with the name
// of the output slot they write.
func WithOutputNames(names []string) Option {
	return func(o *options) { o.outputs = names }
}

// Disassemble decodes code into a listing. Code that underflows the stack is
// still listed; only unknown opcodes are rejected.
func Disassemble(code *bytecode.Code, opts ...Option) ([]Instruction, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var instructions []Instruction
	height := 0
	for offset, inst := range code.Instructions() {
		info := op.GetInfo(inst.Op)
		if info.Code == op.Invalid {
			return nil, errz.Validationf(offset, "unknown opcode %d", inst.Op)
		}
		pops, pushes := info.StackEffect(inst.HasImmediate())
		height += pushes - pops
		instruction := Instruction{
			Offset: offset,
			Opcode: inst.Op,
			Name:   info.Name,
			Stack:  height,
		}
		if inst.HasImmediate() {
			instruction.Operands = []string{operand(inst)}
		}
		instruction.Annotation = o.annotate(inst)
		instructions = append(instructions, instruction)
	}
	return instructions, nil
}

func operand(inst bytecode.Instruction) string {
	if inst.Op == op.Call {
		if fn := inst.Function(); fn.Valid() {
			return fn.String()
		}
	}
	return inst.Imm.String()
}

func (o options) annotate(inst bytecode.Instruction) string {
	slot := inst.Imm.Index()
	switch inst.Op {
	case op.Load:
		if o.symbols != nil {
			if name, ok := o.symbols.NameOf(slot); ok {
				return name
			}
		}
	case op.Store, op.StoreZero:
		if slot >= 0 && slot < len(o.outputs) {
			return o.outputs[slot]
		}
	}
	return ""
}

var (
	memoryColor     = color.New(color.FgCyan)
	arithmeticColor = color.New(color.FgYellow)
	callColor       = color.New(color.FgMagenta)
	constantColor   = color.New(color.FgGreen)
)

func colorize(name string, code op.Code) string {
	switch code {
	case op.Load, op.Store, op.StoreZero:
		return memoryColor.Sprint(name)
	case op.Call:
		return callColor.Sprint(name)
	case op.Push:
		return constantColor.Sprint(name)
	default:
		return arithmeticColor.Sprint(name)
	}
}

// Print writes the listing as a table. Opcode names are colored unless
// color.NoColor is set.
func Print(instructions []Instruction, writer io.Writer) {
	t := table.NewTable(writer)
	t.WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "STACK", "INFO"})
	t.WithHeaderAlignment([]table.Alignment{
		table.AlignCenter,
		table.AlignCenter,
		table.AlignCenter,
		table.AlignCenter,
		table.AlignCenter,
	})
	t.WithColumnAlignment([]table.Alignment{
		table.AlignRight,
		table.AlignLeft,
		table.AlignRight,
		table.AlignRight,
		table.AlignLeft,
	})
	for _, instr := range instructions {
		t.Append([]string{
			strconv.Itoa(instr.Offset),
			colorize(instr.Name, instr.Opcode),
			strings.Join(instr.Operands, " "),
			strconv.Itoa(instr.Stack),
			instr.Annotation,
		})
	}
	t.Render()
}

// Fprint disassembles code and prints it in one step.
func Fprint(w io.Writer, code *bytecode.Code, opts ...Option) error {
	instructions, err := Disassemble(code, opts...)
	if err != nil {
		return fmt.Errorf("disassemble %s: %w", code.ID(), err)
	}
	Print(instructions, w)
	return nil
}
