package compiler

import (
	"fmt"

	"github.com/deepnoodle-ai/kinetic/ast"
	"github.com/deepnoodle-ai/kinetic/bytecode"
)

// Partition distributes the statements of code round-robin over at most
// workers fragments. Output slots are dealt in order of first store: the k-th
// distinct slot goes to fragment k mod n, where n is the smaller of workers
// and the number of distinct slots. Every statement storing to a slot lands
// in that slot's fragment in program order, so repeated stores keep their
// last-write-wins result. Fragments read only the input vector and write
// disjoint output slots, so they may run concurrently. Code without
// statements yields a single empty fragment.
func Partition(code *bytecode.Code, workers int) ([]*bytecode.Code, error) {
	if workers < 1 {
		return nil, fmt.Errorf("invalid worker count %d", workers)
	}
	if !code.Validated() {
		if err := code.Check(); err != nil {
			return nil, err
		}
	}
	statements := code.Split()
	owner := make([]int, len(statements))
	slots := map[int]int{}
	for i, statement := range statements {
		slot := statement.At(statement.Len() - 1).Imm.Index()
		k, ok := slots[slot]
		if !ok {
			k = len(slots)
			slots[slot] = k
		}
		owner[i] = k
	}
	n := min(workers, len(slots))
	if n == 0 {
		empty := bytecode.New()
		empty.Validate()
		return []*bytecode.Code{empty}, nil
	}
	fragments := make([]*bytecode.Code, n)
	for i := range fragments {
		fragments[i] = bytecode.New()
	}
	for i, statement := range statements {
		fragments[owner[i]%n].AppendCode(statement)
	}
	for i, fragment := range fragments {
		if err := fragment.Check(); err != nil {
			return nil, fmt.Errorf("fragment %d: %w", i, err)
		}
	}
	return fragments, nil
}

// ParallelCompiler compiles like a Compiler and splits the finalized code into
// one fragment per worker.
type ParallelCompiler struct {
	compiler  *Compiler
	workers   int
	fragments []*bytecode.Code
}

// NewParallel returns a ParallelCompiler producing up to workers fragments.
func NewParallel(symbols *SymbolTable, workers int, opts ...Option) *ParallelCompiler {
	return &ParallelCompiler{
		compiler: New(symbols, opts...),
		workers:  max(workers, 1),
	}
}

// Workers returns the maximum number of fragments.
func (p *ParallelCompiler) Workers() int {
	return p.workers
}

// CompileExpressionAndStore appends a statement storing node into slot.
func (p *ParallelCompiler) CompileExpressionAndStore(node ast.Expr, slot int) error {
	return p.compiler.CompileExpressionAndStore(node, slot)
}

// CompileVector compiles es[i] into output slot offset+i.
func (p *ParallelCompiler) CompileVector(es []ast.Expr, offset int) error {
	return CompileVector(p, es, offset)
}

// CompileMatrix compiles rows starting at output slot offset.
func (p *ParallelCompiler) CompileMatrix(rows [][]ast.Expr, order Order, offset int) error {
	return CompileMatrix(p, rows, order, offset)
}

// Finalize finalizes the underlying code and partitions it.
func (p *ParallelCompiler) Finalize(level int) error {
	if err := p.compiler.Finalize(level); err != nil {
		return err
	}
	fragments, err := Partition(p.compiler.Code(), p.workers)
	if err != nil {
		return err
	}
	p.fragments = fragments
	p.compiler.logger.Debug().
		Str("code", p.compiler.Code().ID()).
		Int("workers", p.workers).
		Int("fragments", len(fragments)).
		Msg("partitioned")
	return nil
}

// Code returns the fragments produced by Finalize.
func (p *ParallelCompiler) Code() []*bytecode.Code {
	if p.fragments == nil {
		return []*bytecode.Code{p.compiler.Code()}
	}
	return p.fragments
}

// Unpartitioned returns the finalized code before partitioning.
func (p *ParallelCompiler) Unpartitioned() *bytecode.Code {
	return p.compiler.Code()
}

var _ Target = (*ParallelCompiler)(nil)
