package vm

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/deepnoodle-ai/kinetic/bytecode"
	"github.com/deepnoodle-ai/kinetic/op"
	"github.com/deepnoodle-ai/kinetic/scalar"
)

// Parallel runs a set of code fragments concurrently, one interpreter per
// fragment. Fragments share the read-only input vector and must store to
// disjoint output slots, which SetCode verifies. No locking is involved; Run
// returns once every fragment has finished.
//
// Like Interpreter, a Parallel is not safe for concurrent use.
type Parallel[S scalar.Scalar] struct {
	workers    []*Interpreter[S]
	inputSize  int
	outputSize int
}

// NewParallel returns a parallel interpreter with no code.
func NewParallel[S scalar.Scalar]() *Parallel[S] {
	return &Parallel[S]{}
}

// SetCode creates one interpreter per fragment.
func (p *Parallel[S]) SetCode(fragments []*bytecode.Code) error {
	workers := make([]*Interpreter[S], len(fragments))
	owner := map[int]int{}
	inputSize, outputSize := 0, 0
	for i, fragment := range fragments {
		worker := New[S]()
		if err := worker.SetCode(fragment); err != nil {
			return fmt.Errorf("fragment %d: %w", i, err)
		}
		for j := 0; j < fragment.Len(); j++ {
			inst := fragment.At(j)
			if inst.Op != op.Store && inst.Op != op.StoreZero {
				continue
			}
			slot := inst.Imm.Index()
			if other, ok := owner[slot]; ok && other != i {
				return fmt.Errorf("fragments %d and %d both store to slot %d", other, i, slot)
			}
			owner[slot] = i
		}
		inputSize = max(inputSize, fragment.InputSize())
		outputSize = max(outputSize, fragment.OutputSize())
		workers[i] = worker
	}
	p.workers = workers
	p.inputSize = inputSize
	p.outputSize = outputSize
	return nil
}

// Workers returns the number of fragments.
func (p *Parallel[S]) Workers() int {
	return len(p.workers)
}

// InputSize returns the minimum length of the input vector.
func (p *Parallel[S]) InputSize() int {
	return p.inputSize
}

// OutputSize returns the minimum length of the output vector.
func (p *Parallel[S]) OutputSize() int {
	return p.outputSize
}

// Run executes every fragment against input and waits for all of them.
func (p *Parallel[S]) Run(input, output []S) {
	switch len(p.workers) {
	case 0:
		return
	case 1:
		p.workers[0].Run(input, output)
		return
	}
	var g errgroup.Group
	for _, worker := range p.workers[1:] {
		worker := worker
		g.Go(func() error {
			worker.Run(input, output)
			return nil
		})
	}
	p.workers[0].Run(input, output)
	_ = g.Wait()
}

// Eval checks the input length, runs every fragment and returns a fresh
// output vector.
func (p *Parallel[S]) Eval(input []S) ([]S, error) {
	if len(input) < p.inputSize {
		return nil, fmt.Errorf("input has %d values, code reads %d", len(input), p.inputSize)
	}
	output := make([]S, p.outputSize)
	p.Run(input, output)
	return output, nil
}
