package compiler

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/deepnoodle-ai/kinetic/ast"
)

// Order is the layout of a matrix in the output vector.
type Order int

const (
	// RowMajor stores element (i, j) of an R x C matrix at i*C + j.
	RowMajor Order = iota
	// ColumnMajor stores element (i, j) of an R x C matrix at j*R + i.
	ColumnMajor
)

func (o Order) String() string {
	switch o {
	case RowMajor:
		return "row-major"
	case ColumnMajor:
		return "column-major"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// Target is anything that can compile one expression into an output slot.
// Every backend compiler implements it.
type Target interface {
	CompileExpressionAndStore(node ast.Expr, slot int) error
}

// CompileVector compiles es[i] into output slot offset+i. Every element is
// attempted; all failures are returned together.
func (c *Compiler) CompileVector(es []ast.Expr, offset int) error {
	return CompileVector(c, es, offset)
}

// CompileMatrix compiles a rectangular matrix of expressions starting at
// output slot offset, laid out in the given order.
func (c *Compiler) CompileMatrix(rows [][]ast.Expr, order Order, offset int) error {
	return CompileMatrix(c, rows, order, offset)
}

// CompileVector compiles es[i] into output slot offset+i of target.
func CompileVector(target Target, es []ast.Expr, offset int) error {
	var result *multierror.Error
	for i, e := range es {
		if err := target.CompileExpressionAndStore(e, offset+i); err != nil {
			result = multierror.Append(result, fmt.Errorf("element %d: %w", i, err))
		}
	}
	return result.ErrorOrNil()
}

// CompileMatrix compiles rows into target starting at output slot offset.
// All rows must have the same length.
func CompileMatrix(target Target, rows [][]ast.Expr, order Order, offset int) error {
	nrows := len(rows)
	if nrows == 0 {
		return nil
	}
	ncols := len(rows[0])
	for i, row := range rows {
		if len(row) != ncols {
			return fmt.Errorf("matrix row %d has %d columns, expected %d", i, len(row), ncols)
		}
	}
	var result *multierror.Error
	for i, row := range rows {
		for j, e := range row {
			slot := offset + i*ncols + j
			if order == ColumnMajor {
				slot = offset + j*nrows + i
			}
			if err := target.CompileExpressionAndStore(e, slot); err != nil {
				result = multierror.Append(result, fmt.Errorf("element (%d, %d): %w", i, j, err))
			}
		}
	}
	return result.ErrorOrNil()
}
