// Package errz defines the errors raised while compiling expressions.
//
// Every error in this package is raised at compile, finalize or SetCode time.
// Executing validated code never fails.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrSymbol indicates a variable that is absent from the symbol table.
	ErrSymbol ErrorKind = iota
	// ErrUnsupportedFunction indicates a call outside the builtin function set.
	ErrUnsupportedFunction
	// ErrCodeValidation indicates bytecode that fails validation. This is
	// always a compiler bug.
	ErrCodeValidation
	// ErrState indicates an API used out of order, e.g. compiling after
	// Finalize.
	ErrState
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrSymbol:
		return "symbol error"
	case ErrUnsupportedFunction:
		return "unsupported function"
	case ErrCodeValidation:
		return "code validation error"
	case ErrState:
		return "state error"
	default:
		return "error"
	}
}

// KindedError is implemented by every error type in this package.
type KindedError interface {
	error
	Kind() ErrorKind
}

// SymbolError is returned when a variable cannot be resolved.
type SymbolError struct {
	Symbol string
	// Suggestions are defined names close to Symbol.
	Suggestions []string
}

func (e *SymbolError) Error() string {
	return fmt.Sprintf("%s: undefined symbol %q%s", e.Kind(), e.Symbol, didYouMean(e.Suggestions))
}

// Kind returns ErrSymbol.
func (e *SymbolError) Kind() ErrorKind { return ErrSymbol }

// UnsupportedFunctionError is returned when an expression calls a function
// that no backend implements.
type UnsupportedFunctionError struct {
	Function    string
	Suggestions []string
}

func (e *UnsupportedFunctionError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("%s: %q%s", e.Kind(), e.Function, didYouMean(e.Suggestions))
	}
	return fmt.Sprintf("%s: %q (supported: abs, log, exp)", e.Kind(), e.Function)
}

// Kind returns ErrUnsupportedFunction.
func (e *UnsupportedFunctionError) Kind() ErrorKind { return ErrUnsupportedFunction }

// CodeValidationError describes why a bytecode sequence is malformed.
type CodeValidationError struct {
	Offset int
	Reason string
}

func (e *CodeValidationError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("%s: %s", e.Kind(), e.Reason)
	}
	return fmt.Sprintf("%s: %s (offset %d)", e.Kind(), e.Reason, e.Offset)
}

// Kind returns ErrCodeValidation.
func (e *CodeValidationError) Kind() ErrorKind { return ErrCodeValidation }

// StateError is returned when a compiler or interpreter is used out of order.
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind(), e.Message)
}

// Kind returns ErrState.
func (e *StateError) Kind() ErrorKind { return ErrState }

// UndefinedSymbol returns a SymbolError suggesting the defined names
// closest to name.
func UndefinedSymbol(name string, defined []string) *SymbolError {
	return &SymbolError{Symbol: name, Suggestions: Suggest(name, defined)}
}

// Validationf creates a CodeValidationError at the given offset.
func Validationf(offset int, format string, args ...any) *CodeValidationError {
	return &CodeValidationError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// Statef creates a StateError.
func Statef(format string, args ...any) *StateError {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first error in err's chain created by this
// package. The boolean is false when there is none.
func KindOf(err error) (ErrorKind, bool) {
	var ke KindedError
	if errors.As(err, &ke) {
		return ke.Kind(), true
	}
	return 0, false
}

// IsKind reports whether err's chain contains an error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
