package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Declaration errors (caught while loading)
	ErrUndeclaredVariable = errors.New("undeclared variable")
	ErrAmbiguousVariable  = errors.New("variable declared in more than one role")
	ErrDuplicateVariable  = errors.New("duplicate variable declaration")

	// Evaluation errors (caught while computing)
	ErrDivisionByZero       = errors.New("division by zero")
	ErrInvalidQuantileInput = errors.New("invalid quantile input")
	ErrNonFinite            = errors.New("non-finite value")
	ErrUnboundVariable      = errors.New("unbound variable")
	ErrEmptySample          = errors.New("sample set has no measurements")
)

// NewUndeclaredError reports a reference to a variable missing from the variables section
func NewUndeclaredError(section, name string) error {
	return fmt.Errorf("%w: '%s' in section '%s'", ErrUndeclaredVariable, name, section)
}

// NewDivisionByZeroError reports a zero denominator while computing the named quantity
func NewDivisionByZeroError(quantity string) error {
	return fmt.Errorf("%w while computing %s", ErrDivisionByZero, quantity)
}

// IsDeclarationError reports whether err stems from bad input declarations
func IsDeclarationError(err error) bool {
	return errors.Is(err, ErrUndeclaredVariable) ||
		errors.Is(err, ErrAmbiguousVariable) ||
		errors.Is(err, ErrDuplicateVariable)
}

// IsEvaluationError reports whether err stems from bad arithmetic during a run
func IsEvaluationError(err error) bool {
	return errors.Is(err, ErrDivisionByZero) ||
		errors.Is(err, ErrInvalidQuantileInput) ||
		errors.Is(err, ErrNonFinite) ||
		errors.Is(err, ErrUnboundVariable) ||
		errors.Is(err, ErrEmptySample)
}
