package schwarzschild

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports an input that is non-positive, non-finite or
// not a number, or one whose derived quantities leave the float64 range.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidInput) succeed.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field string, v float64, reason string) *InvalidInputError {
	return &InvalidInputError{Field: field, Value: v, Reason: reason}
}
