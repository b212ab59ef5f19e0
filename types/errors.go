package types

import "fmt"

// TypeMismatchError is returned when a literal cannot be coerced to the
// declared type of its target column.
type TypeMismatchError struct {
	Column   string
	Expected DataType
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch for column %q: expected %s, got %s", e.Column, e.Expected, e.Actual)
}
