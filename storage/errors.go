package storage

import (
	"fmt"

	"github.com/pingcap/errors"
)

var (
	// ErrWrongMagic means a record starts with the wrong magic number
	ErrWrongMagic = errors.New("wrong magic")

	// ErrChecksumMismatch means a live record's payload does not match
	// its checksum
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrRowNotFound means no live row carries the requested row id
	ErrRowNotFound = errors.New("row not found")
)

// Constraint names for ConstraintError.
const (
	ConstraintUnique  = "unique"
	ConstraintNotNull = "not-null"
	ConstraintLength  = "length"
	ConstraintArity   = "arity"
)

// ConstraintError reports a write that would break a schema rule. The
// write is rejected before anything reaches the table file, the table
// stays unchanged.
type ConstraintError struct {
	Table      string
	Column     string
	Constraint string
	Value      string
	// Want and Got are set for arity violations only
	Want, Got int
}

func (e *ConstraintError) Error() string {
	switch e.Constraint {
	case ConstraintUnique:
		return fmt.Sprintf("duplicate value %s for unique column %s.%s", e.Value, e.Table, e.Column)
	case ConstraintNotNull:
		return fmt.Sprintf("column %s.%s does not allow NULL", e.Table, e.Column)
	case ConstraintLength:
		return fmt.Sprintf("value %s too long for column %s.%s", e.Value, e.Table, e.Column)
	case ConstraintArity:
		return fmt.Sprintf("table %s expects %d values, got %d", e.Table, e.Want, e.Got)
	}
	return fmt.Sprintf("constraint %s broken on table %s", e.Constraint, e.Table)
}
