package catalog

import "fmt"

// TableNotFoundError is returned when a statement names a table the
// catalog doesn't hold.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %s does not exist", e.Table)
}

// TableExistsError is returned by Define when the name is already taken.
type TableExistsError struct {
	Table string
}

func (e *TableExistsError) Error() string {
	return fmt.Sprintf("table %s already exists", e.Table)
}
