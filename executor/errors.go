package executor

import "fmt"

// ColumnNotFoundError reports a column reference no table in scope can
// serve, or a bare reference both join sides could.
type ColumnNotFoundError struct {
	Column    string
	Table     string
	Ambiguous bool
}

func (e *ColumnNotFoundError) Error() string {
	if e.Ambiguous {
		return fmt.Sprintf("column %s is ambiguous, qualify it as table.column", e.Column)
	}
	if e.Table != "" {
		return fmt.Sprintf("column %s does not exist in table %s", e.Column, e.Table)
	}

	return fmt.Sprintf("column %s does not exist", e.Column)
}
