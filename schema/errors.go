package schema

import "fmt"

// InvalidSchemaError reports a structurally broken table definition.
type InvalidSchemaError struct {
	Table  string
	Reason string
}

func (e *InvalidSchemaError) Error() string {
	return fmt.Sprintf("invalid schema for table %q: %s", e.Table, e.Reason)
}
