package parser

import "fmt"

// ParseError reports a syntax error. Pos is the byte offset into the
// statement text where the problem starts.
type ParseError struct {
	Msg string
	Pos int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Msg)
}
