package traceroute

import (
	"errors"
	"fmt"
)

// ErrEmptyPath is returned when a log contains no complete probe.
var ErrEmptyPath = errors.New("no traceroutes found")

// ParseError reports a malformed or incomplete log record. It is fatal
// for the log being parsed.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErrorf(line int, err error, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...), Err: err}
}
