package analyzer

import (
	"errors"
	"fmt"
)

// ErrInvalidEncoding is wrapped by ReadError when a line is not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid UTF-8")

// ReadError reports an I/O failure while streaming a log file. Entries read
// before the failure are discarded.
type ReadError struct {
	Name string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("Error reading log file %s: %v", e.Name, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
