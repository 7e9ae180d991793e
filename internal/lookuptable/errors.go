package lookuptable

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMalformedRecord is wrapped by every RecordError.
var ErrMalformedRecord = errors.New("malformed lookup table record")

// RecordError describes one line that could not be loaded. Loading carries on past it and
// the line's ID is left as a hole.
type RecordError struct {
	Line int
	Text string
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// IOError is returned when the table itself cannot be read or written. It is never retried.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("lookup table %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("lookup table %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return errors.Wrapf(ErrMalformedRecord, format, args...)
}
