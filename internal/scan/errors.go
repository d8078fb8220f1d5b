package scan

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStructure means the document is not an object holding a
	// "features" array of objects.
	ErrUnexpectedStructure = errors.New("unexpected document structure")

	// ErrTruncatedInput means the stream ended inside a feature.
	ErrTruncatedInput = errors.New("input ended inside a feature")
)

// Error locates a scanning failure in the source stream.
type Error struct {
	Kind   error
	Offset int64
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v at byte %d", e.Kind, e.Offset)
}

func (e *Error) Unwrap() error {
	return e.Kind
}
