package pipeline

import "errors"

var (
	// ErrInputNotFound means the input file does not exist.
	ErrInputNotFound = errors.New("input not found")

	// ErrInputUnreadable means the input exists but cannot be opened or read.
	ErrInputUnreadable = errors.New("input unreadable")

	// ErrOutputWrite means the output could not be created or written.
	ErrOutputWrite = errors.New("output write failed")
)
