package source

import "errors"

var (
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("required column missing")

	// ErrEmptySource is returned when the input has no header row.
	ErrEmptySource = errors.New("source has no header")
)
