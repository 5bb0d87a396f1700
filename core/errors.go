package core

import "errors"

var (
	// ErrEmptyQuery indicates a blank search query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidTopN indicates a non-positive result count.
	ErrInvalidTopN = errors.New("top_n must be greater than 0")

	// ErrDimensionMismatch indicates vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrNotReady indicates the corpus cache has not been built or loaded.
	ErrNotReady = errors.New("corpus cache not ready")

	// ErrInvalidEntity indicates an Entity failed validation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrDuplicateEntity indicates two entities share an ID.
	ErrDuplicateEntity = errors.New("duplicate entity id")
)

// IsValidationError reports whether err is a caller input error that must not be retried.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrInvalidTopN) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrInvalidEntity) ||
		errors.Is(err, ErrDuplicateEntity)
}
