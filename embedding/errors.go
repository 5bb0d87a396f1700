package embedding

import "errors"

var (
	// ErrNilEmbedder is returned when an Encoder is created without a model client.
	ErrNilEmbedder = errors.New("embedder is required")

	// ErrInvalidOption is returned when an Encoder option is out of range.
	ErrInvalidOption = errors.New("invalid encoder option")
)
