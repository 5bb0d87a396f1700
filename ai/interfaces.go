package ai

import "context"

// Embedder defines the interface for generating text embeddings.
// Implementations must be safe for concurrent use and deterministic for a
// fixed model: identical input yields identical vectors.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails; there are no partial results.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
