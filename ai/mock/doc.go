// Package mock provides a test double for ai.Embedder.
//
// The mock lets tests run without a model server and gives controlled,
// deterministic behavior.
//
// # Usage in Tests
//
//	// Deterministic hash vectors
//	embedder := mock.NewMockEmbedder()
//	vectors, err := embedder.EmbedTexts(ctx, []string{"test"})
//
//	// Fixed vectors for known inputs
//	embedder := mock.NewStubEmbedder(map[string][]float32{
//	    "provides cybersecurity services.": {1, 0},
//	})
//
//	// Failure injection
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, ai.ErrModelUnavailable
//	}
//
//	// Inspect what was embedded
//	texts := embedder.Texts()
package mock
