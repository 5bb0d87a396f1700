// Package embedding turns ordered sentences into ordered vectors.
//
// The Encoder owns the orchestration around the model client: fixed-size
// batching, truncation of over-long inputs, concurrent dispatch of batches on
// a worker pool and retry of transient failures. The text-to-vector mapping
// itself is delegated to an ai.Embedder.
//
// A failed batch fails the whole call. Vectors are never substituted or
// skipped, so callers either get one vector per input or an error carrying
// ai.ErrModelUnavailable, ai.ErrMalformedResponse or ai.ErrModelRejected.
//
// # Usage
//
//	encoder, err := embedding.NewEncoder(embedder,
//	    embedding.WithBatchSize(32),
//	    embedding.WithTimeout(10*time.Minute),
//	)
//	if err != nil {
//	    return err
//	}
//	defer encoder.Release()
//
//	vectors, err := encoder.Encode(ctx, sentences)
package embedding
