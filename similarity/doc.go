// Package similarity scores a query vector against corpus vectors.
//
// Scoring is cosine similarity with an epsilon guard in the denominator.
// Functions are pure and safe for concurrent use; dimension mismatches are
// reported as core.ErrDimensionMismatch rather than coerced.
package similarity
