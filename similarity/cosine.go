// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package similarity

import (
	"fmt"
	"math"

	"github.com/poiesic/bizmatch/core"
)

// Epsilon guards the cosine denominator against zero-length vectors.
const Epsilon = 1e-12

// Cosine returns dot(a, b) / (|a| * |b| + Epsilon), accumulated in float64.
// A zero vector scores 0 against anything.
func Cosine(a, b core.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", core.ErrDimensionMismatch, len(a), len(b))
	}
	return cosine(a, b, norm(a)), nil
}

// Score returns the cosine similarity of query against every corpus vector.
// The result has one score per corpus vector, in corpus order.
func Score(query core.Vector, corpus []core.Vector) ([]float64, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", core.ErrDimensionMismatch)
	}

	queryNorm := norm(query)
	scores := make([]float64, len(corpus))
	for i, v := range corpus {
		if len(v) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, corpus vector %d has %d",
				core.ErrDimensionMismatch, len(query), i, len(v))
		}
		scores[i] = cosine(query, v, queryNorm)
	}
	return scores, nil
}

// cosine assumes equal lengths and a precomputed norm for a.
func cosine(a, b core.Vector, normA float64) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA*norm(b) + Epsilon)
}

func norm(v core.Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
