// Package similarity scores two embeddings on a [0, 1] scale.
package similarity

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/cvmatch/internal/domain"
)

// Score returns cosine similarity rescaled from [-1, 1] to [0, 1] as (cos+1)/2.
// A zero-magnitude vector on either side scores 0. Vectors of different
// length are never truncated or padded: the call fails with domain.ErrVectorDimMismatch.
func Score(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("compare %d-dim with %d-dim vector: %w", len(a), len(b), domain.ErrVectorDimMismatch)
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}

	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	// float drift can push |cos| slightly past 1
	cos = math.Max(-1, math.Min(1, cos))
	return (cos + 1) / 2, nil
}
