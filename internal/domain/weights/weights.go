package weights

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/cvmatch/internal/domain"
)

// Raw holds caller-supplied weights. A nil component counts as 0.
type Raw struct {
	Skills           *float64
	Responsibilities *float64
	JobTitle         *float64
	Experience       *float64
}

// Normalized holds weights that sum to 1.0 (immutable per request).
type Normalized struct {
	Skills           float64 `json:"skills"`
	Responsibilities float64 `json:"responsibilities"`
	JobTitle         float64 `json:"job_title"`
	Experience       float64 `json:"experience"`
}

// Default returns equal weights, used when no usable weight was supplied.
func Default() Normalized {
	return Normalized{Skills: 0.25, Responsibilities: 0.25, JobTitle: 0.25, Experience: 0.25}
}

// Normalize validates raw weights and scales them to sum to 1.0.
// Negative or non-finite components fail with domain.ErrInvalidWeight.
// A non-positive sum (nothing supplied, or all zeros) yields Default().
// Components are scaled by the largest one first, so huge finite weights cannot overflow the sum.
func Normalize(r Raw) (Normalized, error) {
	comps := []struct {
		name string
		val  *float64
	}{
		{"skills", r.Skills},
		{"responsibilities", r.Responsibilities},
		{"job_title", r.JobTitle},
		{"experience", r.Experience},
	}

	vals := make([]float64, len(comps))
	var peak float64
	for i, c := range comps {
		if c.val == nil {
			continue
		}
		v := *c.val
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Normalized{}, fmt.Errorf("weight %s is not a finite number: %w", c.name, domain.ErrInvalidWeight)
		}
		if v < 0 {
			return Normalized{}, fmt.Errorf("weight %s is negative (%g): %w", c.name, v, domain.ErrInvalidWeight)
		}
		vals[i] = v
		peak = max(peak, v)
	}

	if peak <= 0 {
		return Default(), nil
	}
	var sum float64
	for i := range vals {
		vals[i] /= peak
		sum += vals[i]
	}
	return Normalized{
		Skills:           vals[0] / sum,
		Responsibilities: vals[1] / sum,
		JobTitle:         vals[2] / sum,
		Experience:       vals[3] / sum,
	}, nil
}

// Sum returns the total of all components.
func (n Normalized) Sum() float64 {
	return n.Skills + n.Responsibilities + n.JobTitle + n.Experience
}

// Ptr is a helper for building Raw literals.
func Ptr(v float64) *float64 { return &v }
