package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/cvmatch/internal/domain"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, 0.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.5},
		{"zero left", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"zero right", []float32{1, 1}, []float32{0, 0}, 0.0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScore_Symmetric(t *testing.T) {
	a := []float32{0.3, -0.7, 0.2}
	b := []float32{-0.1, 0.4, 0.9}
	ab, err := Score(a, b)
	require.NoError(t, err)
	ba, err := Score(b, a)
	require.NoError(t, err)
	assert.InDelta(t, ab, ba, 1e-12)
	assert.GreaterOrEqual(t, ab, 0.0)
	assert.LessOrEqual(t, ab, 1.0)
}

func TestScore_DimMismatch(t *testing.T) {
	_, err := Score([]float32{1, 2, 3, 4, 5}, []float32{1, 2, 3, 4, 5, 6})
	assert.ErrorIs(t, err, domain.ErrVectorDimMismatch)
}
