package match

import (
	"context"

	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
)

// VectorSetReader loads stored vector sets.
// GetMany omits ids that do not exist instead of failing, and reports ids whose
// stored record is unreadable in broken.
type VectorSetReader interface {
	Get(ctx context.Context, id string) (vectorset.VectorSet, error)
	GetMany(ctx context.Context, ids []string) (found map[string]vectorset.VectorSet, broken map[string]error, err error)
}
