package document

import (
	"context"

	"github.com/kailas-cloud/cvmatch/internal/domain"
	domdoc "github.com/kailas-cloud/cvmatch/internal/domain/document"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
	"github.com/kailas-cloud/cvmatch/internal/usecase/vectorize"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Save(ctx context.Context, rec *domdoc.Record) error
	Get(ctx context.Context, id string) (domdoc.Record, error)
	List(ctx context.Context, kind domain.Kind) ([]domdoc.Record, error)
	Delete(ctx context.Context, id string) error
}

// Vectorizer embeds a structured document into a VectorSet.
type Vectorizer interface {
	Build(ctx context.Context, doc *domdoc.Document) (vectorset.VectorSet, vectorize.Stats, error)
}
