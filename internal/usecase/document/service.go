package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cvmatch/internal/domain"
	domdoc "github.com/kailas-cloud/cvmatch/internal/domain/document"
	"github.com/kailas-cloud/cvmatch/internal/usecase/vectorize"
)

// IngestResult is the outcome of Ingest and Reembed.
type IngestResult struct {
	Record  domdoc.Record
	Stats   vectorize.Stats
	Created bool
}

// EmbeddingsInfo summarizes the stored embeddings of a document.
type EmbeddingsInfo struct {
	DocumentID       string      `json:"document_id"`
	Kind             domain.Kind `json:"kind"`
	Model            string      `json:"model,omitempty"`
	Skills           int         `json:"skills"`
	Responsibilities int         `json:"responsibilities"`
	HasTitle         bool        `json:"has_title"`
	HasExperience    bool        `json:"has_experience"`
	Dimension        int         `json:"dimension"`
	Total            int         `json:"total"`
}

// Service handles document ingestion and CRUD with automatic vectorization.
type Service struct {
	repo   Repository
	vec    Vectorizer
	model  string
	now    func() time.Time
	logger *zap.Logger
}

// New creates a document service. model is recorded on every stored record.
func New(repo Repository, vec Vectorizer, model string, logger *zap.Logger) *Service {
	return &Service{repo: repo, vec: vec, model: model, now: time.Now, logger: logger}
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ingest validates, vectorizes and stores a document. An empty ID gets a generated UUID.
// Re-ingesting an existing ID replaces it and keeps its creation time.
func (s *Service) Ingest(ctx context.Context, p domdoc.Params) (IngestResult, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	doc, err := domdoc.New(p)
	if err != nil {
		return IngestResult{}, err
	}

	createdAt := s.now().UTC()
	created := true
	prev, err := s.repo.Get(ctx, doc.ID())
	switch {
	case err == nil:
		createdAt = prev.CreatedAt
		created = false
	case !errors.Is(err, domain.ErrDocumentNotFound):
		return IngestResult{}, fmt.Errorf("get document: %w", err)
	}

	res, err := s.store(ctx, doc, createdAt)
	if err != nil {
		return IngestResult{}, err
	}
	res.Created = created

	s.logger.Info("Document ingested",
		zap.String("document_id", doc.ID()),
		zap.String("kind", string(doc.Kind())),
		zap.Bool("created", created),
		zap.Int("vectors", res.Stats.VectorCount),
		zap.Int("total_tokens", res.Stats.TotalTokens),
	)
	return res, nil
}

// Get returns a stored document by ID.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Record{}, fmt.Errorf("get document: %w", err)
	}
	return rec, nil
}

// List returns stored documents, newest first. An empty kind lists both.
func (s *Service) List(ctx context.Context, kind domain.Kind) ([]domdoc.Record, error) {
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("unknown kind %q: %w", kind, domain.ErrInvalidRequest)
	}
	recs, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return recs, nil
}

// Delete removes a document and its embeddings.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.logger.Info("Document deleted", zap.String("document_id", id))
	return nil
}

// EmbeddingsInfo reports per-category embedding counts for a stored document.
func (s *Service) EmbeddingsInfo(ctx context.Context, id string) (EmbeddingsInfo, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return EmbeddingsInfo{}, err
	}
	vs := rec.Vectors
	_, hasTitle := vs.Title()
	_, hasExp := vs.Experience()
	return EmbeddingsInfo{
		DocumentID:       rec.Document.ID(),
		Kind:             rec.Document.Kind(),
		Model:            rec.Model,
		Skills:           len(vs.Skills()),
		Responsibilities: len(vs.Responsibilities()),
		HasTitle:         hasTitle,
		HasExperience:    hasExp,
		Dimension:        vs.Dimension(),
		Total:            vs.VectorCount(),
	}, nil
}

// Reembed rebuilds the embeddings of a stored document from its structured fields.
func (s *Service) Reembed(ctx context.Context, id string) (IngestResult, error) {
	prev, err := s.Get(ctx, id)
	if err != nil {
		return IngestResult{}, err
	}
	res, err := s.store(ctx, prev.Document, prev.CreatedAt)
	if err != nil {
		return IngestResult{}, err
	}
	s.logger.Info("Document re-embedded",
		zap.String("document_id", id),
		zap.String("previous_model", prev.Model),
		zap.String("model", s.model),
		zap.Int("vectors", res.Stats.VectorCount),
	)
	return res, nil
}

func (s *Service) store(ctx context.Context, doc domdoc.Document, createdAt time.Time) (IngestResult, error) {
	vs, st, err := s.vec.Build(ctx, &doc)
	if err != nil {
		return IngestResult{}, fmt.Errorf("vectorize document: %w", err)
	}
	rec := domdoc.Record{
		Document:  doc,
		Vectors:   vs,
		Model:     s.model,
		CreatedAt: createdAt,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, &rec); err != nil {
		return IngestResult{}, fmt.Errorf("save document: %w", err)
	}
	return IngestResult{Record: rec, Stats: st}, nil
}
