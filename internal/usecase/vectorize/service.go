package vectorize

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cvmatch/internal/domain"
	domdoc "github.com/kailas-cloud/cvmatch/internal/domain/document"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
	"github.com/kailas-cloud/cvmatch/internal/metrics"
)

const (
	// DefaultMaxSkills is the skill slot budget per document.
	DefaultMaxSkills = 20
	// DefaultMaxResponsibilities is the responsibility slot budget per document.
	DefaultMaxResponsibilities = 10
)

// Stats describes a single vectorization run.
type Stats struct {
	SkillsEmbedded           int  `json:"skills_embedded"`
	ResponsibilitiesEmbedded int  `json:"responsibilities_embedded"`
	SkillsDropped            int  `json:"skills_dropped"`
	ResponsibilitiesDropped  int  `json:"responsibilities_dropped"`
	TitleEmbedded            bool `json:"title_embedded"`
	ExperienceEmbedded       bool `json:"experience_embedded"`
	VectorCount              int  `json:"vector_count"`
	Dimension                int  `json:"dimension"`
	TotalTokens              int  `json:"total_tokens"`
}

// Service turns structured documents into VectorSets.
type Service struct {
	embedder            Embedder
	maxSkills           int
	maxResponsibilities int
	logger              *zap.Logger
}

// New creates a vectorize service.
func New(embedder Embedder, logger *zap.Logger) *Service {
	return &Service{
		embedder:            embedder,
		maxSkills:           DefaultMaxSkills,
		maxResponsibilities: DefaultMaxResponsibilities,
		logger:              logger,
	}
}

// WithSlots overrides the per-document slot budget. Non-positive values keep the defaults.
func (s *Service) WithSlots(maxSkills, maxResponsibilities int) *Service {
	if maxSkills > 0 {
		s.maxSkills = maxSkills
	}
	if maxResponsibilities > 0 {
		s.maxResponsibilities = maxResponsibilities
	}
	return s
}

// Build embeds every matchable field of doc in one batch and assembles a validated VectorSet.
// Items beyond the slot budget are dropped in source order and counted in Stats.
func (s *Service) Build(ctx context.Context, doc *domdoc.Document) (vectorset.VectorSet, Stats, error) {
	var st Stats

	skills, droppedSkills := truncate(doc.Skills(), s.maxSkills)
	resps, droppedResps := truncate(doc.Responsibilities(), s.maxResponsibilities)
	st.SkillsDropped = droppedSkills
	st.ResponsibilitiesDropped = droppedResps
	if droppedSkills > 0 {
		metrics.DocumentItemsDroppedTotal.WithLabelValues("skills").Add(float64(droppedSkills))
	}
	if droppedResps > 0 {
		metrics.DocumentItemsDroppedTotal.WithLabelValues("responsibilities").Add(float64(droppedResps))
	}

	texts := make([]string, 0, len(skills)+len(resps)+2)
	texts = append(texts, skills...)
	texts = append(texts, resps...)
	titleAt, expAt := -1, -1
	if t := doc.JobTitle(); t != "" {
		titleAt = len(texts)
		texts = append(texts, t)
	}
	if e := ExperienceStatement(doc); e != "" {
		expAt = len(texts)
		texts = append(texts, e)
	}

	vectors, tokens, err := s.embed(ctx, texts)
	if err != nil {
		return vectorset.VectorSet{}, st, fmt.Errorf("vectorize %s: %w", doc.ID(), err)
	}
	st.TotalTokens = tokens

	f := vectorset.Fields{
		DocumentID:       doc.ID(),
		Kind:             doc.Kind(),
		Skills:           items(skills, vectors[:len(skills)]),
		Responsibilities: items(resps, vectors[len(skills):len(skills)+len(resps)]),
		ExperienceYears:  doc.ExperienceYears(),
	}
	if titleAt >= 0 {
		f.Title = vectors[titleAt]
	}
	if expAt >= 0 {
		f.Experience = vectors[expAt]
	}

	vs, err := vectorset.New(f)
	if err != nil {
		return vectorset.VectorSet{}, st, fmt.Errorf("vectorize %s: %w", doc.ID(), err)
	}

	st.SkillsEmbedded = len(f.Skills)
	st.ResponsibilitiesEmbedded = len(f.Responsibilities)
	st.TitleEmbedded = f.Title != nil
	st.ExperienceEmbedded = f.Experience != nil
	st.VectorCount = vs.VectorCount()
	st.Dimension = vs.Dimension()

	s.logger.Debug("Document vectorized",
		zap.String("document_id", doc.ID()),
		zap.String("kind", string(doc.Kind())),
		zap.Int("vectors", st.VectorCount),
		zap.Int("skills_dropped", droppedSkills),
		zap.Int("responsibilities_dropped", droppedResps),
		zap.Int("total_tokens", tokens),
	)
	return vs, st, nil
}

func (s *Service) embed(ctx context.Context, texts []string) ([][]float32, int, error) {
	if len(texts) == 0 {
		return nil, 0, nil
	}
	var (
		res domain.BatchEmbeddingResult
		err error
	)
	if be, ok := s.embedder.(domain.BatchEmbedder); ok {
		res, err = be.BatchEmbed(ctx, texts)
	} else {
		res, err = domain.BatchFallback(ctx, s.embedder, texts)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("embed: %w", err)
	}
	if len(res.Embeddings) != len(texts) {
		return nil, 0, fmt.Errorf(
			"embedder returned %d vectors for %d texts: %w",
			len(res.Embeddings), len(texts), domain.ErrEmbeddingProviderError,
		)
	}
	return res.Embeddings, res.TotalTokens, nil
}

// ExperienceStatement is the text embedded for the experience slot:
// the free-form statement when present, otherwise one derived from the years.
func ExperienceStatement(doc *domdoc.Document) string {
	if t := doc.ExperienceText(); t != "" {
		return t
	}
	if y := doc.ExperienceYears(); y != nil {
		return strconv.FormatFloat(*y, 'f', -1, 64) + " years of experience"
	}
	return ""
}

func truncate(labels []string, limit int) ([]string, int) {
	if len(labels) <= limit {
		return labels, 0
	}
	return labels[:limit], len(labels) - limit
}

func items(labels []string, vectors [][]float32) []vectorset.Item {
	if len(labels) == 0 {
		return nil
	}
	out := make([]vectorset.Item, len(labels))
	for i, l := range labels {
		out[i] = vectorset.Item{Label: l, Vector: vectors[i]}
	}
	return out
}
