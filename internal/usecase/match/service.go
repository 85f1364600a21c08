package match

import (
	"cmp"
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/cvmatch/internal/domain"
	domatch "github.com/kailas-cloud/cvmatch/internal/domain/match"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
	"github.com/kailas-cloud/cvmatch/internal/domain/weights"
	"github.com/kailas-cloud/cvmatch/internal/metrics"
)

// Service defaults.
const (
	DefaultMaxTopAlternatives = 20
	DefaultMaxCandidates      = 500
)

// Service scores and ranks candidates against a job description.
type Service struct {
	sets          VectorSetReader
	logger        *zap.Logger
	workers       int
	defaultTopAlt int
	maxTopAlt     int
	maxCandidates int
}

// New creates a match service. sets may be nil when only Match is used.
func New(sets VectorSetReader, logger *zap.Logger) *Service {
	return &Service{
		sets:          sets,
		logger:        logger,
		workers:       runtime.GOMAXPROCS(0),
		defaultTopAlt: domatch.DefaultTopAlternatives,
		maxTopAlt:     DefaultMaxTopAlternatives,
		maxCandidates: DefaultMaxCandidates,
	}
}

// WithWorkers bounds the number of candidates scored concurrently.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithTopAlternatives configures the default and maximum alternatives per requirement.
// A default of 0 is allowed (no alternatives unless asked).
func (s *Service) WithTopAlternatives(defaultK, maxK int) *Service {
	if maxK > 0 {
		s.maxTopAlt = maxK
	}
	if defaultK >= 0 {
		s.defaultTopAlt = min(defaultK, s.maxTopAlt)
	}
	return s
}

// WithMaxCandidates bounds the number of candidates per request.
func (s *Service) WithMaxCandidates(n int) *Service {
	if n > 0 {
		s.maxCandidates = n
	}
	return s
}

// entry is one candidate slot: either a loaded set or a load error.
type entry struct {
	id  string
	set *vectorset.VectorSet
	err error
}

// Match ranks inline candidate vector sets against an inline JD vector set.
func (s *Service) Match(
	ctx context.Context, jd vectorset.VectorSet, candidates []vectorset.VectorSet,
	raw weights.Raw, topAlternatives *int,
) (domatch.Result, error) {
	entries := make([]entry, len(candidates))
	for i := range candidates {
		entries[i] = entry{id: candidates[i].DocumentID(), set: &candidates[i]}
	}
	return s.run(ctx, &jd, entries, raw, topAlternatives)
}

// MatchByID loads the JD and candidates from storage and ranks them.
// A missing JD fails the request; a missing or unreadable candidate fails only that candidate.
func (s *Service) MatchByID(ctx context.Context, req domatch.Request) (domatch.Result, error) {
	if s.sets == nil {
		return domatch.Result{}, fmt.Errorf("match by id: no vector set store: %w", domain.ErrNotImplemented)
	}
	if req.JDID == "" {
		return domatch.Result{}, fmt.Errorf("jd_id is required: %w", domain.ErrInvalidRequest)
	}
	if err := s.checkCandidateIDs(req.CandidateIDs); err != nil {
		s.reject()
		return domatch.Result{}, err
	}

	jd, err := s.sets.Get(ctx, req.JDID)
	if err != nil {
		return domatch.Result{}, fmt.Errorf("load jd %s: %w", req.JDID, err)
	}

	var (
		found  map[string]vectorset.VectorSet
		broken map[string]error
	)
	if len(req.CandidateIDs) > 0 {
		found, broken, err = s.sets.GetMany(ctx, req.CandidateIDs)
		if err != nil {
			return domatch.Result{}, fmt.Errorf("load candidates: %w", err)
		}
	}

	entries := make([]entry, len(req.CandidateIDs))
	for i, id := range req.CandidateIDs {
		if loadErr, ok := broken[id]; ok {
			entries[i] = entry{id: id, err: fmt.Errorf("candidate %s: %w", id, loadErr)}
			continue
		}
		vs, ok := found[id]
		if !ok {
			entries[i] = entry{id: id, err: fmt.Errorf("candidate %s: %w", id, domain.ErrDocumentNotFound)}
			continue
		}
		entries[i] = entry{id: id, set: &vs}
	}
	return s.run(ctx, &jd, entries, req.Weights, req.TopAlternatives)
}

func (s *Service) run(
	ctx context.Context, jd *vectorset.VectorSet, entries []entry,
	raw weights.Raw, topAlternatives *int,
) (domatch.Result, error) {
	start := time.Now()

	k, err := s.resolveTopAlternatives(topAlternatives)
	if err != nil {
		s.reject()
		return domatch.Result{}, err
	}
	w, err := weights.Normalize(raw)
	if err != nil {
		s.reject()
		return domatch.Result{}, fmt.Errorf("normalize weights: %w", err)
	}
	if err := s.checkJD(jd); err != nil {
		s.reject()
		return domatch.Result{}, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	if err := s.checkCandidateIDs(ids); err != nil {
		s.reject()
		return domatch.Result{}, err
	}

	outcomes := make([]domatch.Outcome, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range entries {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // context error is surfaced as-is
			}
			outcomes[i] = scoreEntry(jd, entries[i], w, k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.MatchRequestsTotal.WithLabelValues("canceled").Inc()
		return domatch.Result{}, fmt.Errorf("match canceled: %w", err)
	}

	res := domatch.Result{
		JDID:            jd.DocumentID(),
		Weights:         w,
		TopAlternatives: k,
		Candidates:      make([]domatch.Breakdown, 0, len(outcomes)),
	}
	for _, o := range outcomes {
		if o.Status() == domatch.StatusError {
			res.Failures = append(res.Failures, domatch.Failure{CandidateID: o.CandidateID(), Err: o.Err()})
			s.logger.Warn("Candidate scoring failed",
				zap.String("jd_id", res.JDID),
				zap.String("candidate_id", o.CandidateID()),
				zap.Error(o.Err()),
			)
			continue
		}
		res.Candidates = append(res.Candidates, o.Breakdown())
	}
	slices.SortFunc(res.Candidates, func(a, b domatch.Breakdown) int {
		if c := cmp.Compare(b.OverallScore, a.OverallScore); c != 0 {
			return c
		}
		return cmp.Compare(a.CandidateID, b.CandidateID)
	})

	duration := time.Since(start)
	metrics.MatchRequestsTotal.WithLabelValues("ok").Inc()
	metrics.MatchCandidatesTotal.WithLabelValues("ok").Add(float64(len(res.Candidates)))
	metrics.MatchCandidatesTotal.WithLabelValues("error").Add(float64(len(res.Failures)))
	metrics.MatchDuration.Observe(duration.Seconds())

	s.logger.Info("Match completed",
		zap.String("jd_id", res.JDID),
		zap.Int("candidates", len(entries)),
		zap.Int("ranked", len(res.Candidates)),
		zap.Int("failed", len(res.Failures)),
		zap.Int("top_alternatives", k),
		zap.Duration("duration", duration),
	)
	return res, nil
}

func scoreEntry(jd *vectorset.VectorSet, e entry, w weights.Normalized, k int) domatch.Outcome {
	if e.err != nil {
		return domatch.NewError(e.id, e.err)
	}
	cv := e.set
	if cv.Kind() != domain.KindCV {
		return domatch.NewError(e.id, fmt.Errorf("candidate %s is %q, want cv: %w", e.id, cv.Kind(), domain.ErrKindMismatch))
	}
	if err := cv.Validate(); err != nil {
		return domatch.NewError(e.id, fmt.Errorf("candidate %s: %w", e.id, err))
	}
	b, err := ScoreCandidate(jd, cv, w, k)
	if err != nil {
		return domatch.NewError(e.id, fmt.Errorf("score candidate %s: %w", e.id, err))
	}
	return domatch.NewOK(b)
}

func (s *Service) resolveTopAlternatives(k *int) (int, error) {
	if k == nil {
		return s.defaultTopAlt, nil
	}
	if *k < 0 {
		return 0, fmt.Errorf("top_alternatives must be >= 0, got %d: %w", *k, domain.ErrInvalidRequest)
	}
	return min(*k, s.maxTopAlt), nil
}

func (s *Service) checkJD(jd *vectorset.VectorSet) error {
	if jd.Kind() != domain.KindJD {
		return fmt.Errorf("document %s is %q, want jd: %w", jd.DocumentID(), jd.Kind(), domain.ErrKindMismatch)
	}
	if err := jd.Validate(); err != nil {
		return fmt.Errorf("jd: %w", err)
	}
	return nil
}

func (s *Service) checkCandidateIDs(ids []string) error {
	if len(ids) > s.maxCandidates {
		return fmt.Errorf("too many candidates: %d (max %d): %w", len(ids), s.maxCandidates, domain.ErrInvalidRequest)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			return fmt.Errorf("candidate id is required: %w", domain.ErrInvalidRequest)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("candidate %s listed twice: %w", id, domain.ErrDuplicateCandidate)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *Service) reject() {
	metrics.MatchRequestsTotal.WithLabelValues("rejected").Inc()
}
