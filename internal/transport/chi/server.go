package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cvmatch/internal/domain"
	domatch "github.com/kailas-cloud/cvmatch/internal/domain/match"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
	"github.com/kailas-cloud/cvmatch/internal/metrics"
	documentuc "github.com/kailas-cloud/cvmatch/internal/usecase/document"
	healthuc "github.com/kailas-cloud/cvmatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/cvmatch/internal/usecase/match"
)

const maxBodyBytes = 32 << 20

// Server exposes the match engine and document store over HTTP.
type Server struct {
	match         *matchuc.Service
	documents     *documentuc.Service
	health        *healthuc.Service
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. documents may be nil (match-only deployment).
func NewServer(
	match *matchuc.Service,
	documents *documentuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		match:     match,
		documents: documents,
		health:    health,
		validate:  validator.New(),
		logger:    logger,
	}
	for _, m := range sentinelMappings {
		s.errorHandlers = append(s.errorHandlers, sentinelHandler(m))
	}
	return s
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/match", s.MatchStored)
	r.Post("/match/vectors", s.MatchVectors)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.IngestDocument)
		r.Get("/", s.ListDocuments)
		r.Get("/{id}", s.GetDocument)
		r.Delete("/{id}", s.DeleteDocument)
		r.Get("/{id}/embeddings", s.GetEmbeddings)
		r.Post("/{id}/reembed", s.ReembedDocument)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// MatchStored handles POST /match.
func (s *Server) MatchStored(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.match.MatchByID(r.Context(), domatch.Request{
		JDID:            req.JDID,
		CandidateIDs:    req.CandidateIDs,
		Weights:         req.Weights.raw(),
		TopAlternatives: req.TopAlternatives,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewMatchResponse(&res))
}

// MatchVectors handles POST /match/vectors.
func (s *Server) MatchVectors(w http.ResponseWriter, r *http.Request) {
	var req vectorMatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	candidates := make([]vectorset.VectorSet, len(req.Candidates))
	for i := range req.Candidates {
		candidates[i] = req.Candidates[i].VectorSet()
	}
	res, err := s.match.Match(r.Context(), req.JD.VectorSet(), candidates, req.Weights.raw(), req.TopAlternatives)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NewMatchResponse(&res))
}

// IngestDocument handles POST /documents.
func (s *Server) IngestDocument(w http.ResponseWriter, r *http.Request) {
	if !s.documentsEnabled(w) {
		return
	}
	var req documentRequest
	if !s.decode(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.documents.Ingest(ctx, req.params())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
		w.Header().Set("Location", "/documents/"+res.Record.Document.ID())
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, status, ingestResponse{Document: documentToDTO(&res.Record), Stats: res.Stats})
}

// ListDocuments handles GET /documents?kind=cv|jd.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	if !s.documentsEnabled(w) {
		return
	}
	recs, err := s.documents.List(r.Context(), domain.Kind(r.URL.Query().Get("kind")))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]documentResponse, len(recs))
	for i := range recs {
		items[i] = documentToDTO(&recs[i])
	}
	writeJSON(w, http.StatusOK, documentListResponse{Items: items, Count: len(items)})
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	if !s.documentsEnabled(w) {
		return
	}
	rec, err := s.documents.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToDTO(&rec))
}

// GetEmbeddings handles GET /documents/{id}/embeddings.
func (s *Server) GetEmbeddings(w http.ResponseWriter, r *http.Request) {
	if !s.documentsEnabled(w) {
		return
	}
	info, err := s.documents.EmbeddingsInfo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// DeleteDocument handles DELETE /documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if !s.documentsEnabled(w) {
		return
	}
	if err := s.documents.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReembedDocument handles POST /documents/{id}/reembed.
func (s *Server) ReembedDocument(w http.ResponseWriter, r *http.Request) {
	if !s.documentsEnabled(w) {
		return
	}
	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.documents.Reembed(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, ingestResponse{Document: documentToDTO(&res.Record), Stats: res.Stats})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, report)
}

func (s *Server) documentsEnabled(w http.ResponseWriter) bool {
	if s.documents != nil {
		return true
	}
	writeError(w, http.StatusNotImplemented, CodeNotImplemented, "document storage is not configured")
	return false
}

// decode reads a JSON body into v and validates it. It writes the error response itself.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
