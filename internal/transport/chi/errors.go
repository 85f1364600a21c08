package chi

import (
	"errors"
	"net/http"

	"github.com/kailas-cloud/cvmatch/internal/domain"
)

// Error codes returned in error bodies and per-candidate failures.
const (
	CodeBadRequest             = "bad_request"
	CodeUnauthorized           = "unauthorized"
	CodeValidationFailed       = "validation_failed"
	CodeInvalidDocument        = "invalid_document"
	CodeInvalidWeight          = "invalid_weight"
	CodeDuplicateCandidate     = "duplicate_candidate"
	CodeKindMismatch           = "kind_mismatch"
	CodeVectorDimMismatch      = "vector_dim_mismatch"
	CodeDocumentNotFound       = "document_not_found"
	CodeRateLimited            = "rate_limited"
	CodeEmbeddingProviderError = "embedding_provider_error"
	CodeNotImplemented         = "not_implemented"
	CodeInternalError          = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// sentinelMapping ties a sentinel to its HTTP status and code.
// detailed mappings expose the full error text: it is built from request content only.
type sentinelMapping struct {
	sentinel error
	status   int
	code     string
	detailed bool
}

var sentinelMappings = []sentinelMapping{
	{domain.ErrInvalidWeight, http.StatusBadRequest, CodeInvalidWeight, true},
	{domain.ErrDuplicateCandidate, http.StatusBadRequest, CodeDuplicateCandidate, true},
	{domain.ErrKindMismatch, http.StatusBadRequest, CodeKindMismatch, true},
	{domain.ErrVectorDimMismatch, http.StatusBadRequest, CodeVectorDimMismatch, true},
	{domain.ErrInvalidDocument, http.StatusBadRequest, CodeInvalidDocument, true},
	{domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed, true},
	{domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound, false},
	{domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited, false},
	{domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingProviderError, false},
	{domain.ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented, false},
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(m sentinelMapping) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, m.sentinel) {
			return false
		}
		writeError(w, m.status, m.code, message(m, err))
		return true
	}
}

// errorCode maps an error to its public code, for per-candidate failures.
func errorCode(err error) (string, string) {
	for _, m := range sentinelMappings {
		if errors.Is(err, m.sentinel) {
			return m.code, message(m, err)
		}
	}
	return CodeInternalError, "internal error"
}

func message(m sentinelMapping, err error) string {
	if m.detailed {
		return err.Error()
	}
	return m.sentinel.Error()
}
