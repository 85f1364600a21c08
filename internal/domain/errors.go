package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidDocument signals a structurally invalid document.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidWeight signals a negative or non-finite weight component.
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrDuplicateCandidate signals the same candidate id submitted twice in one request.
	ErrDuplicateCandidate = errors.New("duplicate candidate")
	// ErrInvalidRequest signals a malformed match request.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrKindMismatch signals a document of the wrong kind (cv where jd expected and vice versa).
	ErrKindMismatch = errors.New("document kind mismatch")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)
