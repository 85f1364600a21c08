package match

// Status is the scoring outcome of a single candidate.
type Status string

// Candidate outcome values.
const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Outcome is what scoring produced for one candidate: a breakdown or an error.
type Outcome struct {
	candidateID string
	status      Status
	breakdown   Breakdown
	err         error
}

// NewOK creates a successful outcome.
func NewOK(b Breakdown) Outcome {
	return Outcome{candidateID: b.CandidateID, status: StatusOK, breakdown: b}
}

// NewError creates a failed outcome.
func NewError(candidateID string, err error) Outcome {
	return Outcome{candidateID: candidateID, status: StatusError, err: err}
}

// CandidateID returns the candidate identifier.
func (o Outcome) CandidateID() string { return o.candidateID }

// Status returns the scoring outcome.
func (o Outcome) Status() Status { return o.status }

// Breakdown returns the score breakdown (zero value on error).
func (o Outcome) Breakdown() Breakdown { return o.breakdown }

// Err returns the error, if any.
func (o Outcome) Err() error { return o.err }
