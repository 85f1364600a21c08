package chi

import (
	"time"

	"github.com/kailas-cloud/cvmatch/internal/domain"
	domdoc "github.com/kailas-cloud/cvmatch/internal/domain/document"
	domatch "github.com/kailas-cloud/cvmatch/internal/domain/match"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
	"github.com/kailas-cloud/cvmatch/internal/domain/weights"
	"github.com/kailas-cloud/cvmatch/internal/usecase/vectorize"
)

// weightsDTO carries raw, unnormalized weights; absent components count as zero.
type weightsDTO struct {
	Skills           *float64 `json:"skills"`
	Responsibilities *float64 `json:"responsibilities"`
	JobTitle         *float64 `json:"job_title"`
	Experience       *float64 `json:"experience"`
}

func (w *weightsDTO) raw() weights.Raw {
	if w == nil {
		return weights.Raw{}
	}
	return weights.Raw{
		Skills:           w.Skills,
		Responsibilities: w.Responsibilities,
		JobTitle:         w.JobTitle,
		Experience:       w.Experience,
	}
}

type matchRequest struct {
	JDID            string      `json:"jd_id" validate:"required"`
	CandidateIDs    []string    `json:"candidate_ids"`
	Weights         *weightsDTO `json:"weights"`
	TopAlternatives *int        `json:"top_alternatives" validate:"omitempty,gte=0"`
}

type itemDTO struct {
	Label  string    `json:"label"`
	Vector []float32 `json:"vector"`
}

// VectorSetDTO is the wire form of a document's embeddings.
type VectorSetDTO struct {
	DocumentID       string    `json:"document_id"`
	Kind             string    `json:"kind"`
	Skills           []itemDTO `json:"skills,omitempty"`
	Responsibilities []itemDTO `json:"responsibilities,omitempty"`
	Title            []float32 `json:"title,omitempty"`
	ExperienceYears  *float64  `json:"experience_years,omitempty"`
	Experience       []float32 `json:"experience,omitempty"`
}

// VectorSet converts without validation; the match engine validates per candidate.
func (d *VectorSetDTO) VectorSet() vectorset.VectorSet {
	return vectorset.Reconstruct(vectorset.Fields{
		DocumentID:       d.DocumentID,
		Kind:             domain.Kind(d.Kind),
		Skills:           itemsFromDTO(d.Skills),
		Responsibilities: itemsFromDTO(d.Responsibilities),
		Title:            d.Title,
		ExperienceYears:  d.ExperienceYears,
		Experience:       d.Experience,
	})
}

// VectorSetToDTO converts a VectorSet to its wire form.
func VectorSetToDTO(vs *vectorset.VectorSet) VectorSetDTO {
	f := vs.Fields()
	return VectorSetDTO{
		DocumentID:       f.DocumentID,
		Kind:             string(f.Kind),
		Skills:           itemsToDTO(f.Skills),
		Responsibilities: itemsToDTO(f.Responsibilities),
		Title:            f.Title,
		ExperienceYears:  f.ExperienceYears,
		Experience:       f.Experience,
	}
}

func itemsFromDTO(in []itemDTO) []vectorset.Item {
	if len(in) == 0 {
		return nil
	}
	out := make([]vectorset.Item, len(in))
	for i, it := range in {
		out[i] = vectorset.Item{Label: it.Label, Vector: it.Vector}
	}
	return out
}

func itemsToDTO(in []vectorset.Item) []itemDTO {
	if len(in) == 0 {
		return nil
	}
	out := make([]itemDTO, len(in))
	for i, it := range in {
		out[i] = itemDTO{Label: it.Label, Vector: it.Vector}
	}
	return out
}

type vectorMatchRequest struct {
	JD              *VectorSetDTO  `json:"jd" validate:"required"`
	Candidates      []VectorSetDTO `json:"candidates"`
	Weights         *weightsDTO    `json:"weights"`
	TopAlternatives *int           `json:"top_alternatives" validate:"omitempty,gte=0"`
}

type failureDTO struct {
	CandidateID string `json:"candidate_id"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}

// MatchResponse is the wire form of a ranked match result.
type MatchResponse struct {
	JDID            string              `json:"jd_id"`
	Weights         weights.Normalized  `json:"weights"`
	TopAlternatives int                 `json:"top_alternatives"`
	Candidates      []domatch.Breakdown `json:"candidates"`
	Failures        []failureDTO        `json:"failures"`
}

// NewMatchResponse converts a match result, mapping failures to public error codes.
func NewMatchResponse(res *domatch.Result) MatchResponse {
	out := MatchResponse{
		JDID:            res.JDID,
		Weights:         res.Weights,
		TopAlternatives: res.TopAlternatives,
		Candidates:      res.Candidates,
		Failures:        make([]failureDTO, len(res.Failures)),
	}
	if out.Candidates == nil {
		out.Candidates = []domatch.Breakdown{}
	}
	for i, f := range res.Failures {
		code, msg := errorCode(f.Err)
		out.Failures[i] = failureDTO{CandidateID: f.CandidateID, Code: code, Message: msg}
	}
	return out
}

type documentRequest struct {
	ID               string   `json:"id" validate:"omitempty,max=128"`
	Kind             string   `json:"kind" validate:"required,oneof=cv jd"`
	Name             string   `json:"name"`
	Filename         string   `json:"filename"`
	JobTitle         string   `json:"job_title"`
	Skills           []string `json:"skills" validate:"max=500"`
	Responsibilities []string `json:"responsibilities" validate:"max=500"`
	ExperienceYears  *float64 `json:"experience_years" validate:"omitempty,gte=0"`
	ExperienceText   string   `json:"experience_text"`
}

func (d *documentRequest) params() domdoc.Params {
	return domdoc.Params{
		ID:               d.ID,
		Kind:             domain.Kind(d.Kind),
		Name:             d.Name,
		Filename:         d.Filename,
		JobTitle:         d.JobTitle,
		Skills:           d.Skills,
		Responsibilities: d.Responsibilities,
		ExperienceYears:  d.ExperienceYears,
		ExperienceText:   d.ExperienceText,
	}
}

type documentResponse struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	Name             string    `json:"name,omitempty"`
	Filename         string    `json:"filename,omitempty"`
	JobTitle         string    `json:"job_title,omitempty"`
	Skills           []string  `json:"skills"`
	Responsibilities []string  `json:"responsibilities"`
	ExperienceYears  *float64  `json:"experience_years,omitempty"`
	ExperienceText   string    `json:"experience_text,omitempty"`
	Model            string    `json:"model,omitempty"`
	VectorCount      int       `json:"vector_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func documentToDTO(rec *domdoc.Record) documentResponse {
	d := rec.Document
	out := documentResponse{
		ID:               d.ID(),
		Kind:             string(d.Kind()),
		Name:             d.Name(),
		Filename:         d.Filename(),
		JobTitle:         d.JobTitle(),
		Skills:           d.Skills(),
		Responsibilities: d.Responsibilities(),
		ExperienceYears:  d.ExperienceYears(),
		ExperienceText:   d.ExperienceText(),
		Model:            rec.Model,
		VectorCount:      rec.Vectors.VectorCount(),
		CreatedAt:        rec.CreatedAt,
		UpdatedAt:        rec.UpdatedAt,
	}
	if out.Skills == nil {
		out.Skills = []string{}
	}
	if out.Responsibilities == nil {
		out.Responsibilities = []string{}
	}
	return out
}

type ingestResponse struct {
	Document documentResponse `json:"document"`
	Stats    vectorize.Stats  `json:"stats"`
}

type documentListResponse struct {
	Items []documentResponse `json:"items"`
	Count int                `json:"count"`
}
