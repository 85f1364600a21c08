package document

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/cvmatch/internal/domain"
	domdoc "github.com/kailas-cloud/cvmatch/internal/domain/document"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
	"github.com/kailas-cloud/cvmatch/internal/repository/vecbytes"
)

// recordDTO is the stored JSON shape. Vectors are little-endian float32 bytes (base64 in JSON).
type recordDTO struct {
	ID               string     `json:"id"`
	Kind             string     `json:"kind"`
	Name             string     `json:"name,omitempty"`
	Filename         string     `json:"filename,omitempty"`
	JobTitle         string     `json:"job_title,omitempty"`
	Skills           []string   `json:"skills,omitempty"`
	Responsibilities []string   `json:"responsibilities,omitempty"`
	ExperienceYears  *float64   `json:"experience_years,omitempty"`
	ExperienceText   string     `json:"experience_text,omitempty"`
	Vectors          vectorsDTO `json:"vectors"`
	Model            string     `json:"model,omitempty"`
	CreatedAt        int64      `json:"created_at"` // unix millis
	UpdatedAt        int64      `json:"updated_at"` // unix millis
}

type vectorsDTO struct {
	Dimension        int       `json:"dimension"`
	Skills           []itemDTO `json:"skills,omitempty"`
	Responsibilities []itemDTO `json:"responsibilities,omitempty"`
	Title            []byte    `json:"title,omitempty"`
	ExperienceYears  *float64  `json:"experience_years,omitempty"`
	Experience       []byte    `json:"experience,omitempty"`
}

type itemDTO struct {
	Label  string `json:"label"`
	Vector []byte `json:"vector"`
}

func buildRecordDTO(rec *domdoc.Record) recordDTO {
	p := rec.Document.Params()
	f := rec.Vectors.Fields()
	dto := recordDTO{
		ID:               p.ID,
		Kind:             string(p.Kind),
		Name:             p.Name,
		Filename:         p.Filename,
		JobTitle:         p.JobTitle,
		Skills:           p.Skills,
		Responsibilities: p.Responsibilities,
		ExperienceYears:  p.ExperienceYears,
		ExperienceText:   p.ExperienceText,
		Model:            rec.Model,
		CreatedAt:        rec.CreatedAt.UnixMilli(),
		UpdatedAt:        rec.UpdatedAt.UnixMilli(),
		Vectors: vectorsDTO{
			Dimension:        rec.Vectors.Dimension(),
			Skills:           itemsToDTO(f.Skills),
			Responsibilities: itemsToDTO(f.Responsibilities),
			ExperienceYears:  f.ExperienceYears,
		},
	}
	if f.Title != nil {
		dto.Vectors.Title = vecbytes.Encode(f.Title)
	}
	if f.Experience != nil {
		dto.Vectors.Experience = vecbytes.Encode(f.Experience)
	}
	return dto
}

func parseRecordDTO(dto *recordDTO) (domdoc.Record, error) {
	kind := domain.Kind(dto.Kind)
	vf := vectorset.Fields{
		DocumentID:      dto.ID,
		Kind:            kind,
		ExperienceYears: dto.Vectors.ExperienceYears,
	}

	var err error
	if vf.Skills, err = itemsFromDTO(dto.Vectors.Skills); err != nil {
		return domdoc.Record{}, fmt.Errorf("skills: %w", err)
	}
	if vf.Responsibilities, err = itemsFromDTO(dto.Vectors.Responsibilities); err != nil {
		return domdoc.Record{}, fmt.Errorf("responsibilities: %w", err)
	}
	if dto.Vectors.Title != nil {
		if vf.Title, err = vecbytes.Decode(dto.Vectors.Title); err != nil {
			return domdoc.Record{}, fmt.Errorf("title: %w", err)
		}
	}
	if dto.Vectors.Experience != nil {
		if vf.Experience, err = vecbytes.Decode(dto.Vectors.Experience); err != nil {
			return domdoc.Record{}, fmt.Errorf("experience: %w", err)
		}
	}

	return domdoc.Record{
		Document: domdoc.Reconstruct(domdoc.Params{
			ID:               dto.ID,
			Kind:             kind,
			Name:             dto.Name,
			Filename:         dto.Filename,
			JobTitle:         dto.JobTitle,
			Skills:           dto.Skills,
			Responsibilities: dto.Responsibilities,
			ExperienceYears:  dto.ExperienceYears,
			ExperienceText:   dto.ExperienceText,
		}),
		Vectors:   vectorset.Reconstruct(vf),
		Model:     dto.Model,
		CreatedAt: time.UnixMilli(dto.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(dto.UpdatedAt).UTC(),
	}, nil
}

func itemsToDTO(items []vectorset.Item) []itemDTO {
	if len(items) == 0 {
		return nil
	}
	out := make([]itemDTO, len(items))
	for i, it := range items {
		out[i] = itemDTO{Label: it.Label, Vector: vecbytes.Encode(it.Vector)}
	}
	return out
}

func itemsFromDTO(items []itemDTO) ([]vectorset.Item, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]vectorset.Item, len(items))
	for i, it := range items {
		vec, err := vecbytes.Decode(it.Vector)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = vectorset.Item{Label: it.Label, Vector: vec}
	}
	return out, nil
}
