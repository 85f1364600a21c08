package document

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/kailas-cloud/cvmatch/internal/domain"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// MaxIDLength is the maximum document identifier length.
const MaxIDLength = 128

// Params are the structured fields of a CV or JD, as produced by upstream extraction.
type Params struct {
	ID               string
	Kind             domain.Kind
	Name             string
	Filename         string
	JobTitle         string
	Skills           []string
	Responsibilities []string
	ExperienceYears  *float64
	ExperienceText   string
}

// Document is the structured document aggregate (immutable value object).
type Document struct {
	id               string
	kind             domain.Kind
	name             string
	filename         string
	jobTitle         string
	skills           []string
	responsibilities []string
	experienceYears  *float64
	experienceText   string
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_-]+$, 1-128 chars. Labels are trimmed and empty ones dropped.
// At least one matchable field must survive.
func New(p Params) (Document, error) {
	if p.ID == "" {
		return Document{}, fmt.Errorf("document ID is required: %w", domain.ErrInvalidDocument)
	}
	if len(p.ID) > MaxIDLength {
		return Document{}, fmt.Errorf("document ID too long (max %d): %w", MaxIDLength, domain.ErrInvalidDocument)
	}
	if !idRegex.MatchString(p.ID) {
		return Document{}, fmt.Errorf(
			"document ID must be alphanumeric with underscores and hyphens: %w", domain.ErrInvalidDocument,
		)
	}
	if !p.Kind.IsValid() {
		return Document{}, fmt.Errorf("unknown document kind %q: %w", p.Kind, domain.ErrInvalidDocument)
	}
	if y := p.ExperienceYears; y != nil && (*y < 0 || math.IsNaN(*y) || math.IsInf(*y, 0)) {
		return Document{}, fmt.Errorf(
			"experience years must be a finite non-negative number: %w", domain.ErrInvalidDocument,
		)
	}

	d := Document{
		id:               p.ID,
		kind:             p.Kind,
		name:             strings.TrimSpace(p.Name),
		filename:         strings.TrimSpace(p.Filename),
		jobTitle:         strings.TrimSpace(p.JobTitle),
		skills:           cleanLabels(p.Skills),
		responsibilities: cleanLabels(p.Responsibilities),
		experienceText:   strings.TrimSpace(p.ExperienceText),
	}
	if p.ExperienceYears != nil {
		y := *p.ExperienceYears
		d.experienceYears = &y
	}

	if len(d.skills) == 0 && len(d.responsibilities) == 0 && d.jobTitle == "" &&
		d.experienceYears == nil && d.experienceText == "" {
		return Document{}, fmt.Errorf("document %s has no matchable content: %w", p.ID, domain.ErrInvalidDocument)
	}
	return d, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(p Params) Document {
	return Document{
		id: p.ID, kind: p.Kind, name: p.Name, filename: p.Filename,
		jobTitle: p.JobTitle, skills: p.Skills, responsibilities: p.Responsibilities,
		experienceYears: p.ExperienceYears, experienceText: p.ExperienceText,
	}
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Kind returns cv or jd.
func (d *Document) Kind() domain.Kind { return d.kind }

// Name returns the candidate or posting name, if known.
func (d *Document) Name() string { return d.name }

// Filename returns the source file name, if known.
func (d *Document) Filename() string { return d.filename }

// JobTitle returns the current (CV) or advertised (JD) job title.
func (d *Document) JobTitle() string { return d.jobTitle }

// Skills returns skill labels in source order.
func (d *Document) Skills() []string { return d.skills }

// Responsibilities returns responsibility statements in source order.
func (d *Document) Responsibilities() []string { return d.responsibilities }

// ExperienceYears returns the years of experience, nil if unknown.
func (d *Document) ExperienceYears() *float64 { return d.experienceYears }

// ExperienceText returns the free-form experience statement.
func (d *Document) ExperienceText() string { return d.experienceText }

// Params returns the raw fields (used for persistence).
func (d *Document) Params() Params {
	return Params{
		ID: d.id, Kind: d.kind, Name: d.name, Filename: d.filename,
		JobTitle: d.jobTitle, Skills: d.skills, Responsibilities: d.responsibilities,
		ExperienceYears: d.experienceYears, ExperienceText: d.experienceText,
	}
}

func cleanLabels(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Record is a document together with its embeddings, as persisted.
type Record struct {
	Document  Document
	Vectors   vectorset.VectorSet
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
