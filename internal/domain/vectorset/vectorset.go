package vectorset

import (
	"fmt"
	"math"
	"slices"

	"github.com/kailas-cloud/cvmatch/internal/domain"
)

// Item is one labeled embedding (a skill or a responsibility statement).
type Item struct {
	Label  string
	Vector []float32
}

// Fields are the raw components of a VectorSet.
// Nil Title/Experience and nil ExperienceYears mean "absent".
type Fields struct {
	DocumentID       string
	Kind             domain.Kind
	Skills           []Item
	Responsibilities []Item
	Title            []float32
	ExperienceYears  *float64
	Experience       []float32
}

// VectorSet is the embedding representation of one document (read-only after construction).
type VectorSet struct {
	documentID       string
	kind             domain.Kind
	skills           []Item
	responsibilities []Item
	title            []float32
	years            float64
	hasYears         bool
	experience       []float32
}

// New validates and creates a VectorSet.
// All vectors must be non-empty, finite and share one dimension.
func New(f Fields) (VectorSet, error) {
	vs := Reconstruct(f)
	if err := vs.Validate(); err != nil {
		return VectorSet{}, err
	}
	return vs, nil
}

// Reconstruct creates a VectorSet without validation (storage hydration, inline requests).
// The input slices are copied; later changes by the caller do not reach the set.
func Reconstruct(f Fields) VectorSet {
	vs := VectorSet{
		documentID:       f.DocumentID,
		kind:             f.Kind,
		skills:           cloneItems(f.Skills),
		responsibilities: cloneItems(f.Responsibilities),
		title:            slices.Clone(f.Title),
		experience:       slices.Clone(f.Experience),
	}
	if f.ExperienceYears != nil {
		vs.years = *f.ExperienceYears
		vs.hasYears = true
	}
	return vs
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{Label: it.Label, Vector: slices.Clone(it.Vector)}
	}
	return out
}

// Validate checks identity, years and vector shape.
// Inconsistent dimensions wrap domain.ErrVectorDimMismatch, anything else domain.ErrInvalidDocument.
func (v *VectorSet) Validate() error {
	if v.documentID == "" {
		return fmt.Errorf("document id is required: %w", domain.ErrInvalidDocument)
	}
	if !v.kind.IsValid() {
		return fmt.Errorf("document %s: unknown kind %q: %w", v.documentID, v.kind, domain.ErrInvalidDocument)
	}
	if v.hasYears && (v.years < 0 || math.IsNaN(v.years) || math.IsInf(v.years, 0)) {
		return fmt.Errorf("document %s: experience years must be a finite non-negative number: %w",
			v.documentID, domain.ErrInvalidDocument)
	}

	dim := 0
	check := func(where string, vec []float32) error {
		if len(vec) == 0 {
			return fmt.Errorf("document %s: %s: empty vector: %w", v.documentID, where, domain.ErrInvalidDocument)
		}
		for _, x := range vec {
			f := float64(x)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("document %s: %s: non-finite component: %w",
					v.documentID, where, domain.ErrInvalidDocument)
			}
		}
		if dim == 0 {
			dim = len(vec)
			return nil
		}
		if len(vec) != dim {
			return fmt.Errorf("document %s: %s has dimension %d, want %d: %w",
				v.documentID, where, len(vec), dim, domain.ErrVectorDimMismatch)
		}
		return nil
	}

	for i, it := range v.skills {
		if err := check(fmt.Sprintf("skill[%d]", i), it.Vector); err != nil {
			return err
		}
	}
	for i, it := range v.responsibilities {
		if err := check(fmt.Sprintf("responsibility[%d]", i), it.Vector); err != nil {
			return err
		}
	}
	if v.title != nil {
		if err := check("title", v.title); err != nil {
			return err
		}
	}
	if v.experience != nil {
		if err := check("experience", v.experience); err != nil {
			return err
		}
	}
	return nil
}

// DocumentID returns the owning document identifier.
func (v *VectorSet) DocumentID() string { return v.documentID }

// Kind returns cv or jd.
func (v *VectorSet) Kind() domain.Kind { return v.kind }

// Skills returns the skill items in insertion order. The slice is shared and must not be modified.
func (v *VectorSet) Skills() []Item { return v.skills }

// Responsibilities returns the responsibility items in insertion order.
func (v *VectorSet) Responsibilities() []Item { return v.responsibilities }

// Title returns the title vector and whether it is present.
func (v *VectorSet) Title() ([]float32, bool) { return v.title, v.title != nil }

// ExperienceYears returns the years of experience and whether they are present.
func (v *VectorSet) ExperienceYears() (float64, bool) { return v.years, v.hasYears }

// Experience returns the experience statement vector and whether it is present.
func (v *VectorSet) Experience() ([]float32, bool) { return v.experience, v.experience != nil }

// Dimension returns the dimension of the first vector found, 0 for an empty set.
func (v *VectorSet) Dimension() int {
	if len(v.skills) > 0 {
		return len(v.skills[0].Vector)
	}
	if len(v.responsibilities) > 0 {
		return len(v.responsibilities[0].Vector)
	}
	if v.title != nil {
		return len(v.title)
	}
	return len(v.experience)
}

// VectorCount returns the total number of stored embeddings.
func (v *VectorSet) VectorCount() int {
	n := len(v.skills) + len(v.responsibilities)
	if v.title != nil {
		n++
	}
	if v.experience != nil {
		n++
	}
	return n
}

// Fields returns a copy of the raw components (used for persistence).
func (v *VectorSet) Fields() Fields {
	f := Fields{
		DocumentID:       v.documentID,
		Kind:             v.kind,
		Skills:           cloneItems(v.skills),
		Responsibilities: cloneItems(v.responsibilities),
		Title:            slices.Clone(v.title),
		Experience:       slices.Clone(v.experience),
	}
	if v.hasYears {
		y := v.years
		f.ExperienceYears = &y
	}
	return f
}
