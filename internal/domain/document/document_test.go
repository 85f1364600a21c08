package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/cvmatch/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestNew_Valid(t *testing.T) {
	doc, err := New(Params{
		ID:               "cv-1",
		Kind:             domain.KindCV,
		JobTitle:         "  Backend Engineer ",
		Skills:           []string{"Go", " ", "PostgreSQL "},
		Responsibilities: []string{"Built payment APIs"},
		ExperienceYears:  ptr(6),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "cv-1" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.JobTitle() != "Backend Engineer" {
		t.Errorf("JobTitle() = %q", doc.JobTitle())
	}
	if len(doc.Skills()) != 2 || doc.Skills()[1] != "PostgreSQL" {
		t.Errorf("Skills() = %v", doc.Skills())
	}
	if doc.ExperienceYears() == nil || *doc.ExperienceYears() != 6 {
		t.Errorf("ExperienceYears() = %v", doc.ExperienceYears())
	}
}

func TestNew_CopiesYears(t *testing.T) {
	y := 3.0
	doc, err := New(Params{ID: "jd-1", Kind: domain.KindJD, ExperienceYears: &y})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	y = 10
	if *doc.ExperienceYears() != 3 {
		t.Error("years mutation leaked into document")
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    Params
	}{
		{"empty id", Params{Kind: domain.KindCV, Skills: []string{"go"}}},
		{"long id", Params{ID: strings.Repeat("a", MaxIDLength+1), Kind: domain.KindCV, Skills: []string{"go"}}},
		{"bad id chars", Params{ID: "cv/1", Kind: domain.KindCV, Skills: []string{"go"}}},
		{"bad kind", Params{ID: "cv-1", Kind: "letter", Skills: []string{"go"}}},
		{"negative years", Params{ID: "cv-1", Kind: domain.KindCV, ExperienceYears: ptr(-2)}},
		{"no content", Params{ID: "cv-1", Kind: domain.KindCV, Skills: []string{"  "}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.p); !errors.Is(err, domain.ErrInvalidDocument) {
				t.Errorf("New() error = %v, want ErrInvalidDocument", err)
			}
		})
	}
}

func TestReconstruct(t *testing.T) {
	p := Params{ID: "x", Kind: domain.KindJD, Skills: []string{"a"}}
	doc := Reconstruct(p)
	if doc.Params().ID != "x" || doc.Kind() != domain.KindJD {
		t.Errorf("Params() = %+v", doc.Params())
	}
}
