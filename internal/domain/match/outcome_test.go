package match

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	o := NewOK(Breakdown{CandidateID: "cv-1", OverallScore: 0.7})
	if o.CandidateID() != "cv-1" {
		t.Errorf("CandidateID() = %q", o.CandidateID())
	}
	if o.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", o.Status(), StatusOK)
	}
	if o.Err() != nil {
		t.Errorf("Err() = %v, want nil", o.Err())
	}
	if o.Breakdown().OverallScore != 0.7 {
		t.Errorf("Breakdown().OverallScore = %v", o.Breakdown().OverallScore)
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("dimension mismatch")
	o := NewError("cv-2", err)
	if o.CandidateID() != "cv-2" {
		t.Errorf("CandidateID() = %q", o.CandidateID())
	}
	if o.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", o.Status(), StatusError)
	}
	if !errors.Is(o.Err(), err) {
		t.Errorf("Err() = %v, want %v", o.Err(), err)
	}
}

func TestRequirementMatch_Score(t *testing.T) {
	if (RequirementMatch{}).Score() != 0 {
		t.Error("missing best match must score 0")
	}
	m := RequirementMatch{Best: &ItemMatch{Score: 0.9}}
	if m.Score() != 0.9 {
		t.Errorf("Score() = %v", m.Score())
	}
}
