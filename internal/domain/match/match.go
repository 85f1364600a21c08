// Package match holds the explainable output of CV/JD matching.
package match

import (
	"github.com/kailas-cloud/cvmatch/internal/domain/weights"
)

// DefaultTopAlternatives is the number of runner-up CV items reported per requirement.
const DefaultTopAlternatives = 3

// ItemMatch is one CV item compared against a JD requirement.
type ItemMatch struct {
	Index int     `json:"cv_index"`
	Label string  `json:"cv_item"`
	Score float64 `json:"score"`
}

// RequirementMatch explains how one JD item was matched.
// Best is nil when the candidate has no items of the same type.
type RequirementMatch struct {
	JDIndex      int         `json:"jd_index"`
	JDItem       string      `json:"jd_item"`
	Best         *ItemMatch  `json:"best_match"`
	Alternatives []ItemMatch `json:"alternatives"`
}

// Score returns the best-match score, 0 when there is no match.
func (m RequirementMatch) Score() float64 {
	if m.Best == nil {
		return 0
	}
	return m.Best.Score
}

// Breakdown is the full score explanation for one candidate.
type Breakdown struct {
	CandidateID           string             `json:"candidate_id"`
	SkillsScore           float64            `json:"skills_score"`
	ResponsibilitiesScore float64            `json:"responsibilities_score"`
	JobTitleScore         float64            `json:"job_title_score"`
	YearsScore            float64            `json:"years_score"`
	OverallScore          float64            `json:"overall_score"`
	Skills                []RequirementMatch `json:"skill_matches"`
	Responsibilities      []RequirementMatch `json:"responsibility_matches"`
}

// Failure is a candidate that could not be scored.
type Failure struct {
	CandidateID string
	Err         error
}

// Result is the ranked outcome of one match request.
type Result struct {
	JDID            string
	Weights         weights.Normalized
	TopAlternatives int
	Candidates      []Breakdown
	Failures        []Failure
}

// Request selects stored documents to match.
// TopAlternatives nil means the service default.
type Request struct {
	JDID            string
	CandidateIDs    []string
	Weights         weights.Raw
	TopAlternatives *int
}
