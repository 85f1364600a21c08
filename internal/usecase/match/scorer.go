package match

import (
	"fmt"
	"math"

	domatch "github.com/kailas-cloud/cvmatch/internal/domain/match"
	"github.com/kailas-cloud/cvmatch/internal/domain/similarity"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
	"github.com/kailas-cloud/cvmatch/internal/domain/weights"
)

// ScoreCandidate builds the explainable breakdown of one candidate against a JD.
// Any dimension mismatch between the two sets fails the whole candidate.
func ScoreCandidate(
	jd, cv *vectorset.VectorSet, w weights.Normalized, k int,
) (domatch.Breakdown, error) {
	b := domatch.Breakdown{CandidateID: cv.DocumentID()}

	var err error
	b.Skills, b.SkillsScore, err = matchCategory(jd.Skills(), cv.Skills(), k)
	if err != nil {
		return domatch.Breakdown{}, fmt.Errorf("skills: %w", err)
	}
	b.Responsibilities, b.ResponsibilitiesScore, err = matchCategory(jd.Responsibilities(), cv.Responsibilities(), k)
	if err != nil {
		return domatch.Breakdown{}, fmt.Errorf("responsibilities: %w", err)
	}

	jdTitle, okJD := jd.Title()
	cvTitle, okCV := cv.Title()
	if okJD && okCV {
		b.JobTitleScore, err = similarity.Score(jdTitle, cvTitle)
		if err != nil {
			return domatch.Breakdown{}, fmt.Errorf("job title: %w", err)
		}
	}

	jdYears, okJD := jd.ExperienceYears()
	cvYears, okCV := cv.ExperienceYears()
	if okJD && okCV {
		b.YearsScore = YearsScore(jdYears, cvYears)
	}

	overall := w.Skills*b.SkillsScore +
		w.Responsibilities*b.ResponsibilitiesScore +
		w.JobTitle*b.JobTitleScore +
		w.Experience*b.YearsScore
	b.OverallScore = clamp01(overall)
	return b, nil
}

// YearsScore is 1 - |jd-cv| / max(jd, 1), floored at 0.
func YearsScore(jd, cv float64) float64 {
	return clamp01(1 - math.Abs(jd-cv)/math.Max(jd, 1))
}

func matchCategory(jd, cv []vectorset.Item, k int) ([]domatch.RequirementMatch, float64, error) {
	out := make([]domatch.RequirementMatch, 0, len(jd))
	if len(jd) == 0 {
		return out, 0, nil
	}

	var sum float64
	for i, item := range jd {
		rm, err := MatchRequirement(i, item, cv, k)
		if err != nil {
			return nil, 0, err
		}
		sum += rm.Score()
		out = append(out, rm)
	}
	return out, sum / float64(len(jd)), nil
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
