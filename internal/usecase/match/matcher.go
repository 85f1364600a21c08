package match

import (
	"cmp"
	"fmt"
	"slices"

	domatch "github.com/kailas-cloud/cvmatch/internal/domain/match"
	"github.com/kailas-cloud/cvmatch/internal/domain/similarity"
	"github.com/kailas-cloud/cvmatch/internal/domain/vectorset"
)

// MatchRequirement compares one JD item against every candidate item of the same type.
// The best match is the highest score; alternatives are the next k in descending
// score order, ties broken by lower CV index. An empty cv yields no best match.
func MatchRequirement(jdIndex int, jd vectorset.Item, cv []vectorset.Item, k int) (domatch.RequirementMatch, error) {
	rm := domatch.RequirementMatch{
		JDIndex:      jdIndex,
		JDItem:       jd.Label,
		Alternatives: []domatch.ItemMatch{},
	}
	if len(cv) == 0 {
		return rm, nil
	}

	scored := make([]domatch.ItemMatch, len(cv))
	for i, item := range cv {
		s, err := similarity.Score(jd.Vector, item.Vector)
		if err != nil {
			return domatch.RequirementMatch{}, fmt.Errorf("jd item %d vs cv item %d: %w", jdIndex, i, err)
		}
		scored[i] = domatch.ItemMatch{Index: i, Label: item.Label, Score: s}
	}

	slices.SortFunc(scored, func(a, b domatch.ItemMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})

	best := scored[0]
	rm.Best = &best
	if k > 0 {
		rest := scored[1:]
		if len(rest) > k {
			rest = rest[:k]
		}
		rm.Alternatives = append(rm.Alternatives, rest...)
	}
	return rm, nil
}
