package matching

import (
	"sort"

	"github.com/teamforge/server/internal/module/profile"
)

// Candidate is one ranked entry in a candidate list.
type Candidate struct {
	Profile *profile.Profile `json:"profile"`
	Score   int              `json:"score"`
	Mutual  []string         `json:"mutual"`
}

// Rank scores every candidate against self and returns them ordered by
// descending score, ties broken by ascending profile id so the ordering is
// total and deterministic. Self is excluded from the pool by id.
func Rank(self *profile.Profile, candidates []*profile.Profile) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == self.ID {
			continue
		}
		m := Score(self, c)
		ranked = append(ranked, Candidate{
			Profile: c,
			Score:   m.Score,
			Mutual:  m.Mutual,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Profile.ID.String() < ranked[j].Profile.ID.String()
	})

	return ranked
}
