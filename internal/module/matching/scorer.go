package matching

import (
	"sort"
	"strings"

	"github.com/teamforge/server/internal/module/profile"
)

// Match is the result of scoring two profiles against each other.
type Match struct {
	// Score is the compatibility score in [0, 100].
	Score int `json:"score"`

	// Mutual holds the normalized skill names both profiles share, sorted.
	Mutual []string `json:"mutual"`
}

// Score computes the compatibility between two profiles from their skill
// sets. The result is symmetric: Score(a, b) == Score(b, a). Profiles with
// no skills score 0.
func Score(a, b *profile.Profile) Match {
	setA := normalizeSkills(a)
	setB := normalizeSkills(b)

	mutual := make([]string, 0)
	for name := range setA {
		if _, ok := setB[name]; ok {
			mutual = append(mutual, name)
		}
	}
	sort.Strings(mutual)

	larger := len(setA)
	if len(setB) > larger {
		larger = len(setB)
	}
	if larger == 0 {
		larger = 1
	}

	return Match{
		Score:  100 * len(mutual) / larger,
		Mutual: mutual,
	}
}

// normalizeSkills lowercases and trims skill names into a set. Duplicate
// names collapse to one entry, so the set size can be smaller than the
// profile's skill list.
func normalizeSkills(p *profile.Profile) map[string]struct{} {
	set := make(map[string]struct{}, len(p.Skills))
	for _, s := range p.Skills {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}
