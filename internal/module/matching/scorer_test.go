package matching

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/teamforge/server/internal/module/profile"
)

func profileWithSkills(names ...string) *profile.Profile {
	p := &profile.Profile{ID: uuid.New()}
	for i, n := range names {
		p.Skills = append(p.Skills, profile.Skill{
			ProfileID: p.ID,
			Position:  i,
			Name:      n,
			Level:     profile.LevelIntermediate,
		})
	}
	return p
}

func TestScore(t *testing.T) {
	tests := []struct {
		name       string
		a, b       []string
		wantScore  int
		wantMutual []string
	}{
		{
			name:       "identical sets",
			a:          []string{"Go", "SQL"},
			b:          []string{"Go", "SQL"},
			wantScore:  100,
			wantMutual: []string{"go", "sql"},
		},
		{
			name:       "partial overlap",
			a:          []string{"Go", "SQL", "Docker", "React"},
			b:          []string{"Go", "SQL"},
			wantScore:  50,
			wantMutual: []string{"go", "sql"},
		},
		{
			name:       "no overlap",
			a:          []string{"Go"},
			b:          []string{"React"},
			wantScore:  0,
			wantMutual: []string{},
		},
		{
			name:       "both empty",
			a:          nil,
			b:          nil,
			wantScore:  0,
			wantMutual: []string{},
		},
		{
			name:       "one side empty",
			a:          []string{"Go", "SQL"},
			b:          nil,
			wantScore:  0,
			wantMutual: []string{},
		},
		{
			name:       "case and whitespace normalized",
			a:          []string{"  Go ", "sql"},
			b:          []string{"gO", "SQL  "},
			wantScore:  100,
			wantMutual: []string{"go", "sql"},
		},
		{
			name:       "duplicates collapse",
			a:          []string{"Go", "go", "GO"},
			b:          []string{"go"},
			wantScore:  100,
			wantMutual: []string{"go"},
		},
		{
			name:       "blank names ignored",
			a:          []string{"  ", "Go"},
			b:          []string{"Go"},
			wantScore:  100,
			wantMutual: []string{"go"},
		},
		{
			name:       "score floors",
			a:          []string{"a", "b", "c"},
			b:          []string{"a", "x", "y"},
			wantScore:  33,
			wantMutual: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := profileWithSkills(tt.a...)
			b := profileWithSkills(tt.b...)

			m := Score(a, b)
			assert.Equal(t, tt.wantScore, m.Score)
			assert.Equal(t, tt.wantMutual, m.Mutual)
		})
	}
}

func TestScore_Symmetric(t *testing.T) {
	pairs := [][2][]string{
		{{"Go", "SQL", "Docker"}, {"go", "rust"}},
		{{"a", "b"}, {"c", "d"}},
		{{}, {"Go"}},
		{{"Go"}, {"Go"}},
	}

	for _, pair := range pairs {
		a := profileWithSkills(pair[0]...)
		b := profileWithSkills(pair[1]...)

		ab := Score(a, b)
		ba := Score(b, a)
		assert.Equal(t, ab.Score, ba.Score)
		assert.Equal(t, ab.Mutual, ba.Mutual)
	}
}

func TestScore_Bounds(t *testing.T) {
	cases := [][]string{
		nil,
		{"Go"},
		{"Go", "SQL", "Docker", "React", "Rust"},
	}

	for _, a := range cases {
		for _, b := range cases {
			m := Score(profileWithSkills(a...), profileWithSkills(b...))
			assert.GreaterOrEqual(t, m.Score, 0)
			assert.LessOrEqual(t, m.Score, 100)
		}
	}
}

func TestScore_Idempotent(t *testing.T) {
	a := profileWithSkills("Go", "SQL")
	b := profileWithSkills("Go", "Docker")

	first := Score(a, b)
	second := Score(a, b)
	assert.Equal(t, first, second)
}
