package profile

import (
	"time"

	"github.com/google/uuid"
)

// SkillLevel represents a self-reported proficiency level.
type SkillLevel string

const (
	LevelBeginner     SkillLevel = "beginner"
	LevelIntermediate SkillLevel = "intermediate"
	LevelAdvanced     SkillLevel = "advanced"
	LevelExpert       SkillLevel = "expert"
)

// Valid returns true for a known skill level.
func (l SkillLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

// Profile represents a user profile. Profiles are owned by their user; the
// matching and lifecycle modules only ever read them.
type Profile struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DisplayName string    `json:"display_name" gorm:"not null"`
	Bio         string    `json:"bio,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Skills keep their submitted order via Position.
	Skills []Skill `json:"skills,omitempty" gorm:"foreignKey:ProfileID"`
}

// TableName returns the database table name.
func (Profile) TableName() string {
	return "profiles"
}

// SkillNames returns the profile's skill names in declared order.
func (p *Profile) SkillNames() []string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return names
}

// Skill is one entry in a profile's ordered skill list.
type Skill struct {
	ProfileID uuid.UUID  `json:"-" gorm:"type:uuid;primaryKey"`
	Position  int        `json:"-" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	Level     SkillLevel `json:"level" gorm:"not null"`
}

// TableName returns the database table name.
func (Skill) TableName() string {
	return "profile_skills"
}
