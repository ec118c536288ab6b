package team

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// TeamStatus represents the status of a team.
type TeamStatus string

const (
	TeamStatusRecruiting TeamStatus = "recruiting"
	TeamStatusActive     TeamStatus = "active"
	TeamStatusArchived   TeamStatus = "archived"
)

// OpeningStatus represents the status of an opening.
type OpeningStatus string

const (
	OpeningStatusDraft  OpeningStatus = "draft"
	OpeningStatusOpen   OpeningStatus = "open"
	OpeningStatusClosed OpeningStatus = "closed"
)

// Valid returns true for a known opening status.
func (s OpeningStatus) Valid() bool {
	switch s {
	case OpeningStatusDraft, OpeningStatusOpen, OpeningStatusClosed:
		return true
	}
	return false
}

// Team represents a project team. CurrentMembers is a persisted counter
// maintained exclusively by team creation and accept transitions; it must
// never exceed MaxMembers.
type Team struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID        uuid.UUID  `json:"owner_id" gorm:"type:uuid;not null"`
	Name           string     `json:"name" gorm:"not null"`
	Status         TeamStatus `json:"status" gorm:"not null;default:recruiting"`
	MaxMembers     int        `json:"max_members" gorm:"not null"`
	CurrentMembers int        `json:"current_members" gorm:"not null;default:0"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations (not loaded by default)
	Members []TeamMember `json:"members,omitempty" gorm:"foreignKey:TeamID"`
}

// TableName returns the database table name.
func (Team) TableName() string {
	return "teams"
}

// IsArchived returns true if the team has been archived.
func (t *Team) IsArchived() bool {
	return t.Status == TeamStatusArchived
}

// Headroom returns the team's remaining general capacity.
func (t *Team) Headroom() int {
	return t.MaxMembers - t.CurrentMembers
}

// TeamMember represents a team member.
type TeamMember struct {
	TeamID    uuid.UUID `json:"team_id" gorm:"type:uuid;primaryKey"`
	ProfileID uuid.UUID `json:"profile_id" gorm:"type:uuid;primaryKey"`
	JoinedAt  time.Time `json:"joined_at"`
}

// TableName returns the database table name.
func (TeamMember) TableName() string {
	return "team_members"
}

// Opening represents a team's advertised vacancy. SeatsAvailable is the
// single source of truth for the opening's remaining capacity; it is
// decremented exactly once per accepted application and never goes
// negative. Seats are not restored when an application is rejected or
// withdrawn; the owner re-opens them explicitly.
type Opening struct {
	ID             uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TeamID         uuid.UUID      `json:"team_id" gorm:"type:uuid;not null"`
	Title          string         `json:"title" gorm:"not null"`
	Description    string         `json:"description,omitempty"`
	SkillsNeeded   pq.StringArray `json:"skills_needed" gorm:"type:text[]"`
	SeatsAvailable int            `json:"seats_available" gorm:"not null"`
	Deadline       time.Time      `json:"deadline" gorm:"not null"`
	Status         OpeningStatus  `json:"status" gorm:"not null;default:draft"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName returns the database table name.
func (Opening) TableName() string {
	return "openings"
}

// IsOpen returns true if the opening accepts applications.
func (o *Opening) IsOpen() bool {
	return o.Status == OpeningStatusOpen
}

// DeadlinePassed returns true if the application deadline is behind now.
func (o *Opening) DeadlinePassed(now time.Time) bool {
	return now.After(o.Deadline)
}
