package team

import (
	"time"

	"github.com/lib/pq"
)

// CreateTeamRequest represents a request to create a team.
type CreateTeamRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=100"`
	MaxMembers int    `json:"max_members" binding:"required,min=1,max=100"`
}

// CreateOpeningRequest represents a request to create an opening.
type CreateOpeningRequest struct {
	Title          string         `json:"title" binding:"required,min=1,max=200"`
	Description    string         `json:"description" binding:"max=2000"`
	SkillsNeeded   pq.StringArray `json:"skills_needed" binding:"max=50"`
	SeatsAvailable int            `json:"seats_available" binding:"min=0"`
	Deadline       time.Time      `json:"deadline" binding:"required"`
	Status         OpeningStatus  `json:"status" binding:"omitempty,oneof=draft open closed"`
}

// UpdateOpeningRequest represents a partial update to an opening. Nil
// fields are left untouched.
type UpdateOpeningRequest struct {
	Title          *string         `json:"title" binding:"omitempty,min=1,max=200"`
	Description    *string         `json:"description" binding:"omitempty,max=2000"`
	SkillsNeeded   *pq.StringArray `json:"skills_needed" binding:"omitempty,max=50"`
	SeatsAvailable *int            `json:"seats_available" binding:"omitempty,min=0"`
	Deadline       *time.Time      `json:"deadline"`
	Status         *OpeningStatus  `json:"status" binding:"omitempty,oneof=draft open closed"`
}
