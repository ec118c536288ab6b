package application

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status represents the lifecycle state of an application.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// Terminal returns true for states that admit no further transition.
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// CanTransitionTo reports whether the transition s -> target is legal.
// Only pending moves anywhere; terminal states absorb.
func (s Status) CanTransitionTo(target Status) bool {
	if s != StatusPending {
		return false
	}
	switch target {
	case StatusAccepted, StatusRejected, StatusWithdrawn:
		return true
	}
	return false
}

// Application represents a profile's application to an opening. TeamID is
// denormalized from the opening so archive cascades can withdraw by team
// in one statement.
type Application struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OpeningID   uuid.UUID      `json:"opening_id" gorm:"type:uuid;not null;index"`
	TeamID      uuid.UUID      `json:"team_id" gorm:"type:uuid;not null;index"`
	ApplicantID uuid.UUID      `json:"applicant_id" gorm:"type:uuid;not null;index"`
	Message     string         `json:"message,omitempty"`
	Skills      pq.StringArray `json:"skills,omitempty" gorm:"type:text[]"`
	Status      Status         `json:"status" gorm:"not null;default:pending"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName returns the database table name.
func (Application) TableName() string {
	return "applications"
}
