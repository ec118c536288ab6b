package invitation

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an invitation.
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

// Invitation represents a team owner inviting a profile onto the team.
// Accepting one consumes the team's general headroom rather than an
// opening's seat pool.
type Invitation struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TeamID     uuid.UUID  `json:"team_id" gorm:"type:uuid;not null;index"`
	InviterID  uuid.UUID  `json:"inviter_id" gorm:"type:uuid;not null"`
	InviteeID  uuid.UUID  `json:"invitee_id" gorm:"type:uuid;not null;index"`
	Message    string     `json:"message,omitempty"`
	Status     Status     `json:"status" gorm:"not null;default:pending"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName returns the database table name.
func (Invitation) TableName() string {
	return "invitations"
}
