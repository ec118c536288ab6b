package invitation

import "github.com/google/uuid"

// CreateInvitationRequest represents a request to invite a profile.
type CreateInvitationRequest struct {
	TeamID    uuid.UUID `json:"team_id" binding:"required"`
	InviteeID uuid.UUID `json:"invitee_id" binding:"required"`
	Message   string    `json:"message" binding:"max=2000"`
}
