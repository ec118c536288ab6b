package events

import (
	"github.com/google/uuid"

	infra "github.com/teamforge/server/internal/infra/events"
)

// Team formation event type constants.
const (
	ApplicationAcceptedType = "ApplicationAccepted"
	ApplicationRejectedType = "ApplicationRejected"
	InvitationAcceptedType  = "InvitationAccepted"
	InvitationRejectedType  = "InvitationRejected"
	TeamArchivedType        = "TeamArchived"
)

// ApplicationAcceptedEvent is emitted when an application wins a seat on an
// opening. SeatsRemaining is the opening's seat count after the reservation.
type ApplicationAcceptedEvent struct {
	infra.BaseEvent

	ApplicationID  uuid.UUID `json:"application_id"`
	OpeningID      uuid.UUID `json:"opening_id"`
	TeamID         uuid.UUID `json:"team_id"`
	ApplicantID    uuid.UUID `json:"applicant_id"`
	SeatsRemaining int       `json:"seats_remaining"`
}

// NewApplicationAcceptedEvent creates a new ApplicationAcceptedEvent.
func NewApplicationAcceptedEvent(applicationID, openingID, teamID, applicantID uuid.UUID, seatsRemaining int) *ApplicationAcceptedEvent {
	return &ApplicationAcceptedEvent{
		BaseEvent:      infra.NewBaseEvent(ApplicationAcceptedType, applicationID, "Application"),
		ApplicationID:  applicationID,
		OpeningID:      openingID,
		TeamID:         teamID,
		ApplicantID:    applicantID,
		SeatsRemaining: seatsRemaining,
	}
}

// ApplicationRejectedEvent is emitted when an application is rejected,
// including the automatic rejection after losing the race for the last seat.
type ApplicationRejectedEvent struct {
	infra.BaseEvent

	ApplicationID uuid.UUID `json:"application_id"`
	OpeningID     uuid.UUID `json:"opening_id"`
	ApplicantID   uuid.UUID `json:"applicant_id"`

	// CapacityExhausted is true when the rejection was caused by the opening
	// filling up rather than an owner decision.
	CapacityExhausted bool `json:"capacity_exhausted"`
}

// NewApplicationRejectedEvent creates a new ApplicationRejectedEvent.
func NewApplicationRejectedEvent(applicationID, openingID, applicantID uuid.UUID, capacityExhausted bool) *ApplicationRejectedEvent {
	return &ApplicationRejectedEvent{
		BaseEvent:         infra.NewBaseEvent(ApplicationRejectedType, applicationID, "Application"),
		ApplicationID:     applicationID,
		OpeningID:         openingID,
		ApplicantID:       applicantID,
		CapacityExhausted: capacityExhausted,
	}
}

// InvitationAcceptedEvent is emitted when an invitee accepts an invitation
// and takes a membership slot on the team.
type InvitationAcceptedEvent struct {
	infra.BaseEvent

	InvitationID uuid.UUID `json:"invitation_id"`
	TeamID       uuid.UUID `json:"team_id"`
	InviteeID    uuid.UUID `json:"invitee_id"`
	HeadroomLeft int       `json:"headroom_left"`
}

// NewInvitationAcceptedEvent creates a new InvitationAcceptedEvent.
func NewInvitationAcceptedEvent(invitationID, teamID, inviteeID uuid.UUID, headroomLeft int) *InvitationAcceptedEvent {
	return &InvitationAcceptedEvent{
		BaseEvent:    infra.NewBaseEvent(InvitationAcceptedType, invitationID, "Invitation"),
		InvitationID: invitationID,
		TeamID:       teamID,
		InviteeID:    inviteeID,
		HeadroomLeft: headroomLeft,
	}
}

// InvitationRejectedEvent is emitted when an invitation is rejected.
type InvitationRejectedEvent struct {
	infra.BaseEvent

	InvitationID      uuid.UUID `json:"invitation_id"`
	TeamID            uuid.UUID `json:"team_id"`
	InviteeID         uuid.UUID `json:"invitee_id"`
	CapacityExhausted bool      `json:"capacity_exhausted"`
}

// NewInvitationRejectedEvent creates a new InvitationRejectedEvent.
func NewInvitationRejectedEvent(invitationID, teamID, inviteeID uuid.UUID, capacityExhausted bool) *InvitationRejectedEvent {
	return &InvitationRejectedEvent{
		BaseEvent:         infra.NewBaseEvent(InvitationRejectedType, invitationID, "Invitation"),
		InvitationID:      invitationID,
		TeamID:            teamID,
		InviteeID:         inviteeID,
		CapacityExhausted: capacityExhausted,
	}
}

// TeamArchivedEvent is emitted when a team is archived and its pending
// applications and invitations have been withdrawn.
type TeamArchivedEvent struct {
	infra.BaseEvent

	TeamID                uuid.UUID `json:"team_id"`
	OwnerID               uuid.UUID `json:"owner_id"`
	WithdrawnApplications int64     `json:"withdrawn_applications"`
	WithdrawnInvitations  int64     `json:"withdrawn_invitations"`
}

// NewTeamArchivedEvent creates a new TeamArchivedEvent.
func NewTeamArchivedEvent(teamID, ownerID uuid.UUID, withdrawnApps, withdrawnInvites int64) *TeamArchivedEvent {
	return &TeamArchivedEvent{
		BaseEvent:             infra.NewBaseEvent(TeamArchivedType, teamID, "Team"),
		TeamID:                teamID,
		OwnerID:               ownerID,
		WithdrawnApplications: withdrawnApps,
		WithdrawnInvitations:  withdrawnInvites,
	}
}
