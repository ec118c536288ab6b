package events

import (
	"go.uber.org/zap"

	infra "github.com/teamforge/server/internal/infra/events"
)

// LoggingHandler logs every team formation event. It is the default
// observer registered on the bus; notification delivery would hang off
// the same subscription.
type LoggingHandler struct {
	logger *zap.Logger
}

// NewLoggingHandler creates a new logging event handler.
func NewLoggingHandler(logger *zap.Logger) *LoggingHandler {
	return &LoggingHandler{logger: logger}
}

// Handles returns the event types this handler processes.
func (h *LoggingHandler) Handles() []string {
	return []string{
		ApplicationAcceptedType,
		ApplicationRejectedType,
		InvitationAcceptedType,
		InvitationRejectedType,
		TeamArchivedType,
	}
}

// Handle logs the event.
func (h *LoggingHandler) Handle(event infra.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *ApplicationAcceptedEvent:
		fields = append(fields,
			zap.String("opening_id", e.OpeningID.String()),
			zap.String("applicant_id", e.ApplicantID.String()),
			zap.Int("seats_remaining", e.SeatsRemaining),
		)
	case *ApplicationRejectedEvent:
		fields = append(fields,
			zap.String("applicant_id", e.ApplicantID.String()),
			zap.Bool("capacity_exhausted", e.CapacityExhausted),
		)
	case *InvitationAcceptedEvent:
		fields = append(fields,
			zap.String("team_id", e.TeamID.String()),
			zap.String("invitee_id", e.InviteeID.String()),
			zap.Int("headroom_left", e.HeadroomLeft),
		)
	case *InvitationRejectedEvent:
		fields = append(fields,
			zap.String("team_id", e.TeamID.String()),
			zap.Bool("capacity_exhausted", e.CapacityExhausted),
		)
	case *TeamArchivedEvent:
		fields = append(fields,
			zap.Int64("withdrawn_applications", e.WithdrawnApplications),
			zap.Int64("withdrawn_invitations", e.WithdrawnInvitations),
		)
	}

	h.logger.Info(event.EventType(), fields...)
	return nil
}
