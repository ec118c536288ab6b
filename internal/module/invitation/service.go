package invitation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	infraevents "github.com/teamforge/server/internal/infra/events"
	"github.com/teamforge/server/internal/module/team"
	"github.com/teamforge/server/internal/shared/events"
	"github.com/teamforge/server/internal/shared/metrics"
)

// Service errors.
var (
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrAlreadyResolved     = errors.New("invitation already resolved")
	ErrTeamFull            = errors.New("team has no headroom")
	ErrTeamArchived        = errors.New("team is archived")
	ErrAlreadyMember       = errors.New("invitee is already a member")
	ErrDuplicateInvitation = errors.New("a pending invitation already exists")
	ErrSelfInvitation      = errors.New("cannot invite yourself")
)

// Service provides invitation lifecycle business logic.
type Service struct {
	repo    Repository
	teams   team.Repository
	bus     *infraevents.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new invitation service.
func NewService(repo Repository, teams team.Repository, bus *infraevents.Bus, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		teams:   teams,
		bus:     bus,
		metrics: m,
		logger:  logger,
	}
}

// Invite creates a pending invitation. The headroom check here is
// advisory; the binding check happens when the invitee accepts.
func (s *Service) Invite(ctx context.Context, actorID uuid.UUID, req *CreateInvitationRequest) (*Invitation, error) {
	if req.InviteeID == actorID {
		return nil, ErrSelfInvitation
	}

	tm, err := s.teams.GetTeamByID(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}
	if tm.OwnerID != actorID {
		return nil, ErrNotAuthorized
	}
	if tm.IsArchived() {
		return nil, ErrTeamArchived
	}
	if tm.Headroom() <= 0 {
		return nil, ErrTeamFull
	}

	isMember, err := s.teams.IsMember(ctx, req.TeamID, req.InviteeID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, ErrAlreadyMember
	}

	hasPending, err := s.repo.HasPending(ctx, req.TeamID, req.InviteeID)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, ErrDuplicateInvitation
	}

	inv := &Invitation{
		ID:        uuid.New(),
		TeamID:    req.TeamID,
		InviterID: actorID,
		InviteeID: req.InviteeID,
		Message:   req.Message,
		Status:    StatusPending,
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	s.logger.Info("invitation created",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("team_id", req.TeamID.String()),
		zap.String("invitee_id", req.InviteeID.String()),
	)

	return inv, nil
}

// Accept resolves an invitation in the invitee's favor. The headroom
// reservation and the status flip commit together; a full team
// auto-rejects the invitation and reports ErrTeamFull.
func (s *Service) Accept(ctx context.Context, invitationID, actorID uuid.UUID) (*Invitation, error) {
	inv, err := s.repo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviteeID != actorID {
		return nil, ErrNotAuthorized
	}
	if !inv.Status.CanTransitionTo(StatusAccepted) {
		return nil, ErrInvalidTransition
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txInvs := s.repo.WithTx(tx)
	txTeams := s.teams.WithTx(tx)

	granted, headroom, err := txTeams.ReserveMembership(ctx, inv.TeamID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordSeatReservation("team", granted)
	}

	if !granted {
		claimed, err := txInvs.UpdateStatusIfPending(ctx, invitationID, StatusRejected)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, ErrAlreadyResolved
		}
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}

		s.recordTransition(StatusRejected)
		if s.bus != nil {
			s.bus.Publish(events.NewInvitationRejectedEvent(inv.ID, inv.TeamID, inv.InviteeID, true))
		}

		s.logger.Info("invitation auto-rejected, team full",
			zap.String("invitation_id", invitationID.String()),
			zap.String("team_id", inv.TeamID.String()),
		)

		return nil, ErrTeamFull
	}

	claimed, err := txInvs.UpdateStatusIfPending(ctx, invitationID, StatusAccepted)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Another resolution won; the rollback releases the slot.
		return nil, ErrAlreadyResolved
	}

	member := &team.TeamMember{
		TeamID:    inv.TeamID,
		ProfileID: inv.InviteeID,
		JoinedAt:  time.Now(),
	}
	if err := txTeams.AddMember(ctx, member); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.recordTransition(StatusAccepted)
	if s.bus != nil {
		s.bus.Publish(events.NewInvitationAcceptedEvent(inv.ID, inv.TeamID, inv.InviteeID, headroom))
	}

	s.logger.Info("invitation accepted",
		zap.String("invitation_id", invitationID.String()),
		zap.String("team_id", inv.TeamID.String()),
		zap.Int("headroom_left", headroom),
	)

	return s.repo.GetByID(ctx, invitationID)
}

// Reject lets the invitee decline an invitation.
func (s *Service) Reject(ctx context.Context, invitationID, actorID uuid.UUID) (*Invitation, error) {
	inv, err := s.repo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviteeID != actorID {
		return nil, ErrNotAuthorized
	}
	if !inv.Status.CanTransitionTo(StatusRejected) {
		return nil, ErrInvalidTransition
	}

	claimed, err := s.repo.UpdateStatusIfPending(ctx, invitationID, StatusRejected)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrAlreadyResolved
	}

	s.recordTransition(StatusRejected)
	if s.bus != nil {
		s.bus.Publish(events.NewInvitationRejectedEvent(inv.ID, inv.TeamID, inv.InviteeID, false))
	}

	return s.repo.GetByID(ctx, invitationID)
}

// Withdraw lets the inviter retract a pending invitation.
func (s *Service) Withdraw(ctx context.Context, invitationID, actorID uuid.UUID) (*Invitation, error) {
	inv, err := s.repo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviterID != actorID {
		return nil, ErrNotAuthorized
	}
	if !inv.Status.CanTransitionTo(StatusWithdrawn) {
		return nil, ErrInvalidTransition
	}

	claimed, err := s.repo.UpdateStatusIfPending(ctx, invitationID, StatusWithdrawn)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrAlreadyResolved
	}

	s.recordTransition(StatusWithdrawn)

	return s.repo.GetByID(ctx, invitationID)
}

// Get retrieves an invitation, visible to the invitee and the inviter.
func (s *Service) Get(ctx context.Context, invitationID, actorID uuid.UUID) (*Invitation, error) {
	inv, err := s.repo.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv.InviteeID != actorID && inv.InviterID != actorID {
		return nil, ErrNotAuthorized
	}
	return inv, nil
}

// ListMine lists the caller's incoming invitations.
func (s *Service) ListMine(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*Invitation, error) {
	return s.repo.ListByInvitee(ctx, actorID, limit, offset)
}

// ListForTeam lists a team's invitations for its owner.
func (s *Service) ListForTeam(ctx context.Context, teamID, actorID uuid.UUID, limit, offset int) ([]*Invitation, error) {
	tm, err := s.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if tm.OwnerID != actorID {
		return nil, ErrNotAuthorized
	}
	return s.repo.ListByTeam(ctx, teamID, limit, offset)
}

func (s *Service) recordTransition(status Status) {
	if s.metrics != nil {
		s.metrics.RecordTransition("invitation", string(status))
	}
}
