package team

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	infraevents "github.com/teamforge/server/internal/infra/events"
	"github.com/teamforge/server/internal/shared/events"
	"github.com/teamforge/server/internal/shared/metrics"
)

// Service errors.
var (
	ErrNotAuthorized   = errors.New("not authorized")
	ErrTeamArchived    = errors.New("team is archived")
	ErrInvalidSeats    = errors.New("seats must not be negative")
	ErrInvalidCapacity = errors.New("max members must be at least 1")
)

// ApplicationCascader withdraws pending applications when their parent team
// or opening goes away. Implemented by the application module's repository;
// the tx keeps the cascade inside the registry's transaction.
type ApplicationCascader interface {
	WithdrawPendingByTeam(ctx context.Context, tx *gorm.DB, teamID uuid.UUID) (int64, error)
	WithdrawPendingByOpening(ctx context.Context, tx *gorm.DB, openingID uuid.UUID) (int64, error)
}

// InvitationCascader withdraws pending invitations when their parent team
// goes away.
type InvitationCascader interface {
	WithdrawPendingByTeam(ctx context.Context, tx *gorm.DB, teamID uuid.UUID) (int64, error)
}

// Service provides team and opening business logic.
type Service struct {
	repo    Repository
	apps    ApplicationCascader
	invites InvitationCascader
	bus     *infraevents.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new team service.
func NewService(repo Repository, apps ApplicationCascader, invites InvitationCascader, bus *infraevents.Bus, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		apps:    apps,
		invites: invites,
		bus:     bus,
		metrics: m,
		logger:  logger,
	}
}

// ========== Team Operations ==========

// CreateTeam creates a new team with the owner as its first member.
func (s *Service) CreateTeam(ctx context.Context, ownerID uuid.UUID, req *CreateTeamRequest) (*Team, error) {
	if req.MaxMembers < 1 {
		return nil, ErrInvalidCapacity
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	team := &Team{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           req.Name,
		Status:         TeamStatusRecruiting,
		MaxMembers:     req.MaxMembers,
		CurrentMembers: 1, // owner
	}

	if err := txRepo.CreateTeam(ctx, team); err != nil {
		return nil, err
	}

	member := &TeamMember{
		TeamID:    team.ID,
		ProfileID: ownerID,
		JoinedAt:  time.Now(),
	}
	if err := txRepo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.logger.Info("team created",
		zap.String("team_id", team.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int("max_members", team.MaxMembers),
	)

	return team, nil
}

// GetTeam retrieves a team by ID.
func (s *Service) GetTeam(ctx context.Context, teamID uuid.UUID) (*Team, error) {
	return s.repo.GetTeamByID(ctx, teamID)
}

// ListMembers lists team members.
func (s *Service) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*TeamMember, error) {
	if _, err := s.repo.GetTeamByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, teamID)
}

// ListMyTeams lists teams the profile belongs to.
func (s *Service) ListMyTeams(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]*Team, error) {
	return s.repo.ListTeamsByMember(ctx, profileID, limit, offset)
}

// ArchiveTeam archives a team and withdraws every pending application and
// invitation that points at it, in one transaction. Nothing is left
// dangling in pending against an archived team.
func (s *Service) ArchiveTeam(ctx context.Context, teamID, actorID uuid.UUID) error {
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != actorID {
		return ErrNotAuthorized
	}
	if team.IsArchived() {
		return ErrTeamArchived
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	withdrawnApps, err := s.apps.WithdrawPendingByTeam(ctx, tx, teamID)
	if err != nil {
		return err
	}
	withdrawnInvites, err := s.invites.WithdrawPendingByTeam(ctx, tx, teamID)
	if err != nil {
		return err
	}
	if err := txRepo.CloseOpeningsByTeam(ctx, teamID); err != nil {
		return err
	}
	if err := txRepo.UpdateTeamStatus(ctx, teamID, TeamStatusArchived); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.logger.Info("team archived",
		zap.String("team_id", teamID.String()),
		zap.Int64("withdrawn_applications", withdrawnApps),
		zap.Int64("withdrawn_invitations", withdrawnInvites),
	)

	if s.metrics != nil {
		s.metrics.RecordTransition("team", string(TeamStatusArchived))
	}

	if s.bus != nil {
		s.bus.Publish(events.NewTeamArchivedEvent(teamID, actorID, withdrawnApps, withdrawnInvites))
	}

	return nil
}

// ========== Opening Operations ==========

// CreateOpening creates an opening on a team the actor owns.
func (s *Service) CreateOpening(ctx context.Context, teamID, actorID uuid.UUID, req *CreateOpeningRequest) (*Opening, error) {
	team, err := s.repo.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != actorID {
		return nil, ErrNotAuthorized
	}
	if team.IsArchived() {
		return nil, ErrTeamArchived
	}
	if req.SeatsAvailable < 0 {
		return nil, ErrInvalidSeats
	}

	status := req.Status
	if status == "" {
		status = OpeningStatusDraft
	}

	opening := &Opening{
		ID:             uuid.New(),
		TeamID:         teamID,
		Title:          req.Title,
		Description:    req.Description,
		SkillsNeeded:   req.SkillsNeeded,
		SeatsAvailable: req.SeatsAvailable,
		Deadline:       req.Deadline,
		Status:         status,
	}

	if err := s.repo.CreateOpening(ctx, opening); err != nil {
		return nil, err
	}

	s.logger.Info("opening created",
		zap.String("opening_id", opening.ID.String()),
		zap.String("team_id", teamID.String()),
		zap.Int("seats", opening.SeatsAvailable),
	)

	return opening, nil
}

// GetOpening retrieves an opening by ID.
func (s *Service) GetOpening(ctx context.Context, openingID uuid.UUID) (*Opening, error) {
	return s.repo.GetOpeningByID(ctx, openingID)
}

// ListOpenings lists open openings for browsing.
func (s *Service) ListOpenings(ctx context.Context, limit, offset int) ([]*Opening, error) {
	return s.repo.ListOpenings(ctx, limit, offset)
}

// UpdateOpening applies owner edits to an opening. Only the requested
// columns are written, so an edit that does not touch SeatsAvailable can
// never overwrite a concurrent reservation's decrement. Setting
// SeatsAvailable is the explicit way to re-open seats; the lifecycle never
// restores them.
func (s *Service) UpdateOpening(ctx context.Context, openingID, actorID uuid.UUID, req *UpdateOpeningRequest) (*Opening, error) {
	opening, err := s.repo.GetOpeningByID(ctx, openingID)
	if err != nil {
		return nil, err
	}

	team, err := s.repo.GetTeamByID(ctx, opening.TeamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != actorID {
		return nil, ErrNotAuthorized
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.SkillsNeeded != nil {
		fields["skills_needed"] = *req.SkillsNeeded
	}
	if req.SeatsAvailable != nil {
		if *req.SeatsAvailable < 0 {
			return nil, ErrInvalidSeats
		}
		fields["seats_available"] = *req.SeatsAvailable
	}
	if req.Deadline != nil {
		fields["deadline"] = *req.Deadline
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if len(fields) == 0 {
		return opening, nil
	}

	if err := s.repo.UpdateOpeningFields(ctx, openingID, fields); err != nil {
		return nil, err
	}

	return s.repo.GetOpeningByID(ctx, openingID)
}

// DeleteOpening deletes an opening and withdraws its pending applications.
func (s *Service) DeleteOpening(ctx context.Context, openingID, actorID uuid.UUID) error {
	opening, err := s.repo.GetOpeningByID(ctx, openingID)
	if err != nil {
		return err
	}

	team, err := s.repo.GetTeamByID(ctx, opening.TeamID)
	if err != nil {
		return err
	}
	if team.OwnerID != actorID {
		return ErrNotAuthorized
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txRepo := s.repo.WithTx(tx)

	withdrawn, err := s.apps.WithdrawPendingByOpening(ctx, tx, openingID)
	if err != nil {
		return err
	}
	if err := txRepo.DeleteOpening(ctx, openingID); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	s.logger.Info("opening deleted",
		zap.String("opening_id", openingID.String()),
		zap.Int64("withdrawn_applications", withdrawn),
	)

	return nil
}
