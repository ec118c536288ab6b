package application

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
	ErrNotAuthorized        = errors.New("not authorized")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrAlreadyResolved      = errors.New("application already resolved")
	ErrOpeningNotOpen       = errors.New("opening is not open")
	ErrDeadlinePassed       = errors.New("application deadline has passed")
	ErrOpeningFull          = errors.New("opening has no seats available")
	ErrAlreadyMember        = errors.New("applicant is already a member")
	ErrDuplicateApplication = errors.New("a pending application already exists")
)

// Service provides application lifecycle business logic.
type Service struct {
	repo    Repository
	teams   team.Repository
	bus     *infraevents.Bus
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService creates a new application service.
func NewService(repo Repository, teams team.Repository, bus *infraevents.Bus, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		repo:    repo,
		teams:   teams,
		bus:     bus,
		metrics: m,
		logger:  logger,
	}
}

// Submit creates a pending application to an opening. The seat check here
// is advisory; the binding check happens at accept time.
func (s *Service) Submit(ctx context.Context, applicantID uuid.UUID, req *SubmitApplicationRequest) (*Application, error) {
	opening, err := s.teams.GetOpeningByID(ctx, req.OpeningID)
	if err != nil {
		return nil, err
	}
	if !opening.IsOpen() {
		return nil, ErrOpeningNotOpen
	}
	if opening.DeadlinePassed(time.Now()) {
		return nil, ErrDeadlinePassed
	}
	if opening.SeatsAvailable <= 0 {
		return nil, ErrOpeningFull
	}

	isMember, err := s.teams.IsMember(ctx, opening.TeamID, applicantID)
	if err != nil {
		return nil, err
	}
	if isMember {
		return nil, ErrAlreadyMember
	}

	hasPending, err := s.repo.HasPending(ctx, req.OpeningID, applicantID)
	if err != nil {
		return nil, err
	}
	if hasPending {
		return nil, ErrDuplicateApplication
	}

	app := &Application{
		ID:          uuid.New(),
		OpeningID:   opening.ID,
		TeamID:      opening.TeamID,
		ApplicantID: applicantID,
		Message:     req.Message,
		Skills:      req.Skills,
		Status:      StatusPending,
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("application submitted",
		zap.String("application_id", app.ID.String()),
		zap.String("opening_id", opening.ID.String()),
		zap.String("applicant_id", applicantID.String()),
	)

	return app, nil
}

// Accept resolves an application in the applicant's favor. The seat
// reservation and the status flip commit together; losing the race for
// the last seat auto-rejects the application and reports ErrOpeningFull.
func (s *Service) Accept(ctx context.Context, applicationID, actorID uuid.UUID) (*Application, error) {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	owner, err := s.teams.GetTeamByID(ctx, app.TeamID)
	if err != nil {
		return nil, err
	}
	if owner.OwnerID != actorID {
		return nil, ErrNotAuthorized
	}
	if !app.Status.CanTransitionTo(StatusAccepted) {
		return nil, ErrInvalidTransition
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txApps := s.repo.WithTx(tx)
	txTeams := s.teams.WithTx(tx)

	granted, remaining, err := txTeams.ReserveSeat(ctx, app.OpeningID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordSeatReservation("opening", granted)
	}

	if !granted {
		// The opening drained while this application was pending. Resolve
		// it as rejected so it does not linger against a full opening.
		claimed, err := txApps.UpdateStatusIfPending(ctx, applicationID, StatusRejected)
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
			s.bus.Publish(events.NewApplicationRejectedEvent(app.ID, app.OpeningID, app.ApplicantID, true))
		}

		s.logger.Info("application auto-rejected, opening full",
			zap.String("application_id", applicationID.String()),
			zap.String("opening_id", app.OpeningID.String()),
		)

		return nil, ErrOpeningFull
	}

	claimed, err := txApps.UpdateStatusIfPending(ctx, applicationID, StatusAccepted)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Another resolution won; the rollback releases the seat.
		return nil, ErrAlreadyResolved
	}

	member := &team.TeamMember{
		TeamID:    app.TeamID,
		ProfileID: app.ApplicantID,
		JoinedAt:  time.Now(),
	}
	if err := txTeams.AddMember(ctx, member); err != nil {
		return nil, err
	}
	if err := txTeams.IncrementMembers(ctx, app.TeamID); err != nil {
		return nil, err
	}
	if remaining == 0 {
		if err := txTeams.UpdateOpeningStatus(ctx, app.OpeningID, team.OpeningStatusClosed); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.recordTransition(StatusAccepted)
	if s.bus != nil {
		s.bus.Publish(events.NewApplicationAcceptedEvent(app.ID, app.OpeningID, app.TeamID, app.ApplicantID, remaining))
	}

	s.logger.Info("application accepted",
		zap.String("application_id", applicationID.String()),
		zap.String("opening_id", app.OpeningID.String()),
		zap.Int("seats_remaining", remaining),
	)

	return s.repo.GetByID(ctx, applicationID)
}

// Reject resolves an application against the applicant. Seats are not
// restored; the opening keeps whatever inventory it has.
func (s *Service) Reject(ctx context.Context, applicationID, actorID uuid.UUID) (*Application, error) {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	owner, err := s.teams.GetTeamByID(ctx, app.TeamID)
	if err != nil {
		return nil, err
	}
	if owner.OwnerID != actorID {
		return nil, ErrNotAuthorized
	}
	if !app.Status.CanTransitionTo(StatusRejected) {
		return nil, ErrInvalidTransition
	}

	claimed, err := s.repo.UpdateStatusIfPending(ctx, applicationID, StatusRejected)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrAlreadyResolved
	}

	s.recordTransition(StatusRejected)
	if s.bus != nil {
		s.bus.Publish(events.NewApplicationRejectedEvent(app.ID, app.OpeningID, app.ApplicantID, false))
	}

	return s.repo.GetByID(ctx, applicationID)
}

// Withdraw lets the applicant retract a pending application.
func (s *Service) Withdraw(ctx context.Context, applicationID, actorID uuid.UUID) (*Application, error) {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID != actorID {
		return nil, ErrNotAuthorized
	}
	if !app.Status.CanTransitionTo(StatusWithdrawn) {
		return nil, ErrInvalidTransition
	}

	claimed, err := s.repo.UpdateStatusIfPending(ctx, applicationID, StatusWithdrawn)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrAlreadyResolved
	}

	s.recordTransition(StatusWithdrawn)

	return s.repo.GetByID(ctx, applicationID)
}

// Get retrieves an application, visible to the applicant and the team owner.
func (s *Service) Get(ctx context.Context, applicationID, actorID uuid.UUID) (*Application, error) {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.ApplicantID == actorID {
		return app, nil
	}

	owner, err := s.teams.GetTeamByID(ctx, app.TeamID)
	if err != nil {
		return nil, err
	}
	if owner.OwnerID != actorID {
		return nil, ErrNotAuthorized
	}
	return app, nil
}

// ListForOpening lists an opening's applications for the team owner.
func (s *Service) ListForOpening(ctx context.Context, openingID, actorID uuid.UUID, limit, offset int) ([]*Application, error) {
	opening, err := s.teams.GetOpeningByID(ctx, openingID)
	if err != nil {
		return nil, err
	}
	owner, err := s.teams.GetTeamByID(ctx, opening.TeamID)
	if err != nil {
		return nil, err
	}
	if owner.OwnerID != actorID {
		return nil, ErrNotAuthorized
	}
	return s.repo.ListByOpening(ctx, openingID, limit, offset)
}

// ListMine lists the caller's applications.
func (s *Service) ListMine(ctx context.Context, actorID uuid.UUID, limit, offset int) ([]*Application, error) {
	return s.repo.ListByApplicant(ctx, actorID, limit, offset)
}

func (s *Service) recordTransition(status Status) {
	if s.metrics != nil {
		s.metrics.RecordTransition("application", string(status))
	}
}
