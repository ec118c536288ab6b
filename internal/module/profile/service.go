package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidSkillLevel is returned when a submitted skill level is unknown.
var ErrInvalidSkillLevel = errors.New("invalid skill level")

// Service provides profile business logic.
type Service struct {
	repo      Repository
	directory *DirectoryClient
	logger    *zap.Logger
}

// NewService creates a new profile service. directory may be nil when no
// external directory is configured.
func NewService(repo Repository, directory *DirectoryClient, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		logger:    logger,
	}
}

// Upsert creates or updates the caller's profile.
func (s *Service) Upsert(ctx context.Context, actorID uuid.UUID, req *UpsertProfileRequest) (*Profile, error) {
	profile := &Profile{
		ID:          actorID,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	}
	for i, sk := range req.Skills {
		if !sk.Level.Valid() {
			return nil, ErrInvalidSkillLevel
		}
		profile.Skills = append(profile.Skills, Skill{
			ProfileID: actorID,
			Position:  i,
			Name:      sk.Name,
			Level:     sk.Level,
		})
	}

	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile upserted",
		zap.String("profile_id", actorID.String()),
		zap.Int("skills", len(profile.Skills)),
	)

	return s.repo.GetByID(ctx, actorID)
}

// Get retrieves a profile, falling back to the external directory when the
// profile is not known locally. Directory hits are cached in the local store.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileNotFound) || s.directory == nil {
		return nil, err
	}

	fetched, dirErr := s.directory.Fetch(ctx, id)
	if dirErr != nil {
		if errors.Is(dirErr, ErrDirectoryNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Warn("directory lookup failed",
			zap.String("profile_id", id.String()),
			zap.Error(dirErr),
		)
		return nil, ErrProfileNotFound
	}

	if err := s.repo.Upsert(ctx, fetched); err != nil {
		s.logger.Warn("failed to cache directory profile",
			zap.String("profile_id", id.String()),
			zap.Error(err),
		)
	}
	return fetched, nil
}

// List retrieves profiles for candidate ranking.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	return s.repo.List(ctx, limit, offset)
}
