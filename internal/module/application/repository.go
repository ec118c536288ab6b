package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository errors.
var ErrApplicationNotFound = errors.New("application not found")

// Repository defines the interface for application data access.
// UpdateStatusIfPending is the only legal way to resolve an application;
// the status check rides on the update itself, so two racing resolutions
// end with exactly one winner.
type Repository interface {
	Create(ctx context.Context, app *Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*Application, error)
	ListByOpening(ctx context.Context, openingID uuid.UUID, limit, offset int) ([]*Application, error)
	ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]*Application, error)
	HasPending(ctx context.Context, openingID, applicantID uuid.UUID) (bool, error)

	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status Status) (bool, error)

	// Cascade hooks, called inside the team registry's transaction.
	WithdrawPendingByTeam(ctx context.Context, tx *gorm.DB, teamID uuid.UUID) (int64, error)
	WithdrawPendingByOpening(ctx context.Context, tx *gorm.DB, openingID uuid.UUID) (int64, error)

	WithTx(tx *gorm.DB) Repository
	BeginTx(ctx context.Context) (*gorm.DB, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new application repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx returns a new repository with the given transaction.
func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// BeginTx starts a new transaction.
func (r *repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// Create creates a new application.
func (r *repository) Create(ctx context.Context, app *Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

// GetByID retrieves an application by ID.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Application, error) {
	var app Application
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

// ListByOpening lists applications for an opening, pending first, oldest
// first within a status.
func (r *repository) ListByOpening(ctx context.Context, openingID uuid.UUID, limit, offset int) ([]*Application, error) {
	if limit <= 0 {
		limit = 20
	}

	var apps []*Application
	err := r.db.WithContext(ctx).
		Where("opening_id = ?", openingID).
		Order("status = 'pending' DESC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// ListByApplicant lists a profile's applications, newest first.
func (r *repository) ListByApplicant(ctx context.Context, applicantID uuid.UUID, limit, offset int) ([]*Application, error) {
	if limit <= 0 {
		limit = 20
	}

	var apps []*Application
	err := r.db.WithContext(ctx).
		Where("applicant_id = ?", applicantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

// HasPending reports whether the applicant already has a pending
// application for the opening.
func (r *repository) HasPending(ctx context.Context, openingID, applicantID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Application{}).
		Where("opening_id = ? AND applicant_id = ? AND status = ?", openingID, applicantID, StatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatusIfPending resolves an application only if it is still
// pending. Returns false when another resolution got there first.
func (r *repository) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status Status) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&Application{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// WithdrawPendingByTeam withdraws every pending application against a team.
func (r *repository) WithdrawPendingByTeam(ctx context.Context, tx *gorm.DB, teamID uuid.UUID) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&Application{}).
		Where("team_id = ? AND status = ?", teamID, StatusPending).
		Updates(map[string]interface{}{
			"status":      StatusWithdrawn,
			"resolved_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// WithdrawPendingByOpening withdraws every pending application against an
// opening.
func (r *repository) WithdrawPendingByOpening(ctx context.Context, tx *gorm.DB, openingID uuid.UUID) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&Application{}).
		Where("opening_id = ? AND status = ?", openingID, StatusPending).
		Updates(map[string]interface{}{
			"status":      StatusWithdrawn,
			"resolved_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
