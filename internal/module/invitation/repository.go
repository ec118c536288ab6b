package invitation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository errors.
var ErrInvitationNotFound = errors.New("invitation not found")

// Repository defines the interface for invitation data access.
type Repository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
	ListByTeam(ctx context.Context, teamID uuid.UUID, limit, offset int) ([]*Invitation, error)
	ListByInvitee(ctx context.Context, inviteeID uuid.UUID, limit, offset int) ([]*Invitation, error)
	HasPending(ctx context.Context, teamID, inviteeID uuid.UUID) (bool, error)

	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status Status) (bool, error)

	// Cascade hook, called inside the team registry's transaction.
	WithdrawPendingByTeam(ctx context.Context, tx *gorm.DB, teamID uuid.UUID) (int64, error)

	WithTx(tx *gorm.DB) Repository
	BeginTx(ctx context.Context) (*gorm.DB, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new invitation repository.
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

// Create creates a new invitation.
func (r *repository) Create(ctx context.Context, inv *Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

// GetByID retrieves an invitation by ID.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error) {
	var inv Invitation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// ListByTeam lists a team's invitations, pending first.
func (r *repository) ListByTeam(ctx context.Context, teamID uuid.UUID, limit, offset int) ([]*Invitation, error) {
	if limit <= 0 {
		limit = 20
	}

	var invs []*Invitation
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("status = 'pending' DESC, created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

// ListByInvitee lists a profile's invitations, newest first.
func (r *repository) ListByInvitee(ctx context.Context, inviteeID uuid.UUID, limit, offset int) ([]*Invitation, error) {
	if limit <= 0 {
		limit = 20
	}

	var invs []*Invitation
	err := r.db.WithContext(ctx).
		Where("invitee_id = ?", inviteeID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&invs).Error
	if err != nil {
		return nil, err
	}
	return invs, nil
}

// HasPending reports whether the invitee already has a pending invitation
// to the team.
func (r *repository) HasPending(ctx context.Context, teamID, inviteeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Invitation{}).
		Where("team_id = ? AND invitee_id = ? AND status = ?", teamID, inviteeID, StatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateStatusIfPending resolves an invitation only if it is still pending.
func (r *repository) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status Status) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&Invitation{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]interface{}{
			"status":      status,
			"resolved_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// WithdrawPendingByTeam withdraws every pending invitation to a team.
func (r *repository) WithdrawPendingByTeam(ctx context.Context, tx *gorm.DB, teamID uuid.UUID) (int64, error) {
	result := tx.WithContext(ctx).
		Model(&Invitation{}).
		Where("team_id = ? AND status = ?", teamID, StatusPending).
		Updates(map[string]interface{}{
			"status":      StatusWithdrawn,
			"resolved_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
