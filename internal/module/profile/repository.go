package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrProfileNotFound is returned when a profile does not exist locally.
var ErrProfileNotFound = errors.New("profile not found")

// Repository defines the interface for profile data access.
type Repository interface {
	Upsert(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	List(ctx context.Context, limit, offset int) ([]*Profile, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new profile repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert creates or replaces a profile and its skill list in one transaction.
func (r *repository) Upsert(ctx context.Context, profile *Profile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&Profile{
			ID:          profile.ID,
			DisplayName: profile.DisplayName,
			Bio:         profile.Bio,
			CreatedAt:   profile.CreatedAt,
		}).Error; err != nil {
			return err
		}

		// Replace the skill list wholesale; order comes from Position.
		if err := tx.Where("profile_id = ?", profile.ID).Delete(&Skill{}).Error; err != nil {
			return err
		}
		for i := range profile.Skills {
			profile.Skills[i].ProfileID = profile.ID
			profile.Skills[i].Position = i
		}
		if len(profile.Skills) > 0 {
			if err := tx.Create(&profile.Skills).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetByID retrieves a profile with its skills.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var profile Profile
	err := r.db.WithContext(ctx).
		Preload("Skills", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// List retrieves profiles with their skills, ordered by id for stable paging.
func (r *repository) List(ctx context.Context, limit, offset int) ([]*Profile, error) {
	if limit <= 0 {
		limit = 100
	}

	var profiles []*Profile
	err := r.db.WithContext(ctx).
		Preload("Skills", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
