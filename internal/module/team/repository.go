package team

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository errors.
var (
	ErrTeamNotFound    = errors.New("team not found")
	ErrOpeningNotFound = errors.New("opening not found")
	ErrMemberNotFound  = errors.New("member not found")
)

// Repository defines the interface for team and opening data access.
// ReserveSeat and ReserveMembership are the only legal ways to consume
// capacity; both are single conditional updates, linearizable at the store.
type Repository interface {
	// Team operations
	CreateTeam(ctx context.Context, team *Team) error
	GetTeamByID(ctx context.Context, id uuid.UUID) (*Team, error)
	ListTeamsByMember(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]*Team, error)
	UpdateTeamStatus(ctx context.Context, id uuid.UUID, status TeamStatus) error

	// Member operations
	AddMember(ctx context.Context, member *TeamMember) error
	IsMember(ctx context.Context, teamID, profileID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]*TeamMember, error)

	// Capacity primitives
	ReserveSeat(ctx context.Context, openingID uuid.UUID) (granted bool, remaining int, err error)
	ReserveMembership(ctx context.Context, teamID uuid.UUID) (granted bool, remaining int, err error)
	IncrementMembers(ctx context.Context, teamID uuid.UUID) error

	// Opening operations
	CreateOpening(ctx context.Context, opening *Opening) error
	GetOpeningByID(ctx context.Context, id uuid.UUID) (*Opening, error)
	ListOpenings(ctx context.Context, limit, offset int) ([]*Opening, error)
	ListOpeningsByTeam(ctx context.Context, teamID uuid.UUID) ([]*Opening, error)
	UpdateOpeningFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	UpdateOpeningStatus(ctx context.Context, id uuid.UUID, status OpeningStatus) error
	DeleteOpening(ctx context.Context, id uuid.UUID) error
	CloseOpeningsByTeam(ctx context.Context, teamID uuid.UUID) error

	// Transaction support
	WithTx(tx *gorm.DB) Repository
	BeginTx(ctx context.Context) (*gorm.DB, error)
}

// repository implements Repository using GORM.
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new team repository.
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

// CreateTeam creates a new team.
func (r *repository) CreateTeam(ctx context.Context, team *Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

// GetTeamByID retrieves a team by ID, archived teams included.
func (r *repository) GetTeamByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	var team Team
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

// ListTeamsByMember lists non-archived teams a profile belongs to.
func (r *repository) ListTeamsByMember(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]*Team, error) {
	if limit <= 0 {
		limit = 20
	}

	var teams []*Team
	err := r.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.profile_id = ? AND teams.status <> ?", profileID, TeamStatusArchived).
		Order("teams.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// UpdateTeamStatus updates a team's status.
func (r *repository) UpdateTeamStatus(ctx context.Context, id uuid.UUID, status TeamStatus) error {
	result := r.db.WithContext(ctx).
		Model(&Team{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// AddMember adds a member row. Counter updates go through IncrementMembers
// or ReserveMembership; this only records the membership itself.
func (r *repository) AddMember(ctx context.Context, member *TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// IsMember reports whether a profile is a member of a team.
func (r *repository) IsMember(ctx context.Context, teamID, profileID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&TeamMember{}).
		Where("team_id = ? AND profile_id = ?", teamID, profileID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListMembers lists all members of a team.
func (r *repository) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*TeamMember, error) {
	var members []*TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("joined_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ReserveSeat atomically takes one seat from an opening. The test and the
// decrement happen in a single conditional update, so two callers racing
// for the last seat get exactly one grant.
func (r *repository) ReserveSeat(ctx context.Context, openingID uuid.UUID) (bool, int, error) {
	result := r.db.WithContext(ctx).
		Model(&Opening{}).
		Where("id = ? AND seats_available > 0", openingID).
		UpdateColumn("seats_available", gorm.Expr("seats_available - 1"))
	if result.Error != nil {
		return false, 0, result.Error
	}

	// Scan reports zero rows through RowsAffected, not ErrRecordNotFound.
	var remaining int
	read := r.db.WithContext(ctx).
		Model(&Opening{}).
		Where("id = ?", openingID).
		Select("seats_available").
		Scan(&remaining)
	if read.Error != nil {
		return false, 0, read.Error
	}
	if read.RowsAffected == 0 {
		return false, 0, ErrOpeningNotFound
	}

	return result.RowsAffected > 0, remaining, nil
}

// ReserveMembership atomically takes one slot of a team's general headroom.
func (r *repository) ReserveMembership(ctx context.Context, teamID uuid.UUID) (bool, int, error) {
	result := r.db.WithContext(ctx).
		Model(&Team{}).
		Where("id = ? AND current_members < max_members AND status <> ?", teamID, TeamStatusArchived).
		UpdateColumn("current_members", gorm.Expr("current_members + 1"))
	if result.Error != nil {
		return false, 0, result.Error
	}

	var team Team
	err := r.db.WithContext(ctx).
		Select("max_members", "current_members").
		Where("id = ?", teamID).
		First(&team).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, ErrTeamNotFound
		}
		return false, 0, err
	}

	return result.RowsAffected > 0, team.Headroom(), nil
}

// IncrementMembers bumps the member counter unconditionally. Used by the
// application accept path, where the opening's seat pool is the capacity
// guard.
func (r *repository) IncrementMembers(ctx context.Context, teamID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&Team{}).
		Where("id = ?", teamID).
		UpdateColumn("current_members", gorm.Expr("current_members + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTeamNotFound
	}
	return nil
}

// CreateOpening creates a new opening.
func (r *repository) CreateOpening(ctx context.Context, opening *Opening) error {
	return r.db.WithContext(ctx).Create(opening).Error
}

// GetOpeningByID retrieves an opening by ID.
func (r *repository) GetOpeningByID(ctx context.Context, id uuid.UUID) (*Opening, error) {
	var opening Opening
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&opening).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOpeningNotFound
		}
		return nil, err
	}
	return &opening, nil
}

// ListOpenings lists open openings, newest first.
func (r *repository) ListOpenings(ctx context.Context, limit, offset int) ([]*Opening, error) {
	if limit <= 0 {
		limit = 20
	}

	var openings []*Opening
	err := r.db.WithContext(ctx).
		Where("status = ?", OpeningStatusOpen).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&openings).Error
	if err != nil {
		return nil, err
	}
	return openings, nil
}

// ListOpeningsByTeam lists all openings of a team.
func (r *repository) ListOpeningsByTeam(ctx context.Context, teamID uuid.UUID) ([]*Opening, error) {
	var openings []*Opening
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&openings).Error
	if err != nil {
		return nil, err
	}
	return openings, nil
}

// UpdateOpeningFields updates only the given opening columns. Owner edits
// go through here so a seats_available value read before a concurrent
// reservation is never written back over the decrement.
func (r *repository) UpdateOpeningFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&Opening{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOpeningNotFound
	}
	return nil
}

// UpdateOpeningStatus updates only an opening's status. Used by the accept
// path to close a drained opening without touching its seat counter.
func (r *repository) UpdateOpeningStatus(ctx context.Context, id uuid.UUID, status OpeningStatus) error {
	result := r.db.WithContext(ctx).
		Model(&Opening{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOpeningNotFound
	}
	return nil
}

// DeleteOpening deletes an opening.
func (r *repository) DeleteOpening(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&Opening{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOpeningNotFound
	}
	return nil
}

// CloseOpeningsByTeam closes every non-closed opening of a team.
func (r *repository) CloseOpeningsByTeam(ctx context.Context, teamID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Opening{}).
		Where("team_id = ? AND status <> ?", teamID, OpeningStatusClosed).
		Update("status", OpeningStatusClosed).Error
}
