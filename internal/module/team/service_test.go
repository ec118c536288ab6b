package team

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	infraevents "github.com/teamforge/server/internal/infra/events"
	"github.com/teamforge/server/internal/shared/events"
)

// fakeTxConn satisfies gorm's ConnPool and TxCommitter so service
// transaction plumbing can run without a database.
type fakeTxConn struct{}

func (*fakeTxConn) PrepareContext(context.Context, string) (*sql.Stmt, error) { return nil, nil }
func (*fakeTxConn) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (*fakeTxConn) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (*fakeTxConn) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }
func (*fakeTxConn) Commit() error { return nil }
func (*fakeTxConn) Rollback() error { return nil }

func newFakeTx() *gorm.DB {
	return &gorm.DB{Config: &gorm.Config{}, Statement: &gorm.Statement{ConnPool: &fakeTxConn{}}}
}

// fakeRepo is an in-memory Repository. All mutation goes through one mutex,
// so the conditional capacity primitives behave like the single-statement
// updates of the real store.
type fakeRepo struct {
	mu       sync.Mutex
	teams    map[uuid.UUID]*Team
	members  map[uuid.UUID][]*TeamMember
	openings map[uuid.UUID]*Opening
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		teams:    make(map[uuid.UUID]*Team),
		members:  make(map[uuid.UUID][]*TeamMember),
		openings: make(map[uuid.UUID]*Opening),
	}
}

func (f *fakeRepo) WithTx(*gorm.DB) Repository { return f }
func (f *fakeRepo) BeginTx(context.Context) (*gorm.DB, error) { return newFakeTx(), nil }

func (f *fakeRepo) CreateTeam(_ context.Context, team *Team) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *team
	f.teams[team.ID] = &copied
	return nil
}

func (f *fakeRepo) GetTeamByID(_ context.Context, id uuid.UUID) (*Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeRepo) ListTeamsByMember(_ context.Context, profileID uuid.UUID, _, _ int) ([]*Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Team
	for teamID, members := range f.members {
		for _, m := range members {
			if m.ProfileID == profileID {
				if t, ok := f.teams[teamID]; ok && t.Status != TeamStatusArchived {
					copied := *t
					out = append(out, &copied)
				}
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateTeamStatus(_ context.Context, id uuid.UUID, status TeamStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[id]
	if !ok {
		return ErrTeamNotFound
	}
	t.Status = status
	return nil
}

func (f *fakeRepo) AddMember(_ context.Context, member *TeamMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *member
	f.members[member.TeamID] = append(f.members[member.TeamID], &copied)
	return nil
}

func (f *fakeRepo) IsMember(_ context.Context, teamID, profileID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[teamID] {
		if m.ProfileID == profileID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) ListMembers(_ context.Context, teamID uuid.UUID) ([]*TeamMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*TeamMember, 0, len(f.members[teamID]))
	for _, m := range f.members[teamID] {
		copied := *m
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeRepo) ReserveSeat(_ context.Context, openingID uuid.UUID) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.openings[openingID]
	if !ok {
		return false, 0, ErrOpeningNotFound
	}
	if o.SeatsAvailable <= 0 {
		return false, o.SeatsAvailable, nil
	}
	o.SeatsAvailable--
	return true, o.SeatsAvailable, nil
}

func (f *fakeRepo) ReserveMembership(_ context.Context, teamID uuid.UUID) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[teamID]
	if !ok {
		return false, 0, ErrTeamNotFound
	}
	if t.Status == TeamStatusArchived || t.CurrentMembers >= t.MaxMembers {
		return false, t.Headroom(), nil
	}
	t.CurrentMembers++
	return true, t.Headroom(), nil
}

func (f *fakeRepo) IncrementMembers(_ context.Context, teamID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.teams[teamID]
	if !ok {
		return ErrTeamNotFound
	}
	t.CurrentMembers++
	return nil
}

func (f *fakeRepo) CreateOpening(_ context.Context, opening *Opening) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *opening
	f.openings[opening.ID] = &copied
	return nil
}

func (f *fakeRepo) GetOpeningByID(_ context.Context, id uuid.UUID) (*Opening, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.openings[id]
	if !ok {
		return nil, ErrOpeningNotFound
	}
	copied := *o
	return &copied, nil
}

func (f *fakeRepo) ListOpenings(_ context.Context, _, _ int) ([]*Opening, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Opening
	for _, o := range f.openings {
		if o.Status == OpeningStatusOpen {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListOpeningsByTeam(_ context.Context, teamID uuid.UUID) ([]*Opening, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Opening
	for _, o := range f.openings {
		if o.TeamID == teamID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateOpeningFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.openings[id]
	if !ok {
		return ErrOpeningNotFound
	}
	for column, value := range fields {
		switch column {
		case "title":
			o.Title = value.(string)
		case "description":
			o.Description = value.(string)
		case "skills_needed":
			o.SkillsNeeded = value.(pq.StringArray)
		case "seats_available":
			o.SeatsAvailable = value.(int)
		case "deadline":
			o.Deadline = value.(time.Time)
		case "status":
			o.Status = value.(OpeningStatus)
		}
	}
	return nil
}

func (f *fakeRepo) UpdateOpeningStatus(_ context.Context, id uuid.UUID, status OpeningStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.openings[id]
	if !ok {
		return ErrOpeningNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeRepo) DeleteOpening(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.openings[id]; !ok {
		return ErrOpeningNotFound
	}
	delete(f.openings, id)
	return nil
}

func (f *fakeRepo) CloseOpeningsByTeam(_ context.Context, teamID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.openings {
		if o.TeamID == teamID && o.Status != OpeningStatusClosed {
			o.Status = OpeningStatusClosed
		}
	}
	return nil
}

// fakeCascader counts withdraw calls per parent id.
type fakeCascader struct {
	mu        sync.Mutex
	byTeam    map[uuid.UUID]int64
	byOpening map[uuid.UUID]int64
	pending   int64
}

func newFakeCascader(pending int64) *fakeCascader {
	return &fakeCascader{
		byTeam:    make(map[uuid.UUID]int64),
		byOpening: make(map[uuid.UUID]int64),
		pending:   pending,
	}
}

func (f *fakeCascader) WithdrawPendingByTeam(_ context.Context, _ *gorm.DB, teamID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byTeam[teamID]++
	return f.pending, nil
}

func (f *fakeCascader) WithdrawPendingByOpening(_ context.Context, _ *gorm.DB, openingID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byOpening[openingID]++
	return f.pending, nil
}

// captureHandler records published events.
type captureHandler struct {
	types  []string
	events []infraevents.Event
}

func (h *captureHandler) Handle(e infraevents.Event) error {
	h.events = append(h.events, e)
	return nil
}

func (h *captureHandler) Handles() []string { return h.types }

func newTestService(repo Repository, apps *fakeCascader, invites *fakeCascader) (*Service, *infraevents.Bus) {
	bus := infraevents.NewBus(zap.NewNop())
	svc := NewService(repo, apps, invites, bus, nil, zap.NewNop())
	return svc, bus
}

func TestService_CreateTeam(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, newFakeCascader(0), newFakeCascader(0))
	ownerID := uuid.New()

	team, err := svc.CreateTeam(context.Background(), ownerID, &CreateTeamRequest{
		Name:       "signal processing",
		MaxMembers: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, ownerID, team.OwnerID)
	assert.Equal(t, TeamStatusRecruiting, team.Status)
	assert.Equal(t, 1, team.CurrentMembers, "owner occupies the first slot")

	isMember, err := repo.IsMember(context.Background(), team.ID, ownerID)
	require.NoError(t, err)
	assert.True(t, isMember)
}

func TestService_CreateTeam_InvalidCapacity(t *testing.T) {
	svc, _ := newTestService(newFakeRepo(), newFakeCascader(0), newFakeCascader(0))

	_, err := svc.CreateTeam(context.Background(), uuid.New(), &CreateTeamRequest{
		Name:       "solo",
		MaxMembers: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestService_ArchiveTeam(t *testing.T) {
	repo := newFakeRepo()
	apps := newFakeCascader(3)
	invites := newFakeCascader(2)
	svc, bus := newTestService(repo, apps, invites)

	capture := &captureHandler{types: []string{events.TeamArchivedType}}
	bus.Register(capture)

	ctx := context.Background()
	ownerID := uuid.New()
	team, err := svc.CreateTeam(ctx, ownerID, &CreateTeamRequest{Name: "t", MaxMembers: 5})
	require.NoError(t, err)

	opening, err := svc.CreateOpening(ctx, team.ID, ownerID, &CreateOpeningRequest{
		Title:          "backend",
		SeatsAvailable: 2,
		Deadline:       time.Now().Add(time.Hour),
		Status:         OpeningStatusOpen,
	})
	require.NoError(t, err)

	require.NoError(t, svc.ArchiveTeam(ctx, team.ID, ownerID))

	got, err := repo.GetTeamByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, TeamStatusArchived, got.Status)

	gotOpening, err := repo.GetOpeningByID(ctx, opening.ID)
	require.NoError(t, err)
	assert.Equal(t, OpeningStatusClosed, gotOpening.Status)

	assert.Equal(t, int64(1), apps.byTeam[team.ID])
	assert.Equal(t, int64(1), invites.byTeam[team.ID])

	require.Len(t, capture.events, 1)
	archived, ok := capture.events[0].(*events.TeamArchivedEvent)
	require.True(t, ok)
	assert.Equal(t, team.ID, archived.TeamID)
	assert.Equal(t, int64(3), archived.WithdrawnApplications)
	assert.Equal(t, int64(2), archived.WithdrawnInvitations)
}

func TestService_ArchiveTeam_Authorization(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, newFakeCascader(0), newFakeCascader(0))
	ctx := context.Background()

	ownerID := uuid.New()
	team, err := svc.CreateTeam(ctx, ownerID, &CreateTeamRequest{Name: "t", MaxMembers: 3})
	require.NoError(t, err)

	err = svc.ArchiveTeam(ctx, team.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, svc.ArchiveTeam(ctx, team.ID, ownerID))
	err = svc.ArchiveTeam(ctx, team.ID, ownerID)
	assert.ErrorIs(t, err, ErrTeamArchived)
}

func TestService_CreateOpening(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, newFakeCascader(0), newFakeCascader(0))
	ctx := context.Background()

	ownerID := uuid.New()
	team, err := svc.CreateTeam(ctx, ownerID, &CreateTeamRequest{Name: "t", MaxMembers: 3})
	require.NoError(t, err)

	t.Run("defaults to draft", func(t *testing.T) {
		opening, err := svc.CreateOpening(ctx, team.ID, ownerID, &CreateOpeningRequest{
			Title:          "frontend",
			SeatsAvailable: 1,
			Deadline:       time.Now().Add(time.Hour),
		})
		require.NoError(t, err)
		assert.Equal(t, OpeningStatusDraft, opening.Status)
	})

	t.Run("not owner", func(t *testing.T) {
		_, err := svc.CreateOpening(ctx, team.ID, uuid.New(), &CreateOpeningRequest{
			Title:          "frontend",
			SeatsAvailable: 1,
			Deadline:       time.Now().Add(time.Hour),
		})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})

	t.Run("negative seats", func(t *testing.T) {
		_, err := svc.CreateOpening(ctx, team.ID, ownerID, &CreateOpeningRequest{
			Title:          "frontend",
			SeatsAvailable: -1,
			Deadline:       time.Now().Add(time.Hour),
		})
		assert.ErrorIs(t, err, ErrInvalidSeats)
	})

	t.Run("archived team", func(t *testing.T) {
		require.NoError(t, svc.ArchiveTeam(ctx, team.ID, ownerID))
		_, err := svc.CreateOpening(ctx, team.ID, ownerID, &CreateOpeningRequest{
			Title:          "frontend",
			SeatsAvailable: 1,
			Deadline:       time.Now().Add(time.Hour),
		})
		assert.ErrorIs(t, err, ErrTeamArchived)
	})
}

func TestService_UpdateOpening(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, newFakeCascader(0), newFakeCascader(0))
	ctx := context.Background()

	ownerID := uuid.New()
	team, err := svc.CreateTeam(ctx, ownerID, &CreateTeamRequest{Name: "t", MaxMembers: 3})
	require.NoError(t, err)

	opening, err := svc.CreateOpening(ctx, team.ID, ownerID, &CreateOpeningRequest{
		Title:          "backend",
		SeatsAvailable: 1,
		Deadline:       time.Now().Add(time.Hour),
		Status:         OpeningStatusOpen,
	})
	require.NoError(t, err)

	t.Run("partial update touches only set fields", func(t *testing.T) {
		seats := 5
		updated, err := svc.UpdateOpening(ctx, opening.ID, ownerID, &UpdateOpeningRequest{
			SeatsAvailable: &seats,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, updated.SeatsAvailable)
		assert.Equal(t, "backend", updated.Title)
		assert.Equal(t, OpeningStatusOpen, updated.Status)
	})

	t.Run("negative seats rejected", func(t *testing.T) {
		seats := -2
		_, err := svc.UpdateOpening(ctx, opening.ID, ownerID, &UpdateOpeningRequest{
			SeatsAvailable: &seats,
		})
		assert.ErrorIs(t, err, ErrInvalidSeats)
	})

	t.Run("not owner", func(t *testing.T) {
		title := "stolen"
		_, err := svc.UpdateOpening(ctx, opening.ID, uuid.New(), &UpdateOpeningRequest{Title: &title})
		assert.ErrorIs(t, err, ErrNotAuthorized)
	})
}

// racingRepo grants a seat reservation right after the first read of the
// target opening, modeling an accept that commits while an owner edit is
// in flight.
type racingRepo struct {
	*fakeRepo
	openingID uuid.UUID
	once      sync.Once
}

func (r *racingRepo) GetOpeningByID(ctx context.Context, id uuid.UUID) (*Opening, error) {
	opening, err := r.fakeRepo.GetOpeningByID(ctx, id)
	if err != nil || id != r.openingID {
		return opening, err
	}
	r.once.Do(func() {
		_, _, _ = r.fakeRepo.ReserveSeat(ctx, id)
	})
	return opening, err
}

func TestService_UpdateOpening_DoesNotRestoreReservedSeat(t *testing.T) {
	repo := newFakeRepo()
	racing := &racingRepo{fakeRepo: repo}
	svc, _ := newTestService(racing, newFakeCascader(0), newFakeCascader(0))
	ctx := context.Background()

	ownerID := uuid.New()
	team, err := svc.CreateTeam(ctx, ownerID, &CreateTeamRequest{Name: "t", MaxMembers: 3})
	require.NoError(t, err)

	opening, err := svc.CreateOpening(ctx, team.ID, ownerID, &CreateOpeningRequest{
		Title:          "backend",
		SeatsAvailable: 1,
		Deadline:       time.Now().Add(time.Hour),
		Status:         OpeningStatusOpen,
	})
	require.NoError(t, err)
	racing.openingID = opening.ID

	title := "backend engineer"
	updated, err := svc.UpdateOpening(ctx, opening.ID, ownerID, &UpdateOpeningRequest{Title: &title})
	require.NoError(t, err)

	assert.Equal(t, "backend engineer", updated.Title)
	assert.Equal(t, 0, updated.SeatsAvailable, "title-only update must not restore the consumed seat")

	got, err := repo.GetOpeningByID(ctx, opening.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.SeatsAvailable)
}

func TestService_DeleteOpening(t *testing.T) {
	repo := newFakeRepo()
	apps := newFakeCascader(4)
	svc, _ := newTestService(repo, apps, newFakeCascader(0))
	ctx := context.Background()

	ownerID := uuid.New()
	team, err := svc.CreateTeam(ctx, ownerID, &CreateTeamRequest{Name: "t", MaxMembers: 3})
	require.NoError(t, err)

	opening, err := svc.CreateOpening(ctx, team.ID, ownerID, &CreateOpeningRequest{
		Title:          "backend",
		SeatsAvailable: 1,
		Deadline:       time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOpening(ctx, opening.ID, ownerID))

	_, err = repo.GetOpeningByID(ctx, opening.ID)
	assert.ErrorIs(t, err, ErrOpeningNotFound)
	assert.Equal(t, int64(1), apps.byOpening[opening.ID])
}

func TestService_ListMembers_UnknownTeam(t *testing.T) {
	svc, _ := newTestService(newFakeRepo(), newFakeCascader(0), newFakeCascader(0))
	_, err := svc.ListMembers(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTeamNotFound)
}
