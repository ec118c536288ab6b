package matching

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamforge/server/internal/module/profile"
)

// fakeProfileSource serves profiles from memory and counts list calls.
type fakeProfileSource struct {
	profiles  map[uuid.UUID]*profile.Profile
	listCalls int
}

func (f *fakeProfileSource) Get(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	return p, nil
}

func (f *fakeProfileSource) List(_ context.Context, _, _ int) ([]*profile.Profile, error) {
	f.listCalls++
	out := make([]*profile.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func newCacheForTest(t *testing.T) *RankingCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRankingCache(client, time.Minute)
}

func TestService_Candidates(t *testing.T) {
	self := profileWithSkills("go", "sql")
	strong := profileWithSkills("go", "sql")
	weak := profileWithSkills("rust")

	source := &fakeProfileSource{profiles: map[uuid.UUID]*profile.Profile{
		self.ID:   self,
		strong.ID: strong,
		weak.ID:   weak,
	}}

	svc := NewService(source, newCacheForTest(t), nil, zap.NewNop())

	ranked, err := svc.Candidates(context.Background(), self.ID, RankOptions{})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, strong.ID, ranked[0].Profile.ID)
	assert.Equal(t, 100, ranked[0].Score)
	assert.Equal(t, weak.ID, ranked[1].Profile.ID)
}

func TestService_Candidates_CacheHitSkipsRecompute(t *testing.T) {
	self := profileWithSkills("go")
	other := profileWithSkills("go")

	source := &fakeProfileSource{profiles: map[uuid.UUID]*profile.Profile{
		self.ID:  self,
		other.ID: other,
	}}

	svc := NewService(source, newCacheForTest(t), nil, zap.NewNop())
	ctx := context.Background()

	first, err := svc.Candidates(ctx, self.ID, RankOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, source.listCalls)

	second, err := svc.Candidates(ctx, self.ID, RankOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, source.listCalls, "second call should be served from cache")

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Profile.ID, second[i].Profile.ID)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestService_Candidates_FiltersAfterCache(t *testing.T) {
	self := profileWithSkills("go", "sql")
	strong := profileWithSkills("go", "sql")
	weak := profileWithSkills("go")

	source := &fakeProfileSource{profiles: map[uuid.UUID]*profile.Profile{
		self.ID:   self,
		strong.ID: strong,
		weak.ID:   weak,
	}}

	svc := NewService(source, newCacheForTest(t), nil, zap.NewNop())
	ctx := context.Background()

	// Warm the cache with the unfiltered ranking.
	_, err := svc.Candidates(ctx, self.ID, RankOptions{})
	require.NoError(t, err)

	ranked, err := svc.Candidates(ctx, self.ID, RankOptions{MinScore: 80})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, strong.ID, ranked[0].Profile.ID)
}

func TestService_Candidates_NilCache(t *testing.T) {
	self := profileWithSkills("go")
	other := profileWithSkills("go")

	source := &fakeProfileSource{profiles: map[uuid.UUID]*profile.Profile{
		self.ID:  self,
		other.ID: other,
	}}

	svc := NewService(source, nil, nil, zap.NewNop())

	ranked, err := svc.Candidates(context.Background(), self.ID, RankOptions{})
	require.NoError(t, err)
	assert.Len(t, ranked, 1)
}

func TestService_Candidates_UnknownProfile(t *testing.T) {
	source := &fakeProfileSource{profiles: map[uuid.UUID]*profile.Profile{}}
	svc := NewService(source, nil, nil, zap.NewNop())

	_, err := svc.Candidates(context.Background(), uuid.New(), RankOptions{})
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)
}

func TestRankingCache_RoundTrip(t *testing.T) {
	cache := newCacheForTest(t)
	ctx := context.Background()
	selfID := uuid.New()

	_, ok, err := cache.Get(ctx, selfID)
	require.NoError(t, err)
	assert.False(t, ok)

	ranked := []Candidate{{Profile: profileWithSkills("go"), Score: 50, Mutual: []string{"go"}}}
	require.NoError(t, cache.Set(ctx, selfID, ranked))

	got, ok, err := cache.Get(ctx, selfID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, 50, got[0].Score)
	assert.Equal(t, []string{"go"}, got[0].Mutual)

	require.NoError(t, cache.Invalidate(ctx, selfID))
	_, ok, err = cache.Get(ctx, selfID)
	require.NoError(t, err)
	assert.False(t, ok)
}
