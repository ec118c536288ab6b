package matching

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const rankingKeyPrefix = "matching:ranking:"

// RankingCache caches full candidate rankings per profile in Redis.
// Filters (min score, limit) are applied after the cache, so one entry
// serves every query shape for the same profile.
type RankingCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRankingCache creates a new ranking cache.
func NewRankingCache(client redis.UniversalClient, ttl time.Duration) *RankingCache {
	return &RankingCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached ranking for a profile, or ok=false on a miss.
func (c *RankingCache) Get(ctx context.Context, selfID uuid.UUID) ([]Candidate, bool, error) {
	data, err := c.client.Get(ctx, rankingKeyPrefix+selfID.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var ranked []Candidate
	if err := json.Unmarshal(data, &ranked); err != nil {
		// Corrupt entry; treat as a miss so it gets recomputed.
		return nil, false, nil
	}
	return ranked, true, nil
}

// Set stores a ranking for a profile with the configured TTL.
func (c *RankingCache) Set(ctx context.Context, selfID uuid.UUID, ranked []Candidate) error {
	data, err := json.Marshal(ranked)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, rankingKeyPrefix+selfID.String(), data, c.ttl).Err()
}

// Invalidate drops the cached ranking for a profile.
func (c *RankingCache) Invalidate(ctx context.Context, selfID uuid.UUID) error {
	return c.client.Del(ctx, rankingKeyPrefix+selfID.String()).Err()
}
