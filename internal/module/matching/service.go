package matching

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teamforge/server/internal/module/profile"
	"github.com/teamforge/server/internal/shared/metrics"
)

// candidatePoolSize bounds how many profiles one ranking pass considers.
const candidatePoolSize = 500

// ProfileSource is the read-only view of the profile store the ranking
// service needs.
type ProfileSource interface {
	Get(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
	List(ctx context.Context, limit, offset int) ([]*profile.Profile, error)
}

// RankOptions filter a ranking for presentation. They are view-level
// concerns; the underlying ordering is always total.
type RankOptions struct {
	MinScore int
	Limit    int
}

// Service produces ranked candidate lists.
type Service struct {
	profiles ProfileSource
	cache    *RankingCache
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewService creates a new matching service. cache may be nil when Redis is
// not configured.
func NewService(profiles ProfileSource, cache *RankingCache, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		profiles: profiles,
		cache:    cache,
		metrics:  m,
		logger:   logger,
	}
}

// Candidates returns the ranked candidate list for a profile, filtered by
// the given options. Rankings are cached whole; filters apply afterwards.
func (s *Service) Candidates(ctx context.Context, selfID uuid.UUID, opts RankOptions) ([]Candidate, error) {
	start := time.Now()

	if s.cache != nil {
		ranked, ok, err := s.cache.Get(ctx, selfID)
		if err != nil {
			s.logger.Warn("ranking cache read failed",
				zap.String("profile_id", selfID.String()),
				zap.Error(err),
			)
		} else if ok {
			if s.metrics != nil {
				s.metrics.CacheHitsTotal.WithLabelValues("ranking").Inc()
				s.metrics.RankingDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
			}
			return applyOptions(ranked, opts), nil
		}
		if s.metrics != nil {
			s.metrics.CacheMissesTotal.WithLabelValues("ranking").Inc()
		}
	}

	self, err := s.profiles.Get(ctx, selfID)
	if err != nil {
		return nil, err
	}

	pool, err := s.profiles.List(ctx, candidatePoolSize, 0)
	if err != nil {
		return nil, err
	}

	ranked := Rank(self, pool)

	if s.cache != nil {
		if err := s.cache.Set(ctx, selfID, ranked); err != nil {
			s.logger.Warn("ranking cache write failed",
				zap.String("profile_id", selfID.String()),
				zap.Error(err),
			)
		}
	}

	if s.metrics != nil {
		s.metrics.RankingDuration.WithLabelValues("computed").Observe(time.Since(start).Seconds())
	}

	return applyOptions(ranked, opts), nil
}

// applyOptions filters a total ranking for presentation.
func applyOptions(ranked []Candidate, opts RankOptions) []Candidate {
	out := make([]Candidate, 0, len(ranked))
	for _, c := range ranked {
		if c.Score < opts.MinScore {
			continue
		}
		out = append(out, c)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out
}
