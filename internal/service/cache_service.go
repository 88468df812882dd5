package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

// CacheRepository is the key/value store behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// complianceCachePattern matches every cached compliance payload.
const complianceCachePattern = "compliance:*"

// CacheService fronts the compliance summary cache. Without a store it acts as a permanent miss.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewCacheService constructs a cache service. A disabled cache drops repo.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if !enabled {
		repo = nil
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: defaultTTL, logger: logger}
}

// Enabled reports whether a store is attached.
func (s *CacheService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Get decodes key into dest. A miss is (false, nil); store failures come back as errors so the
// caller decides whether to fall through to the database.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	}
	s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	return false, err
}

// Set stores value under key; ttl <= 0 uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes every key matching pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	return s.repo.DeleteByPattern(ctx, pattern)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// invalidateCompliance drops cached compliance payloads after a mutation. Failures only log;
// cached summaries are keyed by day and expire on their own.
func invalidateCompliance(ctx context.Context, cache cacheInvalidator, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, complianceCachePattern); err != nil && logger != nil {
		logger.Warn("compliance cache invalidation failed", zap.Error(err))
	}
}
