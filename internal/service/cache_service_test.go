package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-compliance-api/internal/dto"
	appErrors "github.com/noah-isme/fleet-compliance-api/pkg/errors"
)

type memCacheRepo struct {
	values   map[string][]byte
	ttls     map[string]time.Duration
	getErr   error
	deleted  []string
	setCalls int
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalls++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	m.values = map[string][]byte{}
	return nil
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := newMemCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)
	ctx := context.Background()
	key := "compliance:summary:c1:2026-03-01"

	var summary dto.ComplianceSummary
	hit, err := svc.Get(ctx, key, &summary)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, key, dto.ComplianceSummary{CompanyID: "c1", AsOf: "2026-03-01"}, 0))
	assert.Equal(t, 5*time.Minute, repo.ttls[key])

	hit, err = svc.Get(ctx, key, &summary)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "c1", summary.CompanyID)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))

	invalidateCompliance(ctx, svc, nil)
	assert.Equal(t, []string{complianceCachePattern}, repo.deleted)
	hit, _ = svc.Get(ctx, key, &summary)
	assert.False(t, hit)
}

func TestCacheServiceReadFailure(t *testing.T) {
	repo := newMemCacheRepo()
	repo.getErr = errors.New("redis timeout")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var summary dto.ComplianceSummary
	hit, err := svc.Get(context.Background(), "compliance:summary:all:2026-03-01", &summary)
	assert.False(t, hit)
	assert.EqualError(t, err, "redis timeout")
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	ctx := context.Background()

	assert.False(t, svc.Enabled())
	require.NoError(t, svc.Set(ctx, "k", "v", 0))
	assert.Zero(t, repo.setCalls)
	hit, err := svc.Get(ctx, "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Invalidate(ctx, complianceCachePattern))
	assert.Empty(t, repo.deleted)

	assert.False(t, NewCacheService(nil, nil, 0, nil, true).Enabled())
}
