package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lms-availability-api/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTripAndInvalidate(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	key := AvailabilityCacheKey("cal-1", "month", "2025-03")
	assert.Equal(t, "availability:cal-1:month:2025-03", key)

	var out map[string]int
	assert.False(t, svc.Get(ctx, key, &out))

	svc.Set(ctx, key, map[string]int{"days": 31}, 0)
	svc.Set(ctx, AvailabilityCacheKey("cal-2", "month", "2025-03"), map[string]int{"days": 31}, 0)
	require.True(t, svc.Get(ctx, key, &out))
	assert.Equal(t, 31, out["days"])

	require.NoError(t, svc.InvalidateCalendar(ctx, "cal-1"))
	assert.False(t, svc.Get(ctx, key, &out))
	assert.True(t, svc.Get(ctx, AvailabilityCacheKey("cal-2", "month", "2025-03"), &out))
}

func TestCacheServiceTreatsBackendErrorsAsMiss(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("connection reset")
	svc := NewCacheService(repo, nil, 0, nil, true)

	var out map[string]int
	assert.False(t, svc.Get(context.Background(), "k", &out))
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, false)
	svc.Set(context.Background(), "k", 1, 0)
	assert.Empty(t, repo.data)
	assert.False(t, svc.Enabled())

	var nilSvc *CacheService
	assert.False(t, nilSvc.Get(context.Background(), "k", new(int)))
	assert.NoError(t, nilSvc.InvalidateCalendar(context.Background(), "cal-1"))
}
