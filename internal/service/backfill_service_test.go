package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/pkg/config"
	"github.com/golflink/golflink-api/pkg/jobs"
)

type mockBackfillRepo struct {
	mu      sync.Mutex
	missing []models.RawInstructor
	updated map[string]models.Coordinates
}

func (m *mockBackfillRepo) ListMissingCoordinates(ctx context.Context, limit int) ([]models.RawInstructor, error) {
	return m.missing, nil
}

func (m *mockBackfillRepo) UpdateCoordinates(ctx context.Context, id string, lat, lon float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updated == nil {
		m.updated = make(map[string]models.Coordinates)
	}
	m.updated[id] = models.Coordinates{Latitude: lat, Longitude: lon}
	return nil
}

func (m *mockBackfillRepo) updatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.updated)
}

func TestBackfillProcessStoresCoordinates(t *testing.T) {
	repo := &mockBackfillRepo{}
	geocoder := &mockGeocoder{coords: &models.Coordinates{Latitude: 39.74, Longitude: -104.99}}
	svc := NewBackfillService(repo, geocoder, nil, zap.NewNop(), config.BackfillConfig{Enabled: true})

	err := svc.process(context.Background(), jobs.Job{ID: "i1", Type: "geocode", Payload: "Denver, CO"})
	require.NoError(t, err)
	require.Contains(t, repo.updated, "i1")
	assert.InDelta(t, 39.74, repo.updated["i1"].Latitude, 1e-9)
}

func TestBackfillProcessSkipsUnresolvable(t *testing.T) {
	repo := &mockBackfillRepo{}
	geocoder := &mockGeocoder{}
	svc := NewBackfillService(repo, geocoder, nil, zap.NewNop(), config.BackfillConfig{Enabled: true})

	err := svc.process(context.Background(), jobs.Job{ID: "i1", Type: "geocode", Payload: "Atlantis"})
	require.NoError(t, err, "unresolvable locations must not trigger retries")
	assert.Empty(t, repo.updated)
}

func TestBackfillProcessRetriesOnError(t *testing.T) {
	repo := &mockBackfillRepo{}
	geocoder := &mockGeocoder{err: errors.New("rate limited")}
	svc := NewBackfillService(repo, geocoder, nil, zap.NewNop(), config.BackfillConfig{Enabled: true})

	err := svc.process(context.Background(), jobs.Job{ID: "i1", Type: "geocode", Payload: "Denver, CO"})
	require.Error(t, err)
	assert.Empty(t, repo.updated)
}

func TestBackfillEnqueueDisabled(t *testing.T) {
	svc := NewBackfillService(&mockBackfillRepo{}, &mockGeocoder{}, nil, zap.NewNop(), config.BackfillConfig{Enabled: false})
	require.NoError(t, svc.EnqueueInstructor(models.RawInstructor{ID: "i1", Location: "Denver, CO"}))
}

func TestBackfillStartProcessesBatch(t *testing.T) {
	repo := &mockBackfillRepo{missing: []models.RawInstructor{
		{ID: "i1", Location: "Denver, CO", Status: models.StatusApproved},
	}}
	geocoder := &mockGeocoder{coords: &models.Coordinates{Latitude: 39.74, Longitude: -104.99}}
	svc := NewBackfillService(repo, geocoder, nil, zap.NewNop(), config.BackfillConfig{
		Enabled:  true,
		Workers:  1,
		Interval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	defer svc.Stop()

	require.Eventually(t, func() bool {
		return repo.updatedCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestParseLocation(t *testing.T) {
	addr := parseLocation("Denver, CO, USA")
	assert.Equal(t, "Denver", addr.City)
	assert.Equal(t, "CO", addr.State)
	assert.Equal(t, "USA", addr.Country)

	addr = parseLocation("Denver")
	assert.Equal(t, "Denver", addr.City)
	assert.Empty(t, addr.State)
}
