package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/search"
	"github.com/golflink/golflink-api/pkg/config"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
)

type mockSearchRepo struct {
	approved []models.RawInstructor
	byID     map[string]*models.RawInstructor
	listErr  error
	calls    int
}

func (m *mockSearchRepo) ListApproved(ctx context.Context) ([]models.RawInstructor, error) {
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.approved, nil
}

func (m *mockSearchRepo) FindByID(ctx context.Context, id string) (*models.RawInstructor, error) {
	if raw, ok := m.byID[id]; ok {
		cp := *raw
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockGeocoder struct {
	coords *models.Coordinates
	err    error
	calls  int
}

func (m *mockGeocoder) Geocode(ctx context.Context, addr models.Address) (*models.Coordinates, error) {
	m.calls++
	return m.coords, m.err
}

func floatPtr(v float64) *float64 { return &v }

func approvedInstructor(id, name string, lat, lon float64, experience int) models.RawInstructor {
	return models.RawInstructor{
		ID:         id,
		Name:       name,
		Latitude:   floatPtr(lat),
		Longitude:  floatPtr(lon),
		Experience: experience,
		Status:     models.StatusApproved,
	}
}

func newSearchService(repo *mockSearchRepo, geocoder Geocoder) *SearchService {
	return NewSearchService(repo, geocoder, nil, nil, zap.NewNop(), config.SearchConfig{
		DefaultPageSize: 12,
		MaxPageSize:     50,
		MaxRadiusKm:     500,
		DefaultRadiusKm: 50,
	})
}

func TestSearchServiceReturnsPaginatedResults(t *testing.T) {
	repo := &mockSearchRepo{approved: []models.RawInstructor{
		approvedInstructor("i1", "Alpha", 51.5, -0.12, 3),
		approvedInstructor("i2", "Beta", 51.6, -0.13, 8),
		approvedInstructor("i3", "Gamma", 51.7, -0.14, 12),
	}}
	svc := newSearchService(repo, nil)

	page, _, err := svc.Search(context.Background(), SearchRequest{
		Filters:  search.DefaultFilterOptions(),
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
}

func TestSearchServiceAppliesFilters(t *testing.T) {
	repo := &mockSearchRepo{approved: []models.RawInstructor{
		approvedInstructor("i1", "Alpha", 51.5, -0.12, 3),
		approvedInstructor("i2", "Beta", 51.6, -0.13, 8),
	}}
	svc := newSearchService(repo, nil)

	opts := search.DefaultFilterOptions()
	opts.ExperienceMin = 5

	page, _, err := svc.Search(context.Background(), SearchRequest{Filters: opts})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Beta", page.Items[0].Name)
}

func TestSearchServiceGeocodesAddress(t *testing.T) {
	repo := &mockSearchRepo{approved: []models.RawInstructor{
		approvedInstructor("near", "Near", 51.5, -0.12, 3),
		approvedInstructor("far", "Far", 48.85, 2.35, 3),
	}}
	geocoder := &mockGeocoder{coords: &models.Coordinates{Latitude: 51.5, Longitude: -0.12}}
	svc := newSearchService(repo, geocoder)

	page, _, err := svc.Search(context.Background(), SearchRequest{
		Filters: search.DefaultFilterOptions(),
		Address: &models.Address{City: "London"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, geocoder.calls)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Near", page.Items[0].Name)
	require.NotNil(t, page.Items[0].DistanceKm)
}

func TestSearchServiceDegradesWhenGeocodeFails(t *testing.T) {
	repo := &mockSearchRepo{approved: []models.RawInstructor{
		approvedInstructor("i1", "Alpha", 51.5, -0.12, 3),
		approvedInstructor("i2", "Beta", 48.85, 2.35, 3),
	}}
	geocoder := &mockGeocoder{err: errors.New("upstream timeout")}
	svc := newSearchService(repo, geocoder)

	page, _, err := svc.Search(context.Background(), SearchRequest{
		Filters: search.DefaultFilterOptions(),
		Address: &models.Address{City: "Nowhere"},
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2, "failed geocode should fall back to a non-geographic search")
}

func TestSearchServiceClampsRadius(t *testing.T) {
	repo := &mockSearchRepo{approved: []models.RawInstructor{
		approvedInstructor("near", "Near", 51.5, -0.12, 3),
		// Paris is ~344 km from London, inside the clamped 500 km ceiling.
		approvedInstructor("paris", "Paris", 48.8566, 2.3522, 3),
	}}
	svc := newSearchService(repo, nil)

	page, _, err := svc.Search(context.Background(), SearchRequest{
		Filters: search.DefaultFilterOptions(),
		Geo: &models.GeoQuery{
			Center:   models.Coordinates{Latitude: 51.5074, Longitude: -0.1278},
			RadiusKm: 10_000,
		},
	})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestSearchServiceCapsPageSize(t *testing.T) {
	repo := &mockSearchRepo{}
	svc := newSearchService(repo, nil)

	page, _, err := svc.Search(context.Background(), SearchRequest{
		Filters:  search.DefaultFilterOptions(),
		PageSize: 9999,
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

type stubCacheRepo struct {
	store map[string][]byte
}

func (s *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	s.store[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	s.store = nil
	return nil
}

func TestSearchServiceServesFromCache(t *testing.T) {
	repo := &mockSearchRepo{approved: []models.RawInstructor{
		approvedInstructor("i1", "Alpha", 51.5, -0.12, 3),
	}}
	cache := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewSearchService(repo, nil, cache, nil, zap.NewNop(), config.SearchConfig{})

	req := SearchRequest{Filters: search.DefaultFilterOptions()}

	_, hit, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, repo.calls)

	page, hit, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, repo.calls, "second identical search is served from cache")
	assert.Len(t, page.Items, 1)

	svc.InvalidateCache(context.Background())
	_, hit, err = svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, repo.calls)
}

func TestSearchServiceGetInstructor(t *testing.T) {
	approved := approvedInstructor("i1", "Alpha", 51.5, -0.12, 5)
	pending := approvedInstructor("i2", "Beta", 51.6, -0.13, 5)
	pending.Status = models.StatusPending

	repo := &mockSearchRepo{byID: map[string]*models.RawInstructor{
		"i1": &approved,
		"i2": &pending,
	}}
	svc := newSearchService(repo, nil)

	inst, err := svc.GetInstructor(context.Background(), "i1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", inst.Name)
	assert.Equal(t, 75, inst.HourlyRate)

	_, err = svc.GetInstructor(context.Background(), "i2")
	require.Error(t, err, "pending instructors are not publicly visible")

	_, err = svc.GetInstructor(context.Background(), "missing")
	require.Error(t, err)
}
