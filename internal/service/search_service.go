package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/search"
	"github.com/golflink/golflink-api/pkg/config"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
)

const searchCacheKeyPrefix = "search:instructors:"

// searchInstructorRepository abstracts instructor reads for the public search.
type searchInstructorRepository interface {
	ListApproved(ctx context.Context) ([]models.RawInstructor, error)
	FindByID(ctx context.Context, id string) (*models.RawInstructor, error)
}

// Geocoder resolves a structured address to coordinates. A nil result with a
// nil error means the address could not be resolved.
type Geocoder interface {
	Geocode(ctx context.Context, addr models.Address) (*models.Coordinates, error)
}

// SearchRequest carries the parsed query for a directory search.
type SearchRequest struct {
	Filters  models.FilterOptions
	Geo      *models.GeoQuery
	Address  *models.Address
	RadiusKm float64
	Page     int
	PageSize int
}

// SearchService runs the public instructor search: optional address
// geocoding, the filter pipeline, then pagination.
type SearchService struct {
	repo     searchInstructorRepository
	geocoder Geocoder
	pipeline *search.Pipeline
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      config.SearchConfig
}

// NewSearchService constructs a SearchService.
func NewSearchService(repo searchInstructorRepository, geocoder Geocoder, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg config.SearchConfig) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 12
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 50
	}
	if cfg.MaxRadiusKm <= 0 {
		cfg.MaxRadiusKm = 500
	}
	if cfg.DefaultRadiusKm <= 0 {
		cfg.DefaultRadiusKm = 50
	}
	return &SearchService{
		repo:     repo,
		geocoder: geocoder,
		pipeline: search.NewPipeline(logger),
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Search resolves the request's geography, runs the pipeline over approved
// instructors and returns the requested page plus whether it was served from
// cache. A failed or empty geocode degrades to a non-geographic search
// instead of failing the request.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*models.InstructorPage, bool, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = s.cfg.DefaultPageSize
	}
	if req.PageSize > s.cfg.MaxPageSize {
		req.PageSize = s.cfg.MaxPageSize
	}

	geo := req.Geo
	if geo == nil && req.Address != nil {
		geo = s.resolveAddress(ctx, *req.Address, req.RadiusKm)
	}
	if geo != nil {
		geo.RadiusKm = s.clampRadius(geo.RadiusKm)
	}

	key := s.cacheKey(req, geo)
	if s.cache.Enabled() {
		var cached models.InstructorPage
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	raws, err := s.repo.ListApproved(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors")
	}

	start := time.Now()
	matched := s.pipeline.Search(raws, &req.Filters, geo)
	if s.metrics != nil {
		s.metrics.ObserveSearch(time.Since(start))
	}

	page := search.Paginate(matched, req.PageSize, req.Page)

	if err := s.cache.Set(ctx, key, page, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("failed to cache search results", zap.Error(err))
	}

	return &page, false, nil
}

// GetInstructor returns a single approved instructor in normalized form.
func (s *SearchService) GetInstructor(ctx context.Context, id string) (*models.Instructor, error) {
	raw, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if raw.Status != models.StatusApproved {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	inst := search.Normalize(*raw)
	return &inst, nil
}

// InvalidateCache drops cached search pages after instructor data changes.
func (s *SearchService) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, searchCacheKeyPrefix+"*"); err != nil {
		s.logger.Warn("failed to invalidate search cache", zap.Error(err))
	}
}

func (s *SearchService) resolveAddress(ctx context.Context, addr models.Address, radiusKm float64) *models.GeoQuery {
	if s.geocoder == nil {
		return nil
	}
	coords, err := s.geocoder.Geocode(ctx, addr)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordGeocode(false)
		}
		s.logger.Warn("geocoding failed, falling back to non-geographic search",
			zap.String("city", addr.City), zap.Error(err))
		return nil
	}
	if coords == nil {
		if s.metrics != nil {
			s.metrics.RecordGeocode(false)
		}
		s.logger.Info("address did not resolve to coordinates", zap.String("city", addr.City))
		return nil
	}
	if s.metrics != nil {
		s.metrics.RecordGeocode(true)
	}
	if radiusKm <= 0 {
		radiusKm = s.cfg.DefaultRadiusKm
	}
	return &models.GeoQuery{Center: *coords, RadiusKm: radiusKm}
}

func (s *SearchService) clampRadius(radiusKm float64) float64 {
	if radiusKm <= 0 {
		return s.cfg.DefaultRadiusKm
	}
	if radiusKm > s.cfg.MaxRadiusKm {
		return s.cfg.MaxRadiusKm
	}
	return radiusKm
}

func (s *SearchService) cacheKey(req SearchRequest, geo *models.GeoQuery) string {
	payload := struct {
		Filters  models.FilterOptions `json:"filters"`
		Geo      *models.GeoQuery     `json:"geo,omitempty"`
		Page     int                  `json:"page"`
		PageSize int                  `json:"page_size"`
	}{req.Filters, geo, req.Page, req.PageSize}

	raw, err := json.Marshal(payload)
	if err != nil {
		return searchCacheKeyPrefix + "default"
	}
	sum := sha256.Sum256(raw)
	return searchCacheKeyPrefix + hex.EncodeToString(sum[:])
}
