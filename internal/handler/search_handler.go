package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/golflink/golflink-api/internal/middleware"
	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/search"
	"github.com/golflink/golflink-api/internal/service"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
	"github.com/golflink/golflink-api/pkg/response"
)

type searchService interface {
	Search(ctx context.Context, req service.SearchRequest) (*models.InstructorPage, bool, error)
	GetInstructor(ctx context.Context, id string) (*models.Instructor, error)
}

// SearchHandler exposes the public instructor directory.
type SearchHandler struct {
	service searchService
}

// NewSearchHandler constructs the handler.
func NewSearchHandler(service searchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// List godoc
// @Summary Search approved instructors
// @Description Filter the public directory by criteria, optionally constrained to a radius around a point or a geocoded address
// @Tags Instructors
// @Produce json
// @Param experience_min query int false "Minimum years of experience"
// @Param experience_max query int false "Maximum years of experience"
// @Param price_min query number false "Minimum price"
// @Param price_max query number false "Maximum price"
// @Param specializations query string false "Comma-separated specializations"
// @Param certificates query string false "Comma-separated certificates"
// @Param lesson_types query string false "Comma-separated lesson types"
// @Param lat query number false "Center latitude"
// @Param lon query number false "Center longitude"
// @Param radius_km query number false "Search radius in kilometers"
// @Param city query string false "Address city (geocoded when no lat/lon)"
// @Param state query string false "Address state"
// @Param country query string false "Address country"
// @Param postal_code query string false "Address postal code"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /instructors [get]
func (h *SearchHandler) List(c *gin.Context) {
	req, err := parseSearchRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	start := time.Now()
	page, cacheHit, err := h.service.Search(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	middleware.SetMetaValue(c, "processing_time_ms", time.Since(start).Milliseconds())

	response.JSON(c, http.StatusOK, page, nil, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get approved instructor profile
// @Tags Instructors
// @Produce json
// @Param id path string true "Instructor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /instructors/{id} [get]
func (h *SearchHandler) Get(c *gin.Context) {
	inst, err := h.service.GetInstructor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}

// parseSearchRequest builds a search request from query parameters. Criteria
// that are absent keep their open-ended defaults so only the caller's
// explicit constraints filter the directory.
func parseSearchRequest(c *gin.Context) (service.SearchRequest, error) {
	req := service.SearchRequest{Filters: search.DefaultFilterOptions()}

	if v, ok, err := intParam(c, "experience_min"); err != nil {
		return req, err
	} else if ok {
		req.Filters.ExperienceMin = v
	}
	if v, ok, err := intParam(c, "experience_max"); err != nil {
		return req, err
	} else if ok {
		req.Filters.ExperienceMax = v
	}
	if v, ok, err := floatParam(c, "price_min"); err != nil {
		return req, err
	} else if ok {
		req.Filters.PriceMin = v
	}
	if v, ok, err := floatParam(c, "price_max"); err != nil {
		return req, err
	} else if ok {
		req.Filters.PriceMax = v
	}
	req.Filters.Specializations = csvParam(c, "specializations")
	req.Filters.Certificates = csvParam(c, "certificates")
	req.Filters.LessonTypes = csvParam(c, "lesson_types")

	if v, ok, err := floatParam(c, "radius_km"); err != nil {
		return req, err
	} else if ok {
		req.RadiusKm = v
	}

	lat, hasLat, err := floatParam(c, "lat")
	if err != nil {
		return req, err
	}
	lon, hasLon, err := floatParam(c, "lon")
	if err != nil {
		return req, err
	}
	switch {
	case hasLat != hasLon:
		return req, appErrors.Clone(appErrors.ErrValidation, "lat and lon must be provided together")
	case hasLat:
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return req, appErrors.Clone(appErrors.ErrValidation, "lat/lon out of range")
		}
		req.Geo = &models.GeoQuery{
			Center:   models.Coordinates{Latitude: lat, Longitude: lon},
			RadiusKm: req.RadiusKm,
		}
	default:
		addr := models.Address{
			City:       strings.TrimSpace(c.Query("city")),
			State:      strings.TrimSpace(c.Query("state")),
			Country:    strings.TrimSpace(c.Query("country")),
			PostalCode: strings.TrimSpace(c.Query("postal_code")),
		}
		if addr != (models.Address{}) {
			req.Address = &addr
		}
	}

	if v, ok, err := intParam(c, "page"); err != nil {
		return req, err
	} else if ok {
		req.Page = v
	}
	if v, ok, err := intParam(c, "limit"); err != nil {
		return req, err
	} else if ok {
		req.PageSize = v
	}

	return req, nil
}

func intParam(c *gin.Context, name string) (int, bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, appErrors.Clone(appErrors.ErrValidation, name+" must be an integer")
	}
	return v, true, nil
}

func floatParam(c *gin.Context, name string) (float64, bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, appErrors.Clone(appErrors.ErrValidation, name+" must be a number")
	}
	return v, true, nil
}

func csvParam(c *gin.Context, name string) []string {
	raw := c.Query(name)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
