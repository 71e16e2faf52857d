// Package geocode resolves postal addresses to coordinates via a
// Nominatim-compatible forward geocoding service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/pkg/config"
)

// Client wraps the HTTP calls to the geocoding service. A zero-result lookup
// returns (nil, nil); callers treat a missing result as "search without
// radius filtering", never as fatal.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *zap.Logger
}

// NewClient builds a geocoding client from configuration.
func NewClient(cfg config.GeocoderConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

type geocodeResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode resolves an address to coordinates. Transport and decode failures
// return an error; an empty result set returns (nil, nil).
func (c *Client) Geocode(ctx context.Context, addr models.Address) (*models.Coordinates, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("limit", "1")
	if addr.City != "" {
		query.Set("city", addr.City)
	}
	if addr.State != "" {
		query.Set("state", addr.State)
	}
	if addr.Country != "" {
		query.Set("country", addr.Country)
	}
	if addr.PostalCode != "" {
		query.Set("postalcode", addr.PostalCode)
	}

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(results) == 0 {
		c.logger.Debug("geocode returned no results",
			zap.String("city", addr.City),
			zap.String("country", addr.Country),
		)
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse geocode latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse geocode longitude: %w", err)
	}

	return &models.Coordinates{Latitude: lat, Longitude: lon}, nil
}
