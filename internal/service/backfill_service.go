package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/pkg/config"
	"github.com/golflink/golflink-api/pkg/jobs"
)

const backfillBatchSize = 50

type backfillInstructorRepository interface {
	ListMissingCoordinates(ctx context.Context, limit int) ([]models.RawInstructor, error)
	UpdateCoordinates(ctx context.Context, id string, lat, lon float64) error
}

// BackfillService periodically geocodes instructors that have a location
// string but no stored coordinates, so they become visible to radius
// searches.
type BackfillService struct {
	repo     backfillInstructorRepository
	geocoder Geocoder
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      config.BackfillConfig

	queue *jobs.Queue
}

// NewBackfillService constructs a BackfillService.
func NewBackfillService(repo backfillInstructorRepository, geocoder Geocoder, metrics *MetricsService, logger *zap.Logger, cfg config.BackfillConfig) *BackfillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	s := &BackfillService{
		repo:     repo,
		geocoder: geocoder,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
	s.queue = jobs.NewQueue("geocode-backfill", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool and the periodic scan. It returns
// immediately; workers stop when ctx is cancelled.
func (s *BackfillService) Start(ctx context.Context) {
	if !s.cfg.Enabled || s.geocoder == nil {
		s.logger.Info("geocode backfill disabled")
		return
	}
	s.queue.Start(ctx)

	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.enqueueBatch(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.enqueueBatch(ctx)
			}
		}
	}()
}

// Stop drains the worker pool.
func (s *BackfillService) Stop() {
	s.queue.Stop()
}

// EnqueueInstructor schedules a single instructor for geocoding. The admin
// service calls it when an instructor without coordinates is approved or
// created, so the record does not wait for the next periodic sweep.
func (s *BackfillService) EnqueueInstructor(raw models.RawInstructor) error {
	if !s.cfg.Enabled || raw.Location == "" {
		return nil
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      raw.ID,
		Type:    "geocode",
		Payload: raw.Location,
	})
}

func (s *BackfillService) enqueueBatch(ctx context.Context) {
	raws, err := s.repo.ListMissingCoordinates(ctx, backfillBatchSize)
	if err != nil {
		s.logger.Error("failed to list instructors missing coordinates", zap.Error(err))
		return
	}
	for _, raw := range raws {
		if err := s.queue.Enqueue(jobs.Job{ID: raw.ID, Type: "geocode", Payload: raw.Location}); err != nil {
			s.logger.Warn("failed to enqueue geocode job", zap.String("instructor_id", raw.ID), zap.Error(err))
			return
		}
	}
	if len(raws) > 0 {
		s.logger.Info("enqueued geocode backfill batch",
			zap.Int("count", len(raws)), zap.Int("queue_depth", s.queue.Depth()))
	}
}

func (s *BackfillService) process(ctx context.Context, job jobs.Job) error {
	location, _ := job.Payload.(string)
	if location == "" {
		return nil
	}

	coords, err := s.geocoder.Geocode(ctx, parseLocation(location))
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordGeocode(false)
		}
		return fmt.Errorf("geocode %q: %w", location, err)
	}
	if coords == nil {
		// Unresolvable addresses are not retried.
		if s.metrics != nil {
			s.metrics.RecordGeocode(false)
		}
		s.logger.Info("location did not resolve, skipping",
			zap.String("instructor_id", job.ID), zap.String("location", location))
		return nil
	}
	if s.metrics != nil {
		s.metrics.RecordGeocode(true)
	}

	if err := s.repo.UpdateCoordinates(ctx, job.ID, coords.Latitude, coords.Longitude); err != nil {
		return fmt.Errorf("store coordinates for %s: %w", job.ID, err)
	}

	s.logger.Info("backfilled instructor coordinates",
		zap.String("instructor_id", job.ID),
		zap.Float64("latitude", coords.Latitude),
		zap.Float64("longitude", coords.Longitude))
	return nil
}

// parseLocation splits a free-text location like "Austin, TX" into the
// structured shape the geocoder expects.
func parseLocation(location string) models.Address {
	parts := strings.Split(location, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	addr := models.Address{City: parts[0]}
	if len(parts) > 1 {
		addr.State = parts[1]
	}
	if len(parts) > 2 {
		addr.Country = parts[2]
	}
	return addr
}
