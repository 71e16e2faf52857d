package search

import (
	"sort"

	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
)

// Pipeline runs fetch results through normalize, geo filter, criteria filter
// and distance sort. It holds no state between searches; every invocation
// produces a fresh slice and never mutates its input.
type Pipeline struct {
	logger *zap.Logger
}

// NewPipeline constructs a search pipeline.
func NewPipeline(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{logger: logger}
}

// Search filters raw records down to the normalized matches. Both opts and
// geo are optional; nil means the corresponding step is skipped. A malformed
// record is logged and excluded rather than failing the whole search. The
// result is sorted ascending by distance when geo is applied (ties keep input
// order); otherwise input order is preserved.
func (p *Pipeline) Search(raws []models.RawInstructor, opts *models.FilterOptions, geo *models.GeoQuery) []models.Instructor {
	results := make([]models.Instructor, 0, len(raws))

	for _, raw := range raws {
		if raw.Status != models.StatusApproved {
			continue
		}

		inst := Normalize(raw)
		if inst.ID == "" && inst.Name == "" {
			p.logger.Warn("excluding malformed instructor record")
			continue
		}

		if geo != nil {
			if inst.Latitude == nil || inst.Longitude == nil {
				continue
			}
			d := DistanceKm(geo.Center, models.Coordinates{Latitude: *inst.Latitude, Longitude: *inst.Longitude})
			if d > geo.RadiusKm {
				continue
			}
			inst.DistanceKm = &d
		}

		if opts != nil && !Matches(inst, *opts) {
			continue
		}

		results = append(results, inst)
	}

	if geo != nil {
		sort.SliceStable(results, func(i, j int) bool {
			return *results[i].DistanceKm < *results[j].DistanceKm
		})
	}

	return results
}
