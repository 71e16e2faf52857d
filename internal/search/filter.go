package search

import (
	"strings"

	"github.com/golflink/golflink-api/internal/models"
)

// Open-ended defaults for criteria the caller leaves unspecified.
const (
	MaxExperienceYears = 100
	MaxPriceCeiling    = 1_000_000
)

// DefaultFilterOptions returns criteria that match every approved record.
func DefaultFilterOptions() models.FilterOptions {
	return models.FilterOptions{
		ExperienceMin: 0,
		ExperienceMax: MaxExperienceYears,
		PriceMin:      0,
		PriceMax:      MaxPriceCeiling,
	}
}

// Matches reports whether a normalized instructor satisfies the criteria set.
// Criteria are AND-combined; within a criterion, any selected token matching
// is enough. An inverted range matches nothing.
func Matches(inst models.Instructor, opts models.FilterOptions) bool {
	if opts.ExperienceMin > opts.ExperienceMax || opts.PriceMin > opts.PriceMax {
		return false
	}

	if inst.Experience < opts.ExperienceMin || inst.Experience > opts.ExperienceMax {
		return false
	}

	price := float64(inst.AveragePrice)
	if inst.AveragePrice == 0 && len(inst.LessonTypes) == 0 {
		price = float64(inst.HourlyRate)
	}
	if price < opts.PriceMin || price > opts.PriceMax {
		return false
	}

	if !matchesSpecializations(inst, opts.Specializations) {
		return false
	}
	if !matchesCertificates(inst, opts.Certificates) {
		return false
	}
	if !matchesLessonTypes(inst, opts.LessonTypes) {
		return false
	}

	return true
}

func matchesSpecializations(inst models.Instructor, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	specialization := strings.ToLower(inst.Specialization)
	for _, label := range selected {
		token := strings.ToLower(strings.TrimSpace(label))
		if token == "" {
			continue
		}
		if specialization != "" && strings.Contains(specialization, token) {
			return true
		}
		for _, specialty := range inst.Specialties {
			if strings.EqualFold(strings.TrimSpace(specialty), strings.TrimSpace(label)) {
				return true
			}
		}
	}
	return false
}

func matchesCertificates(inst models.Instructor, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, label := range selected {
		token := strings.ToLower(strings.TrimSpace(label))
		if token == "" {
			continue
		}
		for _, cert := range inst.Certifications {
			if strings.Contains(strings.ToLower(cert), token) {
				return true
			}
		}
	}
	return false
}

// matchesLessonTypes fails closed: a record with no lesson types never
// matches a non-empty lesson-type filter.
func matchesLessonTypes(inst models.Instructor, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, label := range selected {
		token := strings.ToLower(strings.TrimSpace(label))
		if token == "" {
			continue
		}
		for _, lt := range inst.LessonTypes {
			if strings.Contains(strings.ToLower(lt.Title), token) {
				return true
			}
		}
	}
	return false
}
