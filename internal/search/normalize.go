package search

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/golflink/golflink-api/internal/models"
)

// FallbackPhotoURL is the placeholder used when a record carries no usable
// photo. It must stay identical across call sites.
const FallbackPhotoURL = "https://static.golflink.example/img/instructor-placeholder.png"

const baseHourlyRate = 50.0

// Normalize maps a loosely typed instructor record into the fully defaulted
// display shape. It is total: any input, including the zero value, yields a
// record with non-nil slices and coerced numbers.
func Normalize(raw models.RawInstructor) models.Instructor {
	inst := models.Instructor{
		ID:             raw.ID,
		Name:           resolveName(raw),
		Email:          strings.TrimSpace(raw.Email),
		Phone:          strings.TrimSpace(raw.Phone),
		Bio:            raw.Bio,
		Location:       strings.TrimSpace(raw.Location),
		Latitude:       raw.Latitude,
		Longitude:      raw.Longitude,
		Experience:     raw.Experience,
		Specialization: strings.TrimSpace(raw.Specialization),
		Specialties:    cleanStrings(raw.Specialties),
		Certifications: cleanStrings(raw.Certifications),
		Status:         raw.Status,
		CreatedAt:      raw.CreatedAt,
	}
	if inst.Experience < 0 {
		inst.Experience = 0
	}

	inst.Photos = cleanStrings(raw.Photos)
	if len(inst.Photos) == 0 {
		inst.Photos = []string{FallbackPhotoURL}
	}
	inst.PrimaryPhoto = inst.Photos[0]

	inst.LessonTypes = resolveLessonTypes(raw)
	inst.AveragePrice = averagePrice(inst.LessonTypes)
	inst.HourlyRate = int(math.Round(baseHourlyRate * (1 + float64(inst.Experience)/10)))

	return inst
}

// CoercePrice converts a price of any stored shape (number, numeric string,
// "$"-prefixed string) into a float64, defaulting to 0 when unparseable.
func CoercePrice(value interface{}) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	case float32:
		return CoercePrice(float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		cleaned := stripNonNumeric(v)
		if cleaned == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func resolveName(raw models.RawInstructor) string {
	if name := strings.TrimSpace(raw.Name); name != "" {
		return name
	}
	joined := strings.TrimSpace(strings.TrimSpace(raw.FirstName) + " " + strings.TrimSpace(raw.LastName))
	return joined
}

// resolveLessonTypes prefers the lesson_types column and falls back to the
// legacy services field, which may be an array or a keyed object. Keyed
// entries are taken in key order so the result is deterministic; entries
// without a usable title are dropped.
func resolveLessonTypes(raw models.RawInstructor) []models.LessonType {
	if len(raw.LessonTypes) > 0 {
		out := make([]models.LessonType, 0, len(raw.LessonTypes))
		for _, lt := range raw.LessonTypes {
			title := strings.TrimSpace(lt.Title)
			if title == "" {
				continue
			}
			out = append(out, models.LessonType{
				Title:       title,
				Description: lt.Description,
				Duration:    lt.Duration,
				Price:       CoercePrice(lt.Price),
			})
		}
		return out
	}

	switch services := raw.Services.(type) {
	case []interface{}:
		out := make([]models.LessonType, 0, len(services))
		for _, entry := range services {
			if lt, ok := lessonTypeFromEntry(entry); ok {
				out = append(out, lt)
			}
		}
		return out
	case map[string]interface{}:
		keys := make([]string, 0, len(services))
		for k := range services {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]models.LessonType, 0, len(services))
		for _, k := range keys {
			if lt, ok := lessonTypeFromEntry(services[k]); ok {
				out = append(out, lt)
			}
		}
		return out
	default:
		return []models.LessonType{}
	}
}

func lessonTypeFromEntry(entry interface{}) (models.LessonType, bool) {
	fields, ok := entry.(map[string]interface{})
	if !ok {
		return models.LessonType{}, false
	}
	title, _ := fields["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return models.LessonType{}, false
	}
	description, _ := fields["description"].(string)
	duration, _ := fields["duration"].(string)
	return models.LessonType{
		Title:       title,
		Description: description,
		Duration:    duration,
		Price:       CoercePrice(fields["price"]),
	}, true
}

func averagePrice(lessonTypes []models.LessonType) int {
	if len(lessonTypes) == 0 {
		return 0
	}
	var sum float64
	for _, lt := range lessonTypes {
		sum += lt.Price
	}
	return int(math.Round(sum / float64(len(lessonTypes))))
}

func cleanStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
