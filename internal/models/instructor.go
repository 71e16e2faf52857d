package models

import "time"

// InstructorStatus tracks the review lifecycle of an instructor record.
type InstructorStatus string

const (
	StatusPending  InstructorStatus = "pending"
	StatusApproved InstructorStatus = "approved"
	StatusRejected InstructorStatus = "rejected"
)

// LessonType describes a single lesson offering with a coerced price.
type LessonType struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Price       float64 `json:"price"`
}

// RawLessonType is the loosely typed lesson offering as stored. Price may be
// a number, a numeric string, or a "$"-prefixed string.
type RawLessonType struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Duration    string      `json:"duration"`
	Price       interface{} `json:"price"`
}

// RawInstructor is an instructor record as it comes back from storage, shape
// loosely enforced. Legacy rows may carry `services` instead of
// `lesson_types`, string prices, or missing media fields. The search
// normalizer is the only place allowed to branch on this shape.
type RawInstructor struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	Email          string           `json:"email"`
	Phone          string           `json:"phone"`
	Bio            string           `json:"bio"`
	Location       string           `json:"location"`
	Latitude       *float64         `json:"latitude"`
	Longitude      *float64         `json:"longitude"`
	Experience     int              `json:"experience"`
	Specialization string           `json:"specialization"`
	Specialties    []string         `json:"specialties"`
	LessonTypes    []RawLessonType  `json:"lesson_types"`
	Services       interface{}      `json:"services"`
	Certifications []string         `json:"certifications"`
	Photos         []string         `json:"photos"`
	Status         InstructorStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// Instructor is the fully defaulted display shape produced by normalization.
// Slice fields are never nil and prices are always coerced numbers.
type Instructor struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	Bio            string           `json:"bio,omitempty"`
	Location       string           `json:"location"`
	Latitude       *float64         `json:"latitude,omitempty"`
	Longitude      *float64         `json:"longitude,omitempty"`
	Experience     int              `json:"experience"`
	Specialization string           `json:"specialization"`
	Specialties    []string         `json:"specialties"`
	LessonTypes    []LessonType     `json:"lesson_types"`
	Certifications []string         `json:"certifications"`
	Photos         []string         `json:"photos"`
	PrimaryPhoto   string           `json:"primary_photo"`
	HourlyRate     int              `json:"hourly_rate"`
	AveragePrice   int              `json:"average_price"`
	DistanceKm     *float64         `json:"distance_km,omitempty"`
	Status         InstructorStatus `json:"status"`
	CreatedAt      time.Time        `json:"created_at"`
}

// InstructorFilter captures admin listing options across all statuses.
type InstructorFilter struct {
	Status    *InstructorStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
