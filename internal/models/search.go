package models

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// GeoQuery constrains a search to a radius around a center point. Records
// without coordinates are excluded from geo-constrained results.
type GeoQuery struct {
	Center   Coordinates `json:"center"`
	RadiusKm float64     `json:"radius_km"`
}

// FilterOptions is the per-search criteria set. Empty slices impose no
// constraint for their criterion. Ranges are inclusive on both ends; an
// inverted range matches nothing.
type FilterOptions struct {
	ExperienceMin   int      `json:"experience_min"`
	ExperienceMax   int      `json:"experience_max"`
	PriceMin        float64  `json:"price_min"`
	PriceMax        float64  `json:"price_max"`
	Specializations []string `json:"specializations"`
	Certificates    []string `json:"certificates"`
	LessonTypes     []string `json:"lesson_types"`
}

// Address is a postal address submitted for forward geocoding.
type Address struct {
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code"`
}

// InstructorPage is one page of search results.
type InstructorPage struct {
	Items       []Instructor `json:"items"`
	CurrentPage int          `json:"current_page"`
	TotalPages  int          `json:"total_pages"`
	TotalCount  int          `json:"total_count"`
}
