package search

import "github.com/golflink/golflink-api/internal/models"

// Paginate slices a filtered result set into one page. The page number is
// clamped to [1, totalPages] and a non-positive page size is treated as 1.
func Paginate(items []models.Instructor, pageSize, pageNumber int) models.InstructorPage {
	if pageSize <= 0 {
		pageSize = 1
	}

	totalPages := (len(items) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if pageNumber < 1 {
		pageNumber = 1
	}
	if pageNumber > totalPages {
		pageNumber = totalPages
	}

	start := (pageNumber - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return models.InstructorPage{
		Items:       items[start:end],
		CurrentPage: pageNumber,
		TotalPages:  totalPages,
		TotalCount:  len(items),
	}
}
