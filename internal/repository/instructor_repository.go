package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/golflink/golflink-api/internal/models"
)

const instructorColumns = "id, name, first_name, last_name, email, phone, bio, location, latitude, longitude, experience, specialization, specialties, certifications, lesson_types, services, photos, status, created_at, updated_at"

// instructorRow mirrors the instructors table. Legacy rows keep loosely
// typed JSONB payloads; conversion to models.RawInstructor is the only place
// they are decoded.
type instructorRow struct {
	ID             string          `db:"id"`
	Name           sql.NullString  `db:"name"`
	FirstName      sql.NullString  `db:"first_name"`
	LastName       sql.NullString  `db:"last_name"`
	Email          sql.NullString  `db:"email"`
	Phone          sql.NullString  `db:"phone"`
	Bio            sql.NullString  `db:"bio"`
	Location       sql.NullString  `db:"location"`
	Latitude       sql.NullFloat64 `db:"latitude"`
	Longitude      sql.NullFloat64 `db:"longitude"`
	Experience     int             `db:"experience"`
	Specialization sql.NullString  `db:"specialization"`
	Specialties    pq.StringArray  `db:"specialties"`
	Certifications pq.StringArray  `db:"certifications"`
	LessonTypes    []byte          `db:"lesson_types"`
	Services       []byte          `db:"services"`
	Photos         pq.StringArray  `db:"photos"`
	Status         string          `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// InstructorRepository manages persistence for instructor records.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs an InstructorRepository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// ListApproved returns every approved instructor. The search pipeline
// filters client-side, so this fetch is intentionally broad.
func (r *InstructorRepository) ListApproved(ctx context.Context) ([]models.RawInstructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors WHERE status = $1 ORDER BY created_at DESC", instructorColumns)
	var rows []instructorRow
	if err := r.db.SelectContext(ctx, &rows, query, models.StatusApproved); err != nil {
		return nil, fmt.Errorf("list approved instructors: %w", err)
	}
	return rowsToRaw(rows), nil
}

// List returns instructors matching the admin filter along with total count.
func (r *InstructorRepository) List(ctx context.Context, filter models.InstructorFilter) ([]models.RawInstructor, int, error) {
	base := "FROM instructors WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(COALESCE(name, '')) LIKE $%d OR LOWER(COALESCE(first_name, '') || ' ' || COALESCE(last_name, '')) LIKE $%d OR LOWER(COALESCE(email, '')) LIKE $%d OR LOWER(COALESCE(location, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "name",
		"experience": "experience",
		"status":     "status",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", instructorColumns, base, column, order, size, offset)
	var rows []instructorRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list instructors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count instructors: %w", err)
	}

	return rowsToRaw(rows), total, nil
}

// FindByID fetches an instructor by ID.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.RawInstructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors WHERE id = $1", instructorColumns)
	var row instructorRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	raw := rowToRaw(row)
	return &raw, nil
}

// ListMissingCoordinates returns approved instructors with a location string
// but no stored coordinates, for the geocode backfill.
func (r *InstructorRepository) ListMissingCoordinates(ctx context.Context, limit int) ([]models.RawInstructor, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf("SELECT %s FROM instructors WHERE status = $1 AND COALESCE(location, '') <> '' AND (latitude IS NULL OR longitude IS NULL) ORDER BY updated_at ASC LIMIT %d", instructorColumns, limit)
	var rows []instructorRow
	if err := r.db.SelectContext(ctx, &rows, query, models.StatusApproved); err != nil {
		return nil, fmt.Errorf("list instructors missing coordinates: %w", err)
	}
	return rowsToRaw(rows), nil
}

// Create inserts a new instructor record.
func (r *InstructorRepository) Create(ctx context.Context, raw *models.RawInstructor) error {
	if raw.ID == "" {
		raw.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if raw.CreatedAt.IsZero() {
		raw.CreatedAt = now
	}
	raw.UpdatedAt = now

	lessonTypes, err := json.Marshal(raw.LessonTypes)
	if err != nil {
		return fmt.Errorf("marshal lesson types: %w", err)
	}

	const query = `INSERT INTO instructors
		(id, name, first_name, last_name, email, phone, bio, location, latitude, longitude, experience, specialization, specialties, certifications, lesson_types, photos, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	if _, err := r.db.ExecContext(ctx, query,
		raw.ID, raw.Name, raw.FirstName, raw.LastName, raw.Email, raw.Phone, raw.Bio, raw.Location,
		raw.Latitude, raw.Longitude, raw.Experience, raw.Specialization,
		pq.Array(raw.Specialties), pq.Array(raw.Certifications), lessonTypes, pq.Array(raw.Photos),
		raw.Status, raw.CreatedAt, raw.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// Update modifies an existing instructor record.
func (r *InstructorRepository) Update(ctx context.Context, raw *models.RawInstructor) error {
	raw.UpdatedAt = time.Now().UTC()

	lessonTypes, err := json.Marshal(raw.LessonTypes)
	if err != nil {
		return fmt.Errorf("marshal lesson types: %w", err)
	}

	// services is cleared on every edit: the structured lesson_types list is
	// authoritative and a stale legacy payload would resurrect deleted
	// offerings on the next read.
	const query = `UPDATE instructors SET
		name = $2, first_name = $3, last_name = $4, email = $5, phone = $6, bio = $7, location = $8,
		latitude = $9, longitude = $10, experience = $11, specialization = $12,
		specialties = $13, certifications = $14, lesson_types = $15, services = NULL, photos = $16, status = $17, updated_at = $18
		WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query,
		raw.ID, raw.Name, raw.FirstName, raw.LastName, raw.Email, raw.Phone, raw.Bio, raw.Location,
		raw.Latitude, raw.Longitude, raw.Experience, raw.Specialization,
		pq.Array(raw.Specialties), pq.Array(raw.Certifications), lessonTypes, pq.Array(raw.Photos),
		raw.Status, raw.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	return nil
}

// UpdateStatus transitions an instructor's review status.
func (r *InstructorRepository) UpdateStatus(ctx context.Context, id string, status models.InstructorStatus) error {
	const query = `UPDATE instructors SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update instructor status: %w", err)
	}
	return nil
}

// UpdateCoordinates stores geocoded coordinates for an instructor.
func (r *InstructorRepository) UpdateCoordinates(ctx context.Context, id string, lat, lon float64) error {
	const query = `UPDATE instructors SET latitude = $2, longitude = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, lat, lon, time.Now().UTC()); err != nil {
		return fmt.Errorf("update instructor coordinates: %w", err)
	}
	return nil
}

// Delete removes an instructor record permanently.
func (r *InstructorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM instructors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete instructor: %w", err)
	}
	return nil
}

func rowsToRaw(rows []instructorRow) []models.RawInstructor {
	out := make([]models.RawInstructor, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowToRaw(row))
	}
	return out
}

func rowToRaw(row instructorRow) models.RawInstructor {
	raw := models.RawInstructor{
		ID:             row.ID,
		Name:           row.Name.String,
		FirstName:      row.FirstName.String,
		LastName:       row.LastName.String,
		Email:          row.Email.String,
		Phone:          row.Phone.String,
		Bio:            row.Bio.String,
		Location:       row.Location.String,
		Experience:     row.Experience,
		Specialization: row.Specialization.String,
		Specialties:    row.Specialties,
		Certifications: row.Certifications,
		Photos:         row.Photos,
		Status:         models.InstructorStatus(row.Status),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if row.Latitude.Valid {
		lat := row.Latitude.Float64
		raw.Latitude = &lat
	}
	if row.Longitude.Valid {
		lon := row.Longitude.Float64
		raw.Longitude = &lon
	}
	if len(row.LessonTypes) > 0 {
		// Tolerate undecodable payloads; the normalizer treats the record
		// as having no lesson data.
		_ = json.Unmarshal(row.LessonTypes, &raw.LessonTypes)
	}
	if len(row.Services) > 0 {
		_ = json.Unmarshal(row.Services, &raw.Services)
	}
	return raw
}
