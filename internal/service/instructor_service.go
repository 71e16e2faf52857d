package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/search"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.RawInstructor, int, error)
	FindByID(ctx context.Context, id string) (*models.RawInstructor, error)
	Create(ctx context.Context, raw *models.RawInstructor) error
	Update(ctx context.Context, raw *models.RawInstructor) error
	UpdateStatus(ctx context.Context, id string, status models.InstructorStatus) error
	Delete(ctx context.Context, id string) error
}

type auditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type searchCacheInvalidator interface {
	InvalidateCache(ctx context.Context)
}

type geocodeScheduler interface {
	EnqueueInstructor(raw models.RawInstructor) error
}

// ActorMeta identifies the admin performing a mutation for the audit trail.
type ActorMeta struct {
	UserID    string
	IP        string
	UserAgent string
}

// LessonTypeInput is a lesson offering in admin payloads.
type LessonTypeInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"omitempty,max=2000"`
	Duration    int     `json:"duration" validate:"omitempty,min=0"`
	Price       float64 `json:"price" validate:"omitempty,min=0"`
}

// CreateInstructorRequest represents payload for creating instructors.
type CreateInstructorRequest struct {
	Name           string            `json:"name" validate:"required,max=200"`
	Email          string            `json:"email" validate:"omitempty,email"`
	Phone          string            `json:"phone" validate:"omitempty,max=50"`
	Bio            string            `json:"bio" validate:"omitempty,max=5000"`
	Location       string            `json:"location" validate:"omitempty,max=300"`
	Latitude       *float64          `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude      *float64          `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Experience     int               `json:"experience" validate:"omitempty,min=0,max=100"`
	Specialization string            `json:"specialization" validate:"omitempty,max=300"`
	Specialties    []string          `json:"specialties" validate:"omitempty,dive,max=200"`
	Certifications []string          `json:"certifications" validate:"omitempty,dive,max=200"`
	LessonTypes    []LessonTypeInput `json:"lesson_types" validate:"omitempty,dive"`
	Photos         []string          `json:"photos" validate:"omitempty,dive,url"`
}

// UpdateInstructorRequest represents payload for updating instructors.
type UpdateInstructorRequest struct {
	Name           string            `json:"name" validate:"required,max=200"`
	Email          string            `json:"email" validate:"omitempty,email"`
	Phone          string            `json:"phone" validate:"omitempty,max=50"`
	Bio            string            `json:"bio" validate:"omitempty,max=5000"`
	Location       string            `json:"location" validate:"omitempty,max=300"`
	Latitude       *float64          `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude      *float64          `json:"longitude" validate:"omitempty,min=-180,max=180"`
	Experience     int               `json:"experience" validate:"omitempty,min=0,max=100"`
	Specialization string            `json:"specialization" validate:"omitempty,max=300"`
	Specialties    []string          `json:"specialties" validate:"omitempty,dive,max=200"`
	Certifications []string          `json:"certifications" validate:"omitempty,dive,max=200"`
	LessonTypes    []LessonTypeInput `json:"lesson_types" validate:"omitempty,dive"`
	Photos         []string          `json:"photos" validate:"omitempty,dive,url"`
}

// InstructorService orchestrates admin instructor management.
type InstructorService struct {
	repo        instructorRepository
	audit       auditRepository
	searchCache searchCacheInvalidator
	geocode     geocodeScheduler
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewInstructorService constructs an InstructorService. geocode may be nil
// when backfill is disabled.
func NewInstructorService(repo instructorRepository, audit auditRepository, searchCache searchCacheInvalidator, geocode geocodeScheduler, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, audit: audit, searchCache: searchCache, geocode: geocode, validator: validate, logger: logger}
}

// List returns instructors of any status plus pagination data for the admin panel.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	raws, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
	}

	instructors := make([]models.Instructor, 0, len(raws))
	for _, raw := range raws {
		instructors = append(instructors, search.Normalize(raw))
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return instructors, pagination, nil
}

// Get returns an instructor of any status by id.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	raw, err := s.findRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	inst := search.Normalize(*raw)
	return &inst, nil
}

// Create registers a new instructor record. Admin-created records are
// approved immediately.
func (s *InstructorService) Create(ctx context.Context, req CreateInstructorRequest, actor ActorMeta) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	raw := &models.RawInstructor{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Bio:            strings.TrimSpace(req.Bio),
		Location:       strings.TrimSpace(req.Location),
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Experience:     req.Experience,
		Specialization: strings.TrimSpace(req.Specialization),
		Specialties:    req.Specialties,
		Certifications: req.Certifications,
		LessonTypes:    lessonTypesFromInput(req.LessonTypes),
		Photos:         req.Photos,
		Status:         models.StatusApproved,
	}

	if err := s.repo.Create(ctx, raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}

	s.recordAudit(ctx, actor, models.AuditActionInstructorCreate, raw.ID, nil, raw)
	s.invalidate(ctx)
	s.scheduleGeocode(*raw)

	inst := search.Normalize(*raw)
	return &inst, nil
}

// Update modifies an existing instructor.
func (s *InstructorService) Update(ctx context.Context, id string, req UpdateInstructorRequest, actor ActorMeta) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}

	raw, err := s.findRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := *raw

	raw.Name = strings.TrimSpace(req.Name)
	raw.FirstName = ""
	raw.LastName = ""
	raw.Email = strings.TrimSpace(req.Email)
	raw.Phone = strings.TrimSpace(req.Phone)
	raw.Bio = strings.TrimSpace(req.Bio)
	raw.Location = strings.TrimSpace(req.Location)
	raw.Latitude = req.Latitude
	raw.Longitude = req.Longitude
	raw.Experience = req.Experience
	raw.Specialization = strings.TrimSpace(req.Specialization)
	raw.Specialties = req.Specialties
	raw.Certifications = req.Certifications
	raw.LessonTypes = lessonTypesFromInput(req.LessonTypes)
	// Legacy keyed offerings are replaced by the structured list on edit.
	raw.Services = nil
	raw.Photos = req.Photos

	if err := s.repo.Update(ctx, raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}

	s.recordAudit(ctx, actor, models.AuditActionInstructorUpdate, raw.ID, &previous, raw)
	s.invalidate(ctx)

	inst := search.Normalize(*raw)
	return &inst, nil
}

// Approve transitions a pending instructor into the public directory.
func (s *InstructorService) Approve(ctx context.Context, id string, actor ActorMeta) error {
	return s.transition(ctx, id, models.StatusApproved, models.AuditActionInstructorApprove, actor)
}

// Reject marks a pending instructor as rejected.
func (s *InstructorService) Reject(ctx context.Context, id string, actor ActorMeta) error {
	return s.transition(ctx, id, models.StatusRejected, models.AuditActionInstructorReject, actor)
}

// Delete removes an instructor record permanently.
func (s *InstructorService) Delete(ctx context.Context, id string, actor ActorMeta) error {
	raw, err := s.findRaw(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete instructor")
	}
	s.recordAudit(ctx, actor, models.AuditActionInstructorDelete, id, raw, nil)
	s.invalidate(ctx)
	return nil
}

func (s *InstructorService) transition(ctx context.Context, id string, status models.InstructorStatus, action string, actor ActorMeta) error {
	raw, err := s.findRaw(ctx, id)
	if err != nil {
		return err
	}
	if raw.Status == status {
		return appErrors.Clone(appErrors.ErrConflict, "instructor is already "+string(status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor status")
	}
	previous := *raw
	updated := previous
	updated.Status = status
	s.recordAudit(ctx, actor, action, id, &previous, &updated)
	s.invalidate(ctx)
	s.scheduleGeocode(updated)
	return nil
}

// scheduleGeocode hands a freshly approved instructor without coordinates to
// the backfill queue so it becomes searchable by distance without waiting for
// the next sweep.
func (s *InstructorService) scheduleGeocode(raw models.RawInstructor) {
	if s.geocode == nil || raw.Status != models.StatusApproved || raw.Location == "" {
		return
	}
	if raw.Latitude != nil && raw.Longitude != nil {
		return
	}
	if err := s.geocode.EnqueueInstructor(raw); err != nil {
		s.logger.Warn("failed to enqueue geocode backfill",
			zap.String("instructor_id", raw.ID),
			zap.Error(err))
	}
}

func (s *InstructorService) findRaw(ctx context.Context, id string) (*models.RawInstructor, error) {
	raw, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	return raw, nil
}

func (s *InstructorService) recordAudit(ctx context.Context, actor ActorMeta, action, resourceID string, oldValue, newValue interface{}) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "instructor",
		ResourceID: &resourceID,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if actor.UserID != "" {
		userID := actor.UserID
		log.UserID = &userID
	}
	if oldValue != nil {
		if data, err := json.Marshal(oldValue); err == nil {
			log.OldValues = data
		}
	}
	if newValue != nil {
		if data, err := json.Marshal(newValue); err == nil {
			log.NewValues = data
		}
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record instructor audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *InstructorService) invalidate(ctx context.Context) {
	if s.searchCache != nil {
		s.searchCache.InvalidateCache(ctx)
	}
}

func lessonTypesFromInput(inputs []LessonTypeInput) []models.RawLessonType {
	if len(inputs) == 0 {
		return nil
	}
	out := make([]models.RawLessonType, 0, len(inputs))
	for _, in := range inputs {
		duration := ""
		if in.Duration > 0 {
			duration = strconv.Itoa(in.Duration) + " min"
		}
		out = append(out, models.RawLessonType{
			Title:       strings.TrimSpace(in.Title),
			Description: strings.TrimSpace(in.Description),
			Duration:    duration,
			Price:       in.Price,
		})
	}
	return out
}
