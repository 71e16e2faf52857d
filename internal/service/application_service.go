package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/pkg/config"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
	"github.com/golflink/golflink-api/pkg/storage"
)

type applicationRepository interface {
	Create(ctx context.Context, raw *models.RawInstructor) error
}

// PhotoUpload is an inline photo submitted with an application, base64
// encoded with its content type.
type PhotoUpload struct {
	ContentType string `json:"content_type" validate:"required"`
	Data        string `json:"data" validate:"required,base64"`
}

// ApplicationRequest is the public teach-with-us submission payload.
type ApplicationRequest struct {
	Name           string            `json:"name" validate:"required,max=200"`
	Email          string            `json:"email" validate:"required,email"`
	Phone          string            `json:"phone" validate:"omitempty,max=50"`
	Bio            string            `json:"bio" validate:"omitempty,max=5000"`
	Location       string            `json:"location" validate:"required,max=300"`
	Experience     int               `json:"experience" validate:"omitempty,min=0,max=100"`
	Specialization string            `json:"specialization" validate:"omitempty,max=300"`
	Specialties    []string          `json:"specialties" validate:"omitempty,dive,max=200"`
	Certifications []string          `json:"certifications" validate:"omitempty,dive,max=200"`
	LessonTypes    []LessonTypeInput `json:"lesson_types" validate:"omitempty,dive"`
	Photos         []PhotoUpload     `json:"photos" validate:"omitempty,max=5,dive"`
}

// ApplicationService handles public instructor applications. Submissions
// land in pending status until an admin reviews them.
type ApplicationService struct {
	repo      applicationRepository
	photos    *storage.FileStore
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.PhotoConfig
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(repo applicationRepository, photos *storage.FileStore, validate *validator.Validate, logger *zap.Logger, cfg config.PhotoConfig) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{repo: repo, photos: photos, validator: validate, logger: logger, cfg: cfg}
}

// Submit validates and stores a new application as a pending instructor.
func (s *ApplicationService) Submit(ctx context.Context, req ApplicationRequest) (*models.RawInstructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	photoURLs, err := s.storePhotos(req.Photos)
	if err != nil {
		return nil, err
	}

	raw := &models.RawInstructor{
		Name:           strings.TrimSpace(req.Name),
		Email:          strings.TrimSpace(req.Email),
		Phone:          strings.TrimSpace(req.Phone),
		Bio:            strings.TrimSpace(req.Bio),
		Location:       strings.TrimSpace(req.Location),
		Experience:     req.Experience,
		Specialization: strings.TrimSpace(req.Specialization),
		Specialties:    req.Specialties,
		Certifications: req.Certifications,
		LessonTypes:    lessonTypesFromInput(req.LessonTypes),
		Photos:         photoURLs,
		Status:         models.StatusPending,
	}

	if err := s.repo.Create(ctx, raw); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store application")
	}

	s.logger.Info("instructor application received",
		zap.String("instructor_id", raw.ID),
		zap.String("location", raw.Location))

	return raw, nil
}

func (s *ApplicationService) storePhotos(uploads []PhotoUpload) ([]string, error) {
	if len(uploads) == 0 || s.photos == nil {
		return nil, nil
	}

	urls := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		ext, ok := storage.ExtensionForMIME(upload.ContentType)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported photo content type "+upload.ContentType)
		}

		data, err := base64.StdEncoding.DecodeString(upload.Data)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "photo data is not valid base64")
		}
		if s.cfg.MaxFileSizeBytes > 0 && int64(len(data)) > s.cfg.MaxFileSizeBytes {
			return nil, appErrors.Clone(appErrors.ErrValidation, "photo exceeds maximum allowed size")
		}

		filename := uuid.NewString() + ext
		if _, err := s.photos.Save(filename, data); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
		}
		urls = append(urls, fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.PublicBaseURL, "/"), filename))
	}
	return urls, nil
}
