package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/search"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
	"github.com/golflink/golflink-api/pkg/export"
	"github.com/golflink/golflink-api/pkg/storage"
)

// ExportFormat enumerates supported directory export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportInstructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.RawInstructor, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportServiceConfig tunes export behaviour.
type ExportServiceConfig struct {
	Enabled         bool
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders the instructor directory into downloadable files.
type ExportService struct {
	repo    exportInstructorRepository
	audit   auditRepository
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportServiceConfig
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportInstructorRepository, audit auditRepository, files fileStorage, signer *storage.SignedURLSigner, cfg ExportServiceConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		repo:    repo,
		audit:   audit,
		storage: files,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders the directory in the requested format, stores the file
// and returns a signed download URL.
func (s *ExportService) Generate(ctx context.Context, format ExportFormat, filter models.InstructorFilter, actor ActorMeta) (*ExportResult, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+string(format))
	}

	// Fetch everything matching the filter, not just one page.
	filter.Page = 1
	filter.PageSize = 100
	var raws []models.RawInstructor
	for {
		batch, total, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructors for export")
		}
		raws = append(raws, batch...)
		if len(raws) >= total || len(batch) == 0 {
			break
		}
		filter.Page++
	}

	dataset := buildDirectoryDataset(raws)
	title := fmt.Sprintf("GolfLink Instructor Directory %s", time.Now().UTC().Format("2006-01-02"))

	var payload []byte
	var err error
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	exportID := uuid.NewString()
	filename := fmt.Sprintf("directory_%s_%s.%s", time.Now().UTC().Format("20060102_150405"), exportID[:8], format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export url")
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.recordAudit(ctx, actor, exportID, string(format), len(raws))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

// StartCleanup sweeps expired export files on a timer so they do not pile up
// after their download links lapse. It returns immediately; the sweep stops
// when ctx is cancelled.
func (s *ExportService) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()

		s.sweep()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *ExportService) sweep() {
	removed, err := s.Cleanup(0)
	if err != nil {
		s.logger.Warn("export cleanup sweep failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("removed expired export files", zap.Int("count", len(removed)))
	}
}

func (s *ExportService) recordAudit(ctx context.Context, actor ActorMeta, exportID, format string, count int) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     models.AuditActionDirectoryExport,
		Resource:   "export",
		ResourceID: &exportID,
		NewValues:  []byte(fmt.Sprintf(`{"format":%q,"records":%d}`, format, count)),
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if actor.UserID != "" {
		userID := actor.UserID
		log.UserID = &userID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record export audit log", zap.Error(err))
	}
}

func buildDirectoryDataset(raws []models.RawInstructor) export.Dataset {
	headers := []string{"ID", "Name", "Email", "Location", "Experience (years)", "Specialization", "Hourly Rate", "Average Price", "Status", "Updated At"}
	rows := make([]map[string]string, 0, len(raws))
	for _, raw := range raws {
		inst := search.Normalize(raw)
		rows = append(rows, map[string]string{
			"ID":                 inst.ID,
			"Name":               inst.Name,
			"Email":              inst.Email,
			"Location":           inst.Location,
			"Experience (years)": strconv.Itoa(inst.Experience),
			"Specialization":     inst.Specialization,
			"Hourly Rate":        strconv.Itoa(inst.HourlyRate),
			"Average Price":      strconv.Itoa(inst.AveragePrice),
			"Status":             string(raw.Status),
			"Updated At":         raw.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
