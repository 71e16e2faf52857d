package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/service"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
	"github.com/golflink/golflink-api/pkg/response"
)

type exportService interface {
	Generate(ctx context.Context, format service.ExportFormat, filter models.InstructorFilter, actor service.ActorMeta) (*service.ExportResult, error)
	ParseToken(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
}

// ExportHandler generates directory exports and serves the resulting files
// through signed download tokens.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Generate godoc
// @Summary Export instructor directory
// @Description Renders the directory to CSV or PDF and returns a signed download link
// @Tags Admin Instructors
// @Produce json
// @Param format query string true "Export format (csv or pdf)"
// @Param status query string false "Filter by status"
// @Param search query string false "Search by name, email or location"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/instructors/export [get]
func (h *ExportHandler) Generate(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	format := service.ExportFormat(strings.ToLower(strings.TrimSpace(c.Query("format"))))

	var filter models.InstructorFilter
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.InstructorStatus(raw)
		switch status {
		case models.StatusPending, models.StatusApproved, models.StatusRejected:
			filter.Status = &status
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status"))
			return
		}
	}
	filter.Search = strings.TrimSpace(c.Query("search"))

	result, err := h.service.Generate(c.Request.Context(), format, filter, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{
		"url":        result.URL,
		"format":     result.Format,
		"expires_at": result.ExpiresAt,
	}, nil)
}

// Download godoc
// @Summary Download a generated export
// @Description Serves the export file referenced by a signed token
// @Tags Admin Instructors
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	_, relPath, _, err := h.service.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export no longer available"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}

	filename := filepath.Base(relPath)
	contentType := "application/octet-stream"
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		contentType = "text/csv"
	case ".pdf":
		contentType = "application/pdf"
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}
