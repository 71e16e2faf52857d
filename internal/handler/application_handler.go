package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/service"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
	"github.com/golflink/golflink-api/pkg/response"
)

type applicationService interface {
	Submit(ctx context.Context, req service.ApplicationRequest) (*models.RawInstructor, error)
}

// ApplicationHandler accepts public teach-with-us applications.
type ApplicationHandler struct {
	service applicationService
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(service applicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Submit godoc
// @Summary Submit instructor application
// @Description Creates a pending instructor record for admin review
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body service.ApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req service.ApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	created, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, gin.H{
		"id":     created.ID,
		"status": created.Status,
	})
}
