package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/service"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
)

type fakeApplicationSrv struct {
	created *models.RawInstructor
	err     error
	lastReq service.ApplicationRequest
}

func (f *fakeApplicationSrv) Submit(_ context.Context, req service.ApplicationRequest) (*models.RawInstructor, error) {
	f.lastReq = req
	return f.created, f.err
}

func TestApplicationHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeApplicationSrv{created: &models.RawInstructor{ID: "app-1", Status: models.StatusPending}}
	handler := NewApplicationHandler(srv)

	body := `{"name":"Casey Drew","email":"casey@example.com","location":"Austin, TX, USA"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Casey Drew", srv.lastReq.Name)

	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "app-1", envelope.Data["id"])
	assert.Equal(t, string(models.StatusPending), envelope.Data["status"])
}

func TestApplicationHandlerSubmitInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewApplicationHandler(&fakeApplicationSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader("not json"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplicationHandlerSubmitValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewApplicationHandler(&fakeApplicationSrv{err: appErrors.Clone(appErrors.ErrValidation, "location is required")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(`{"name":"Casey"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Submit(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
