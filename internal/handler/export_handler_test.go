package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/internal/service"
	appErrors "github.com/golflink/golflink-api/pkg/errors"
)

type fakeExportSrv struct {
	result     *service.ExportResult
	genErr     error
	lastFormat service.ExportFormat
	lastFilter models.InstructorFilter

	relPath  string
	parseErr error
	openPath string
}

func (f *fakeExportSrv) Generate(_ context.Context, format service.ExportFormat, filter models.InstructorFilter, _ service.ActorMeta) (*service.ExportResult, error) {
	f.lastFormat = format
	f.lastFilter = filter
	return f.result, f.genErr
}

func (f *fakeExportSrv) ParseToken(string, bool) (string, string, time.Time, error) {
	if f.parseErr != nil {
		return "", "", time.Time{}, f.parseErr
	}
	return "exp-1", f.relPath, time.Now().Add(time.Hour), nil
}

func (f *fakeExportSrv) Open(relPath string) (*os.File, error) {
	f.openPath = relPath
	return os.Open(relPath)
}

func TestExportHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeExportSrv{result: &service.ExportResult{
		URL:       "/api/v1/export/tok",
		Format:    service.ExportFormatCSV,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}}
	handler := NewExportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/instructors/export?format=csv&status=approved", nil)

	handler.Generate(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.ExportFormatCSV, srv.lastFormat)
	if assert.NotNil(t, srv.lastFilter.Status) {
		assert.Equal(t, models.StatusApproved, *srv.lastFilter.Status)
	}

	var envelope responseEnvelope
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "/api/v1/export/tok", envelope.Data["url"])
}

func TestExportHandlerGenerateUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeExportSrv{genErr: appErrors.Clone(appErrors.ErrValidation, "unsupported export format")}
	handler := NewExportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/instructors/export?format=xlsx", nil)

	handler.Generate(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	path := filepath.Join(dir, "directory_test.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID,Name\n1,Jordan\n"), 0o644))

	srv := &fakeExportSrv{relPath: path}
	handler := NewExportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/export/tok", nil)
	c.Params = gin.Params{{Key: "token", Value: "tok"}}

	handler.Download(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "directory_test.csv")
	assert.Contains(t, rec.Body.String(), "Jordan")
}

func TestExportHandlerDownloadBadToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeExportSrv{parseErr: appErrors.Clone(appErrors.ErrUnauthorized, "invalid download token")}
	handler := NewExportHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/export/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	handler.Download(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
