package service

import (
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/pkg/storage"
)

type mockExportRepo struct {
	raws []models.RawInstructor
}

func (m *mockExportRepo) List(ctx context.Context, filter models.InstructorFilter) ([]models.RawInstructor, int, error) {
	if filter.Page > 1 {
		return nil, len(m.raws), nil
	}
	return m.raws, len(m.raws), nil
}

func newExportService(t *testing.T, repo *mockExportRepo, audit *mockAuditRepo) *ExportService {
	t.Helper()
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	return NewExportService(repo, audit, files, signer, ExportServiceConfig{Enabled: true, APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)
}

func TestExportServiceGenerateCSV(t *testing.T) {
	repo := &mockExportRepo{raws: []models.RawInstructor{
		{ID: "i1", Name: "Jordan Banks", Experience: 5, Status: models.StatusApproved},
		{ID: "i2", FirstName: "Riley", LastName: "Park", Experience: 2, Status: models.StatusPending},
	}}
	audit := &mockAuditRepo{}
	svc := newExportService(t, repo, audit)

	result, err := svc.Generate(context.Background(), ExportFormatCSV, models.InstructorFilter{}, ActorMeta{UserID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, ExportFormatCSV, result.Format)
	assert.NotEmpty(t, result.Token)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus one row per instructor")
	assert.Contains(t, records[0], "Hourly Rate")
	assert.Contains(t, records[1], "Jordan Banks")
	assert.Contains(t, records[2], "Riley Park")

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionDirectoryExport, audit.logs[0].Action)
}

func TestExportServiceGeneratePDF(t *testing.T) {
	repo := &mockExportRepo{raws: []models.RawInstructor{
		{ID: "i1", Name: "Jordan Banks", Experience: 5, Status: models.StatusApproved},
	}}
	svc := newExportService(t, repo, &mockAuditRepo{})

	result, err := svc.Generate(context.Background(), ExportFormatPDF, models.InstructorFilter{}, ActorMeta{})
	require.NoError(t, err)
	assert.Equal(t, ExportFormatPDF, result.Format)

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()

	header := make([]byte, 4)
	_, err = file.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportService(t, &mockExportRepo{}, &mockAuditRepo{})

	_, err := svc.Generate(context.Background(), ExportFormat("xlsx"), models.InstructorFilter{}, ActorMeta{})
	require.Error(t, err)
}

func TestExportServiceGenerateDisabled(t *testing.T) {
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	svc := NewExportService(&mockExportRepo{}, nil, files, signer, ExportServiceConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)

	_, err = svc.Generate(context.Background(), ExportFormatCSV, models.InstructorFilter{}, ActorMeta{})
	require.Error(t, err)
}

func TestExportServiceCleanupRemovesExpiredFiles(t *testing.T) {
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	repo := &mockExportRepo{raws: []models.RawInstructor{
		{ID: "i1", Name: "Jordan Banks", Status: models.StatusApproved},
	}}
	svc := NewExportService(repo, nil, files, signer, ExportServiceConfig{Enabled: true, ResultTTL: time.Hour}, zap.NewNop(), nil, nil)

	expired, err := svc.Generate(context.Background(), ExportFormatCSV, models.InstructorFilter{}, ActorMeta{})
	require.NoError(t, err)
	fresh, err := svc.Generate(context.Background(), ExportFormatPDF, models.InstructorFilter{}, ActorMeta{})
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(files.Path(expired.RelativePath), past, past))

	// Cleanup(0) falls back to the configured ResultTTL.
	removed, err := svc.Cleanup(0)
	require.NoError(t, err)
	assert.Equal(t, []string{expired.RelativePath}, removed)

	_, err = svc.Open(expired.RelativePath)
	require.Error(t, err)
	file, err := svc.Open(fresh.RelativePath)
	require.NoError(t, err)
	file.Close()
}

func TestExportServiceTokenRoundTrip(t *testing.T) {
	repo := &mockExportRepo{raws: []models.RawInstructor{
		{ID: "i1", Name: "Jordan Banks", Status: models.StatusApproved},
	}}
	svc := newExportService(t, repo, &mockAuditRepo{})

	result, err := svc.Generate(context.Background(), ExportFormatCSV, models.InstructorFilter{}, ActorMeta{})
	require.NoError(t, err)

	_, relPath, expiresAt, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, result.RelativePath, relPath)
	assert.WithinDuration(t, result.ExpiresAt, expiresAt, time.Second)
}
