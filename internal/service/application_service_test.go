package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/golflink/golflink-api/internal/models"
	"github.com/golflink/golflink-api/pkg/config"
	"github.com/golflink/golflink-api/pkg/storage"
)

type mockApplicationRepo struct {
	created []*models.RawInstructor
	err     error
}

func (m *mockApplicationRepo) Create(ctx context.Context, raw *models.RawInstructor) error {
	if m.err != nil {
		return m.err
	}
	if raw.ID == "" {
		raw.ID = "generated"
	}
	m.created = append(m.created, raw)
	return nil
}

func newApplicationService(t *testing.T, repo *mockApplicationRepo) *ApplicationService {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewApplicationService(repo, store, validator.New(), zap.NewNop(), config.PhotoConfig{
		PublicBaseURL:    "https://static.golflink.example/photos",
		MaxFileSizeBytes: 1024,
	})
}

func TestApplicationServiceSubmit(t *testing.T) {
	repo := &mockApplicationRepo{}
	svc := newApplicationService(t, repo)

	raw, err := svc.Submit(context.Background(), ApplicationRequest{
		Name:       "Riley Park",
		Email:      "riley@example.com",
		Location:   "Denver, CO",
		Experience: 4,
		LessonTypes: []LessonTypeInput{
			{Title: "Swing Analysis", Price: 95},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, raw.Status)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "Riley Park", repo.created[0].Name)
}

func TestApplicationServiceSubmitRequiresLocation(t *testing.T) {
	repo := &mockApplicationRepo{}
	svc := newApplicationService(t, repo)

	_, err := svc.Submit(context.Background(), ApplicationRequest{
		Name:  "Riley Park",
		Email: "riley@example.com",
	})
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestApplicationServiceStoresPhotos(t *testing.T) {
	repo := &mockApplicationRepo{}
	svc := newApplicationService(t, repo)

	payload := base64.StdEncoding.EncodeToString([]byte("fake-jpeg-bytes"))
	raw, err := svc.Submit(context.Background(), ApplicationRequest{
		Name:     "Riley Park",
		Email:    "riley@example.com",
		Location: "Denver, CO",
		Photos: []PhotoUpload{
			{ContentType: "image/jpeg", Data: payload},
		},
	})
	require.NoError(t, err)
	require.Len(t, raw.Photos, 1)
	assert.Contains(t, raw.Photos[0], "https://static.golflink.example/photos/")
	assert.Contains(t, raw.Photos[0], ".jpg")
}

func TestApplicationServiceRejectsUnsupportedPhotoType(t *testing.T) {
	repo := &mockApplicationRepo{}
	svc := newApplicationService(t, repo)

	payload := base64.StdEncoding.EncodeToString([]byte("<svg/>"))
	_, err := svc.Submit(context.Background(), ApplicationRequest{
		Name:     "Riley Park",
		Email:    "riley@example.com",
		Location: "Denver, CO",
		Photos: []PhotoUpload{
			{ContentType: "image/svg+xml", Data: payload},
		},
	})
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestApplicationServiceRejectsOversizedPhoto(t *testing.T) {
	repo := &mockApplicationRepo{}
	svc := newApplicationService(t, repo)

	big := make([]byte, 2048)
	payload := base64.StdEncoding.EncodeToString(big)
	_, err := svc.Submit(context.Background(), ApplicationRequest{
		Name:     "Riley Park",
		Email:    "riley@example.com",
		Location: "Denver, CO",
		Photos: []PhotoUpload{
			{ContentType: "image/png", Data: payload},
		},
	})
	require.Error(t, err)
}
