package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golflink/golflink-api/internal/models"
)

func newInstructorRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func instructorRowColumns() []string {
	return []string{
		"id", "name", "first_name", "last_name", "email", "phone", "bio", "location",
		"latitude", "longitude", "experience", "specialization", "specialties",
		"certifications", "lesson_types", "services", "photos", "status",
		"created_at", "updated_at",
	}
}

func TestInstructorRepositoryListApproved(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(instructorRowColumns()).
		AddRow("i1", "Jordan Banks", nil, nil, "jordan@example.com", nil, nil, "Austin, TX",
			30.27, -97.74, 5, "Short Game", pq.StringArray{"putting"},
			pq.StringArray{"PGA Class A"}, []byte(`[{"title":"Private Lesson","price":80}]`), nil,
			pq.StringArray{"https://cdn.example.com/p1.jpg"}, "approved", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + instructorColumns + " FROM instructors WHERE status = $1 ORDER BY created_at DESC")).
		WithArgs(models.StatusApproved).
		WillReturnRows(rows)

	raws, err := repo.ListApproved(context.Background())
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Jordan Banks", raws[0].Name)
	require.NotNil(t, raws[0].Latitude)
	assert.InDelta(t, 30.27, *raws[0].Latitude, 1e-9)
	require.Len(t, raws[0].LessonTypes, 1)
	assert.Equal(t, "Private Lesson", raws[0].LessonTypes[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryListWithFilter(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(instructorRowColumns()).
		AddRow("i2", "Pat Lee", nil, nil, nil, nil, nil, nil,
			nil, nil, 2, nil, pq.StringArray{}, pq.StringArray{}, nil, nil,
			pq.StringArray{}, "pending", now, now)

	status := models.StatusPending
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+instructorColumns+" FROM instructors WHERE 1=1 AND status = $1 ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs(status).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM instructors WHERE 1=1 AND status = $1")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	raws, total, err := repo.List(context.Background(), models.InstructorFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, raws, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.StatusPending, raws[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(instructorRowColumns()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.InstructorFilter{SortBy: "lesson_types; DROP TABLE instructors"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectExec("INSERT INTO instructors").
		WithArgs(sqlmock.AnyArg(), "Jordan Banks", "", "", "jordan@example.com", "", "", "Austin, TX",
			nil, nil, 5, "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			models.StatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	raw := &models.RawInstructor{
		Name:       "Jordan Banks",
		Email:      "jordan@example.com",
		Location:   "Austin, TX",
		Experience: 5,
		Status:     models.StatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), raw))
	assert.NotEmpty(t, raw.ID)
	assert.False(t, raw.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryUpdateClearsLegacyServices(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectExec(`UPDATE instructors SET[\s\S]*lesson_types = \$15, services = NULL, photos = \$16`).
		WithArgs("i1", "Jordan Banks", "", "", "jordan@example.com", "", "", "Austin, TX",
			nil, nil, 5, "", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			models.StatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	raw := &models.RawInstructor{
		ID:         "i1",
		Name:       "Jordan Banks",
		Email:      "jordan@example.com",
		Location:   "Austin, TX",
		Experience: 5,
		Status:     models.StatusApproved,
	}
	require.NoError(t, repo.Update(context.Background(), raw))
	assert.False(t, raw.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectExec("UPDATE instructors SET status").
		WithArgs("i1", models.StatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "i1", models.StatusApproved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryUpdateCoordinates(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectExec("UPDATE instructors SET latitude").
		WithArgs("i1", 30.27, -97.74, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateCoordinates(context.Background(), "i1", 30.27, -97.74))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM instructors WHERE id = $1")).
		WithArgs("i1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "i1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInstructorRepositoryTolerantJSONB(t *testing.T) {
	db, mock, cleanup := newInstructorRepoMock(t)
	defer cleanup()
	repo := NewInstructorRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(instructorRowColumns()).
		AddRow("i3", "Sam Ortiz", nil, nil, nil, nil, nil, nil,
			nil, nil, 1, nil, pq.StringArray{}, pq.StringArray{},
			[]byte(`not-json`), []byte(`{"Group Clinic":{"price":"$40"}}`),
			pq.StringArray{}, "approved", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("i3").
		WillReturnRows(rows)

	raw, err := repo.FindByID(context.Background(), "i3")
	require.NoError(t, err)
	assert.Empty(t, raw.LessonTypes)
	assert.NotNil(t, raw.Services)
	assert.NoError(t, mock.ExpectationsWereMet())
}
