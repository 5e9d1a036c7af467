package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acolheapp/agenda-api/internal/models"
)

func TestAvailabilityRepositoryListByProfessional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "professional_id", "weekday", "start_of_day", "end_of_day", "created_at", "updated_at"}).
		AddRow("w1", "p1", 1, "09:00:00", "12:00:00", now, now).
		AddRow("w2", "p1", 1, "14:00:00", "16:00:00", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+availabilityColumns+" FROM availability_windows WHERE professional_id = $1 ORDER BY weekday ASC, start_of_day ASC")).
		WithArgs("p1").
		WillReturnRows(rows)

	windows, err := repo.ListByProfessional(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, time.Monday, windows[0].Weekday)
	assert.Equal(t, models.NewTimeOfDay(9, 0), windows[0].StartOfDay)
	assert.Equal(t, models.NewTimeOfDay(16, 0), windows[1].EndOfDay)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_windows WHERE professional_id = $1")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO availability_windows").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO availability_windows").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	windows := []models.AvailabilityWindow{
		{Weekday: time.Monday, StartOfDay: models.NewTimeOfDay(9, 0), EndOfDay: models.NewTimeOfDay(12, 0)},
		{Weekday: time.Wednesday, StartOfDay: models.NewTimeOfDay(14, 0), EndOfDay: models.NewTimeOfDay(16, 0)},
	}
	require.NoError(t, repo.Replace(context.Background(), "p1", windows))
	assert.NotEmpty(t, windows[0].ID)
	assert.Equal(t, "p1", windows[0].ProfessionalID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceEmptyClears(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_windows WHERE professional_id = $1")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	require.NoError(t, repo.Replace(context.Background(), "p1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryReplaceRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_windows WHERE professional_id = $1")).
		WithArgs("p1").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), "p1", nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_windows WHERE id = $1 AND professional_id = $2")).
		WithArgs("ghost", "p1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "p1", "ghost")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
