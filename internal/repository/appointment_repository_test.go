package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acolheapp/agenda-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func appointmentRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "professional_id", "student_id", "service", "location", "status", "starts_at", "ends_at", "confirmed_at", "cancelled_at", "reminder_sent_at", "created_at", "updated_at"}).
		AddRow("a1", "p1", "s1", "speech therapy", nil, "SCHEDULED", now, now.Add(time.Hour), nil, nil, nil, now, now)
}

func TestAppointmentRepositoryListOverlapping(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	from := time.Date(2026, time.January, 5, 14, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+appointmentColumns+" FROM appointments WHERE professional_id = $1 AND status <> 'CANCELLED' AND starts_at < $2 AND ends_at > $3 ORDER BY starts_at ASC")).
		WithArgs("p1", to, from).
		WillReturnRows(appointmentRows())

	appointments, err := repo.ListOverlapping(context.Background(), "p1", from, to)
	require.NoError(t, err)
	assert.Len(t, appointments, 1)
	assert.Equal(t, "a1", appointments[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	appointment := &models.Appointment{
		ProfessionalID: "p1",
		StudentID:      "s1",
		Service:        "speech therapy",
		Status:         models.StatusScheduled,
		StartsAt:       time.Date(2026, time.January, 5, 14, 0, 0, 0, time.UTC),
		EndsAt:         time.Date(2026, time.January, 5, 15, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Insert(context.Background(), appointment))
	assert.NotEmpty(t, appointment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryInsertConstraintErrorPassesThrough(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(assert.AnError)

	err := repo.Insert(context.Background(), &models.Appointment{ProfessionalID: "p1", StudentID: "s1"})
	// The raw driver error must survive so the service layer can inspect
	// the Postgres error code.
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAppointmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET status = $1, cancelled_at = $2, updated_at = $2 WHERE id = $3")).
		WithArgs(models.StatusCancelled, sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "a1", models.StatusCancelled))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET status = $1, confirmed_at = $2, updated_at = $2 WHERE id = $3")).
		WithArgs(models.StatusConfirmed, sqlmock.AnyArg(), "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "a1", models.StatusConfirmed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+appointmentColumns+" FROM appointments WHERE 1=1 AND professional_id = $1 AND status = $2 ORDER BY starts_at ASC LIMIT 20 OFFSET 0")).
		WithArgs("p1", models.StatusScheduled).
		WillReturnRows(appointmentRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM appointments WHERE 1=1 AND professional_id = $1 AND status = $2")).
		WithArgs("p1", models.StatusScheduled).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	appointments, total, err := repo.List(context.Background(), models.AppointmentFilter{
		ProfessionalID: "p1",
		Status:         models.StatusScheduled,
	})
	require.NoError(t, err)
	assert.Len(t, appointments, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryListRejectsUnknownSort(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY starts_at ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(appointmentRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.AppointmentFilter{SortBy: "starts_at; DROP TABLE appointments"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepositoryMarkReminderSent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAppointmentRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET reminder_sent_at = $1, updated_at = $1 WHERE id = $2 AND reminder_sent_at IS NULL")).
		WithArgs(at, "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkReminderSent(context.Background(), "a1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
