package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acolheapp/agenda-api/internal/models"
)

func TestTokenRepositoryFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"token", "appointment_id", "kind", "email", "expires_at", "consumed_at", "created_at"}).
		AddRow("tok-1", "a1", string(models.TokenKindConfirm), "guardian@example.com", now.Add(48*time.Hour), nil, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+appointmentTokenColumns+" FROM appointment_tokens WHERE token = $1")).
		WithArgs("tok-1").
		WillReturnRows(rows)

	stored, err := repo.Find(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "a1", stored.AppointmentID)
	assert.Equal(t, models.TokenKindConfirm, stored.Kind)
	assert.Nil(t, stored.ConsumedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryFindUnknownSurfacesNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+appointmentTokenColumns+" FROM appointment_tokens WHERE token = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryFindActiveFiltersConsumedAndExpired(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"token", "appointment_id", "kind", "email", "expires_at", "consumed_at", "created_at"}).
		AddRow("tok-2", "a1", string(models.TokenKindCancel), "guardian@example.com", now.Add(time.Hour), nil, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+appointmentTokenColumns+" FROM appointment_tokens WHERE appointment_id = $1 AND kind = $2 AND email = $3 AND consumed_at IS NULL AND expires_at > $4 ORDER BY created_at DESC LIMIT 1")).
		WithArgs("a1", models.TokenKindCancel, "guardian@example.com", now).
		WillReturnRows(rows)

	stored, err := repo.FindActive(context.Background(), "a1", models.TokenKindCancel, "guardian@example.com", now)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", stored.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryConsume(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointment_tokens SET consumed_at = $1 WHERE token = $2")).
		WithArgs(at, "tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Consume(context.Background(), "tok-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepositoryDeleteExpired(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTokenRepository(db)

	cutoff := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointment_tokens WHERE expires_at <= $1")).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	pruned, err := repo.DeleteExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), pruned)
	assert.NoError(t, mock.ExpectationsWereMet())
}
