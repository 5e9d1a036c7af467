package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acolheapp/agenda-api/internal/models"
)

const appointmentTokenColumns = "token, appointment_id, kind, email, expires_at, consumed_at, created_at"

// TokenRepository provides persistence for public appointment tokens.
type TokenRepository struct {
	db *sqlx.DB
}

// NewTokenRepository creates a new token repository.
func NewTokenRepository(db *sqlx.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Create persists a new appointment token.
func (r *TokenRepository) Create(ctx context.Context, token *models.AppointmentToken) error {
	if token.Token == "" {
		token.Token = uuid.NewString()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO appointment_tokens (token, appointment_id, kind, email, expires_at, consumed_at, created_at) VALUES (:token, :appointment_id, :kind, :email, :expires_at, :consumed_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create appointment token: %w", err)
	}
	return nil
}

// Find loads a token by its value.
func (r *TokenRepository) Find(ctx context.Context, token string) (*models.AppointmentToken, error) {
	const query = `SELECT ` + appointmentTokenColumns + ` FROM appointment_tokens WHERE token = $1`
	var stored models.AppointmentToken
	if err := r.db.GetContext(ctx, &stored, query, token); err != nil {
		return nil, err
	}
	return &stored, nil
}

// FindActive returns an unconsumed, unexpired token for the appointment,
// kind and recipient, if any. Used to avoid issuing duplicates.
func (r *TokenRepository) FindActive(ctx context.Context, appointmentID string, kind models.TokenKind, email string, now time.Time) (*models.AppointmentToken, error) {
	const query = `SELECT ` + appointmentTokenColumns + ` FROM appointment_tokens WHERE appointment_id = $1 AND kind = $2 AND email = $3 AND consumed_at IS NULL AND expires_at > $4 ORDER BY created_at DESC LIMIT 1`
	var stored models.AppointmentToken
	if err := r.db.GetContext(ctx, &stored, query, appointmentID, kind, email, now); err != nil {
		return nil, err
	}
	return &stored, nil
}

// Consume marks a token used.
func (r *TokenRepository) Consume(ctx context.Context, token string, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE appointment_tokens SET consumed_at = $1 WHERE token = $2`, at, token); err != nil {
		return fmt.Errorf("consume appointment token: %w", err)
	}
	return nil
}

// DeleteExpired prunes tokens whose expiry is past the cutoff.
func (r *TokenRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointment_tokens WHERE expires_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired appointment tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
