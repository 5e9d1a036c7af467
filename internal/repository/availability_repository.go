package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acolheapp/agenda-api/internal/models"
)

const availabilityColumns = "id, professional_id, weekday, start_of_day, end_of_day, created_at, updated_at"

// AvailabilityRepository provides persistence for weekly availability
// windows. Read-mostly; the slot engine only ever reads it.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new availability repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByProfessional returns all windows for a professional ordered by
// weekday and start time.
func (r *AvailabilityRepository) ListByProfessional(ctx context.Context, professionalID string) ([]models.AvailabilityWindow, error) {
	const query = `SELECT ` + availabilityColumns + ` FROM availability_windows WHERE professional_id = $1 ORDER BY weekday ASC, start_of_day ASC`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, professionalID); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return windows, nil
}

// Replace rewrites the professional's whole weekly pattern in one
// transaction. Existing appointments are untouched; the change only affects
// future slot computations.
func (r *AvailabilityRepository) Replace(ctx context.Context, professionalID string, windows []models.AvailabilityWindow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace availability: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM availability_windows WHERE professional_id = $1`, professionalID); err != nil {
		return fmt.Errorf("clear availability windows: %w", err)
	}

	now := time.Now().UTC()
	for i := range windows {
		window := windows[i]
		window.ProfessionalID = professionalID
		if window.ID == "" {
			window.ID = uuid.NewString()
		}
		if window.CreatedAt.IsZero() {
			window.CreatedAt = now
		}
		window.UpdatedAt = now

		if _, err = tx.NamedExecContext(ctx, `INSERT INTO availability_windows (id, professional_id, weekday, start_of_day, end_of_day, created_at, updated_at) VALUES (:id, :professional_id, :weekday, :start_of_day, :end_of_day, :created_at, :updated_at)`, &window); err != nil {
			return fmt.Errorf("insert availability window: %w", err)
		}
		windows[i] = window
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace availability: %w", err)
	}
	return nil
}

// Create stores a single additional window.
func (r *AvailabilityRepository) Create(ctx context.Context, window *models.AvailabilityWindow) error {
	if window.ID == "" {
		window.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if window.CreatedAt.IsZero() {
		window.CreatedAt = now
	}
	window.UpdatedAt = now

	const query = `INSERT INTO availability_windows (id, professional_id, weekday, start_of_day, end_of_day, created_at, updated_at) VALUES (:id, :professional_id, :weekday, :start_of_day, :end_of_day, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, window); err != nil {
		return fmt.Errorf("create availability window: %w", err)
	}
	return nil
}

// Delete removes one window by id scoped to the professional.
func (r *AvailabilityRepository) Delete(ctx context.Context, professionalID, windowID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE id = $1 AND professional_id = $2`, windowID, professionalID)
	if err != nil {
		return fmt.Errorf("delete availability window: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("availability window not found")
	}
	return nil
}
