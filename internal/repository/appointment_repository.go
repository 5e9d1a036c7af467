package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acolheapp/agenda-api/internal/models"
)

const appointmentColumns = "id, professional_id, student_id, service, location, status, starts_at, ends_at, confirmed_at, cancelled_at, reminder_sent_at, created_at, updated_at"

// AppointmentRepository provides persistence for the appointment ledger.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository creates a new appointment repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// ListOverlapping returns all non-cancelled appointments for the professional
// whose interval intersects [from, to). The predicate is the standard
// half-open overlap test: starts_at < to AND ends_at > from.
func (r *AppointmentRepository) ListOverlapping(ctx context.Context, professionalID string, from, to time.Time) ([]models.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + ` FROM appointments WHERE professional_id = $1 AND status <> 'CANCELLED' AND starts_at < $2 AND ends_at > $3 ORDER BY starts_at ASC`
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, professionalID, to, from); err != nil {
		return nil, fmt.Errorf("list overlapping appointments: %w", err)
	}
	return appointments, nil
}

// Insert stores a new appointment. Constraint violations (the exclusion
// constraint on overlapping intervals included) are returned untranslated so
// the service layer can map them to a conflict outcome.
func (r *AppointmentRepository) Insert(ctx context.Context, appointment *models.Appointment) error {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = now
	}
	appointment.UpdatedAt = now

	const query = `INSERT INTO appointments (id, professional_id, student_id, service, location, status, starts_at, ends_at, confirmed_at, cancelled_at, reminder_sent_at, created_at, updated_at) VALUES (:id, :professional_id, :student_id, :service, :location, :status, :starts_at, :ends_at, :confirmed_at, :cancelled_at, :reminder_sent_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appointment); err != nil {
		return err
	}
	return nil
}

// FindByID loads an appointment by id.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	var appointment models.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, err
	}
	return &appointment, nil
}

// UpdateStatus transitions an appointment and stamps the matching timestamp
// column for CONFIRMED and CANCELLED.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	now := time.Now().UTC()
	var query string
	switch status {
	case models.StatusConfirmed:
		query = `UPDATE appointments SET status = $1, confirmed_at = $2, updated_at = $2 WHERE id = $3`
	case models.StatusCancelled:
		query = `UPDATE appointments SET status = $1, cancelled_at = $2, updated_at = $2 WHERE id = $3`
	default:
		query = `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`
	}
	if _, err := r.db.ExecContext(ctx, query, status, now, id); err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}

// List returns appointments with optional filtering and pagination.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	base := "FROM appointments WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.ProfessionalID != "" {
		conditions = append(conditions, fmt.Sprintf("professional_id = $%d", len(args)+1))
		args = append(args, filter.ProfessionalID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("ends_at > $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("starts_at < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"starts_at":  true,
		"status":     true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "starts_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", appointmentColumns, base, sortBy, order, size, offset)
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	return appointments, total, nil
}

// ListUpcomingUnreminded returns active appointments starting within
// [from, to) that have not yet had their reminder recorded.
func (r *AppointmentRepository) ListUpcomingUnreminded(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + ` FROM appointments WHERE status IN ('SCHEDULED', 'CONFIRMED') AND reminder_sent_at IS NULL AND starts_at >= $1 AND starts_at < $2 ORDER BY starts_at ASC`
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, from, to); err != nil {
		return nil, fmt.Errorf("list upcoming unreminded appointments: %w", err)
	}
	return appointments, nil
}

// MarkReminderSent records that the reminder for an appointment was handed
// off at the given time.
func (r *AppointmentRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE appointments SET reminder_sent_at = $1, updated_at = $1 WHERE id = $2 AND reminder_sent_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
