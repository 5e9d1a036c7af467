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

const professionalColumns = "id, full_name, speciality, active, user_id, created_at, updated_at"

// ProfessionalRepository provides persistence for professionals.
type ProfessionalRepository struct {
	db *sqlx.DB
}

// NewProfessionalRepository creates a new professional repository.
func NewProfessionalRepository(db *sqlx.DB) *ProfessionalRepository {
	return &ProfessionalRepository{db: db}
}

// List returns professionals with optional filtering and pagination.
func (r *ProfessionalRepository) List(ctx context.Context, filter models.ProfessionalFilter) ([]models.Professional, int, error) {
	base := "FROM professionals WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR speciality ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.Speciality != "" {
		conditions = append(conditions, fmt.Sprintf("speciality = $%d", len(args)+1))
		args = append(args, filter.Speciality)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"full_name":  true,
		"speciality": true,
		"created_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "full_name"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", professionalColumns, base, sortBy, order, size, offset)
	var professionals []models.Professional
	if err := r.db.SelectContext(ctx, &professionals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list professionals: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count professionals: %w", err)
	}

	return professionals, total, nil
}

// FindByID loads a professional by id.
func (r *ProfessionalRepository) FindByID(ctx context.Context, id string) (*models.Professional, error) {
	const query = `SELECT ` + professionalColumns + ` FROM professionals WHERE id = $1`
	var professional models.Professional
	if err := r.db.GetContext(ctx, &professional, query, id); err != nil {
		return nil, err
	}
	return &professional, nil
}

// FindByUserID loads the professional linked to a user account.
func (r *ProfessionalRepository) FindByUserID(ctx context.Context, userID string) (*models.Professional, error) {
	const query = `SELECT ` + professionalColumns + ` FROM professionals WHERE user_id = $1`
	var professional models.Professional
	if err := r.db.GetContext(ctx, &professional, query, userID); err != nil {
		return nil, err
	}
	return &professional, nil
}

// Create stores a new professional record.
func (r *ProfessionalRepository) Create(ctx context.Context, professional *models.Professional) error {
	if professional.ID == "" {
		professional.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if professional.CreatedAt.IsZero() {
		professional.CreatedAt = now
	}
	professional.UpdatedAt = now

	const query = `INSERT INTO professionals (id, full_name, speciality, active, user_id, created_at, updated_at) VALUES (:id, :full_name, :speciality, :active, :user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, professional); err != nil {
		return fmt.Errorf("create professional: %w", err)
	}
	return nil
}

// Update modifies a professional record.
func (r *ProfessionalRepository) Update(ctx context.Context, professional *models.Professional) error {
	professional.UpdatedAt = time.Now().UTC()
	const query = `UPDATE professionals SET full_name = :full_name, speciality = :speciality, active = :active, user_id = :user_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, professional); err != nil {
		return fmt.Errorf("update professional: %w", err)
	}
	return nil
}

// Deactivate marks a professional inactive without deleting history.
func (r *ProfessionalRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE professionals SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate professional: %w", err)
	}
	return nil
}
