package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acolheapp/agenda-api/internal/models"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
)

type professionalRepository interface {
	List(ctx context.Context, filter models.ProfessionalFilter) ([]models.Professional, int, error)
	FindByID(ctx context.Context, id string) (*models.Professional, error)
	Create(ctx context.Context, professional *models.Professional) error
	Update(ctx context.Context, professional *models.Professional) error
	Deactivate(ctx context.Context, id string) error
}

// CreateProfessionalRequest holds payload for registering professionals.
type CreateProfessionalRequest struct {
	FullName   string  `json:"full_name" validate:"required,min=2,max=150"`
	Speciality *string `json:"speciality" validate:"omitempty,max=120"`
	UserID     *string `json:"user_id" validate:"omitempty,uuid4"`
}

// UpdateProfessionalRequest holds payload for updating professionals.
type UpdateProfessionalRequest struct {
	FullName   string  `json:"full_name" validate:"required,min=2,max=150"`
	Speciality *string `json:"speciality" validate:"omitempty,max=120"`
	Active     bool    `json:"active"`
}

// ProfessionalService handles professional use-cases.
type ProfessionalService struct {
	repo      professionalRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfessionalService constructs the professional service.
func NewProfessionalService(repo professionalRepository, validate *validator.Validate, logger *zap.Logger) *ProfessionalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessionalService{repo: repo, validator: validate, logger: logger}
}

// List returns professionals and pagination metadata.
func (s *ProfessionalService) List(ctx context.Context, filter models.ProfessionalFilter) ([]models.Professional, *models.Pagination, error) {
	professionals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list professionals")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return professionals, pagination, nil
}

// Get returns one professional.
func (s *ProfessionalService) Get(ctx context.Context, id string) (*models.Professional, error) {
	professional, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "professional not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load professional")
	}
	return professional, nil
}

// Create registers a new professional. New professionals start active but
// bookable only once availability windows exist.
func (s *ProfessionalService) Create(ctx context.Context, req CreateProfessionalRequest) (*models.Professional, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professional payload")
	}
	now := time.Now().UTC()
	professional := &models.Professional{
		ID:         uuid.NewString(),
		FullName:   req.FullName,
		Speciality: req.Speciality,
		Active:     true,
		UserID:     req.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, professional); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create professional")
	}
	s.logger.Info("professional created", zap.String("professional_id", professional.ID))
	return professional, nil
}

// Update applies profile changes to an existing professional.
func (s *ProfessionalService) Update(ctx context.Context, id string, req UpdateProfessionalRequest) (*models.Professional, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid professional payload")
	}
	professional, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	professional.FullName = req.FullName
	professional.Speciality = req.Speciality
	professional.Active = req.Active
	professional.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, professional); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update professional")
	}
	return professional, nil
}

// Deactivate stops a professional from accepting new bookings. Existing
// appointments keep their status.
func (s *ProfessionalService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate professional")
	}
	s.logger.Info("professional deactivated", zap.String("professional_id", id))
	return nil
}
