package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acolheapp/agenda-api/internal/dto"
	"github.com/acolheapp/agenda-api/internal/models"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
)

type availabilityRepository interface {
	ListByProfessional(ctx context.Context, professionalID string) ([]models.AvailabilityWindow, error)
	Replace(ctx context.Context, professionalID string, windows []models.AvailabilityWindow) error
}

type availabilityProfessionalReader interface {
	FindByID(ctx context.Context, id string) (*models.Professional, error)
}

type availabilityAuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AvailabilityService manages the weekly templates the slot engine reads.
type AvailabilityService struct {
	repo          availabilityRepository
	professionals availabilityProfessionalReader
	audit         availabilityAuditWriter
	cache         *CacheService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAvailabilityService constructs the availability service.
func NewAvailabilityService(repo availabilityRepository, professionals availabilityProfessionalReader, audit availabilityAuditWriter, cache *CacheService, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, professionals: professionals, audit: audit, cache: cache, validator: validator.New(), logger: logger}
}

// Get returns the professional's weekly template ordered by weekday and start.
func (s *AvailabilityService) Get(ctx context.Context, professionalID string) ([]models.AvailabilityWindow, error) {
	if _, err := s.professionals.FindByID(ctx, professionalID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "professional not found")
	}
	windows, err := s.repo.ListByProfessional(ctx, professionalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	return windows, nil
}

// Replace swaps the professional's whole weekly template in one transaction.
// An empty request clears it, which makes every future slot query come back
// empty.
func (s *AvailabilityService) Replace(ctx context.Context, professionalID string, req dto.ReplaceAvailabilityRequest, actorID string) ([]models.AvailabilityWindow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if _, err := s.professionals.FindByID(ctx, professionalID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "professional not found")
	}

	windows, err := buildWindows(professionalID, req.Windows)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Replace(ctx, professionalID, windows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}

	if err := s.cache.Invalidate(ctx, fmt.Sprintf("slots:%s:*", professionalID)); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.String("professional_id", professionalID), zap.Error(err))
	}
	s.writeAudit(ctx, actorID, professionalID, windows)

	s.logger.Info("availability replaced",
		zap.String("professional_id", professionalID),
		zap.Int("windows", len(windows)))
	return windows, nil
}

// buildWindows validates and materialises the requested template. Windows on
// the same weekday must not overlap; touching boundaries are fine.
func buildWindows(professionalID string, inputs []dto.WindowInput) ([]models.AvailabilityWindow, error) {
	now := time.Now().UTC()
	windows := make([]models.AvailabilityWindow, 0, len(inputs))
	for _, in := range inputs {
		if in.Weekday < 0 || in.Weekday > 6 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weekday %d out of range", in.Weekday))
		}
		start, err := models.ParseTimeOfDay(in.StartOfDay)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		end, err := models.ParseTimeOfDay(in.EndOfDay)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		if start >= end {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window %s-%s must start before it ends", start, end))
		}
		windows = append(windows, models.AvailabilityWindow{
			ID:             uuid.NewString(),
			ProfessionalID: professionalID,
			Weekday:        time.Weekday(in.Weekday),
			StartOfDay:     start,
			EndOfDay:       end,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].Weekday != windows[j].Weekday {
			return windows[i].Weekday < windows[j].Weekday
		}
		return windows[i].StartOfDay < windows[j].StartOfDay
	})
	for i := 1; i < len(windows); i++ {
		prev, cur := windows[i-1], windows[i]
		if prev.Weekday == cur.Weekday && cur.StartOfDay < prev.EndOfDay {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("windows overlap on weekday %d", cur.Weekday))
		}
	}
	return windows, nil
}

func (s *AvailabilityService) writeAudit(ctx context.Context, actorID, professionalID string, windows []models.AvailabilityWindow) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		Action:     models.AuditActionAvailabilityChange,
		Resource:   "availability_windows",
		ResourceID: &professionalID,
		CreatedAt:  time.Now().UTC(),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if raw, err := json.Marshal(windows); err == nil {
		entry.NewValues = raw
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed", zap.String("professional_id", professionalID), zap.Error(err))
	}
}
