package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/acolheapp/agenda-api/internal/dto"
	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/pkg/config"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
)

type slotWindowRepository interface {
	ListByProfessional(ctx context.Context, professionalID string) ([]models.AvailabilityWindow, error)
}

type slotLedgerRepository interface {
	ListOverlapping(ctx context.Context, professionalID string, from, to time.Time) ([]models.Appointment, error)
}

// SlotService computes the free grid for a professional: candidate starts
// walk forward from range_start in fixed duration steps, and a candidate
// survives only if it sits inside a weekly window and touches no occupying
// appointment. All arithmetic happens in UTC.
type SlotService struct {
	windows slotWindowRepository
	ledger  slotLedgerRepository
	cache   *CacheService
	metrics *MetricsService
	cfg     config.SlotsConfig
	logger  *zap.Logger
}

// NewSlotService constructs the free-slot engine.
func NewSlotService(windows slotWindowRepository, ledger slotLedgerRepository, cache *CacheService, metrics *MetricsService, cfg config.SlotsConfig, logger *zap.Logger) *SlotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlotService{windows: windows, ledger: ledger, cache: cache, metrics: metrics, cfg: cfg, logger: logger}
}

// ResolveDuration substitutes the configured default for a zero duration.
func (s *SlotService) ResolveDuration(d time.Duration) time.Duration {
	if d == 0 {
		return s.cfg.DefaultDuration
	}
	return d
}

// FreeSlots returns every grid-aligned start instant in [RangeStart, RangeEnd)
// at which an appointment of the requested duration could be booked.
func (s *SlotService) FreeSlots(ctx context.Context, query dto.SlotQuery) ([]dto.Slot, error) {
	duration := query.Duration
	if duration == 0 {
		duration = s.cfg.DefaultDuration
	}
	if err := s.validateRange(query.RangeStart, query.RangeEnd, duration); err != nil {
		return nil, err
	}

	rangeStart := query.RangeStart.UTC()
	rangeEnd := query.RangeEnd.UTC()

	cacheKey := slotCacheKey(query.ProfessionalID, rangeStart, rangeEnd, duration)
	var cached []dto.Slot
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	started := time.Now()
	windows, err := s.windows.ListByProfessional(ctx, query.ProfessionalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	byWeekday := make(map[time.Weekday][]models.AvailabilityWindow, len(windows))
	for _, w := range windows {
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], w)
	}

	busy, err := s.ledger.ListOverlapping(ctx, query.ProfessionalID, rangeStart, rangeEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}

	slots := make([]dto.Slot, 0)
	for candidate := rangeStart; !candidate.Add(duration).After(rangeEnd); candidate = candidate.Add(duration) {
		if !fitsWindow(candidate, duration, byWeekday) {
			continue
		}
		if overlapsAny(busy, candidate, candidate.Add(duration)) {
			continue
		}
		slots = append(slots, dto.Slot{StartsAt: candidate, EndsAt: candidate.Add(duration)})
	}

	s.metrics.ObserveSlotComputation(time.Since(started), len(slots))

	if err := s.cache.Set(ctx, cacheKey, slots, s.cfg.CacheTTL); err != nil {
		s.logger.Debug("slot cache write skipped", zap.Error(err))
	}
	return slots, nil
}

// FitsAvailability reports whether [startsAt, endsAt) lies fully inside one
// of the professional's weekly windows. Booking goes through this before the
// ledger check, so an interval no window covers is rejected before any insert
// is attempted.
func (s *SlotService) FitsAvailability(ctx context.Context, professionalID string, startsAt, endsAt time.Time) (bool, error) {
	if !startsAt.Before(endsAt) {
		return false, appErrors.ErrInvalidRange
	}
	windows, err := s.windows.ListByProfessional(ctx, professionalID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	byWeekday := make(map[time.Weekday][]models.AvailabilityWindow, len(windows))
	for _, w := range windows {
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], w)
	}
	start := startsAt.UTC()
	return fitsWindow(start, endsAt.UTC().Sub(start), byWeekday), nil
}

// IsFree reports whether [startsAt, endsAt) touches no occupying appointment.
// It says nothing about availability windows; FitsAvailability covers the
// weekly template side.
func (s *SlotService) IsFree(ctx context.Context, professionalID string, startsAt, endsAt time.Time) (bool, error) {
	if !startsAt.Before(endsAt) {
		return false, appErrors.ErrInvalidRange
	}
	busy, err := s.ledger.ListOverlapping(ctx, professionalID, startsAt.UTC(), endsAt.UTC())
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	return len(busy) == 0, nil
}

func (s *SlotService) validateRange(start, end time.Time, duration time.Duration) error {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return appErrors.ErrInvalidRange
	}
	if duration <= 0 {
		return appErrors.Clone(appErrors.ErrInvalidRange, "slot duration must be positive")
	}
	if s.cfg.MinDuration > 0 && duration < s.cfg.MinDuration {
		return appErrors.Clone(appErrors.ErrInvalidRange, fmt.Sprintf("slot duration below minimum of %s", s.cfg.MinDuration))
	}
	if s.cfg.MaxDuration > 0 && duration > s.cfg.MaxDuration {
		return appErrors.Clone(appErrors.ErrInvalidRange, fmt.Sprintf("slot duration above maximum of %s", s.cfg.MaxDuration))
	}
	if s.cfg.MaxRange > 0 && end.Sub(start) > s.cfg.MaxRange {
		return appErrors.Clone(appErrors.ErrInvalidRange, fmt.Sprintf("range wider than maximum of %s", s.cfg.MaxRange))
	}
	return nil
}

// fitsWindow decides whether a candidate slot lies fully inside one of the
// professional's windows for that weekday. A slot that would cross UTC
// midnight never fits, matching the window model itself.
func fitsWindow(candidate time.Time, duration time.Duration, byWeekday map[time.Weekday][]models.AvailabilityWindow) bool {
	tod := sinceMidnight(candidate)
	if tod+duration > 24*time.Hour {
		return false
	}
	for _, w := range byWeekday[candidate.Weekday()] {
		if tod >= w.StartOfDay.Duration() && tod+duration <= w.EndOfDay.Duration() {
			return true
		}
	}
	return false
}

func overlapsAny(busy []models.Appointment, start, end time.Time) bool {
	for i := range busy {
		if busy[i].Overlaps(start, end) {
			return true
		}
	}
	return false
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

func slotCacheKey(professionalID string, start, end time.Time, duration time.Duration) string {
	return fmt.Sprintf("slots:%s:%d:%d:%d", professionalID, start.Unix(), end.Unix(), int(duration.Minutes()))
}
