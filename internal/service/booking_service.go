package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/acolheapp/agenda-api/internal/dto"
	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/pkg/config"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
)

// Postgres error codes the reservation path translates into a conflict.
const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

type bookingLedgerRepository interface {
	Insert(ctx context.Context, appointment *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
}

type bookingProfessionalReader interface {
	FindByID(ctx context.Context, id string) (*models.Professional, error)
}

type bookingStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type bookingTokenRepository interface {
	Create(ctx context.Context, token *models.AppointmentToken) error
	Find(ctx context.Context, token string) (*models.AppointmentToken, error)
	FindActive(ctx context.Context, appointmentID string, kind models.TokenKind, email string, now time.Time) (*models.AppointmentToken, error)
	Consume(ctx context.Context, token string, at time.Time) error
}

type bookingAuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type freeChecker interface {
	IsFree(ctx context.Context, professionalID string, startsAt, endsAt time.Time) (bool, error)
	FitsAvailability(ctx context.Context, professionalID string, startsAt, endsAt time.Time) (bool, error)
}

// Actor identifies the authenticated caller for permission checks. A zero
// Actor means the call came from an internal flow with no user attached.
type Actor struct {
	ID   string
	Role models.UserRole
}

// BookingService owns the appointment ledger: reservations, lifecycle
// transitions and the public token flow. Reservation correctness does not
// rest on the IsFree pre-check; the database exclusion constraint is the
// authority, and a violation of it surfaces here as a conflict.
type BookingService struct {
	ledger        bookingLedgerRepository
	professionals bookingProfessionalReader
	students      bookingStudentReader
	tokens        bookingTokenRepository
	audit         bookingAuditWriter
	slots         freeChecker
	cache         *CacheService
	metrics       *MetricsService
	cfg           config.BookingsConfig
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewBookingService constructs the booking service.
func NewBookingService(ledger bookingLedgerRepository, professionals bookingProfessionalReader, students bookingStudentReader, tokens bookingTokenRepository, audit bookingAuditWriter, slots freeChecker, cache *CacheService, metrics *MetricsService, cfg config.BookingsConfig, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		ledger:        ledger,
		professionals: professionals,
		students:      students,
		tokens:        tokens,
		audit:         audit,
		slots:         slots,
		cache:         cache,
		metrics:       metrics,
		cfg:           cfg,
		validator:     validator.New(),
		logger:        logger,
	}
}

// Reserve books one appointment. The flow is window fit, then pre-check,
// then insert: the pre-check gives fast feedback, the insert is where two
// racing requests for the same interval get serialised by the storage
// constraint, and exactly one of them wins.
func (s *BookingService) Reserve(ctx context.Context, req dto.ReserveRequest, actor Actor) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	startsAt := req.StartsAt.UTC()
	endsAt := req.EndsAt.UTC()
	if !startsAt.Before(endsAt) {
		return nil, appErrors.ErrInvalidRange
	}

	professional, err := s.professionals.FindByID(ctx, req.ProfessionalID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "professional not found")
	}
	if !professional.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "professional is not accepting bookings")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if actor.Role == models.RoleFamily && student.GuardianUserID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is not under this guardian")
	}

	fits, err := s.slots.FitsAvailability(ctx, req.ProfessionalID, startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	if !fits {
		s.metrics.RecordBookingOutcome(BookingOutcomeConflict)
		return nil, appErrors.Clone(appErrors.ErrConflict, "requested time is outside the professional's availability")
	}

	free, err := s.slots.IsFree(ctx, req.ProfessionalID, startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	if !free {
		s.metrics.RecordBookingOutcome(BookingOutcomeConflict)
		return nil, appErrors.ErrConflict
	}

	appointment := &models.Appointment{
		ID:             uuid.NewString(),
		ProfessionalID: req.ProfessionalID,
		StudentID:      req.StudentID,
		Service:        req.Service,
		Location:       req.Location,
		Status:         models.StatusScheduled,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
	}
	if err := s.ledger.Insert(ctx, appointment); err != nil {
		return nil, s.translateInsertError(err)
	}

	s.metrics.RecordBookingOutcome(BookingOutcomeCreated)
	s.invalidateSlots(ctx, appointment.ProfessionalID)
	s.writeAudit(ctx, actor.ID, models.AuditActionAppointmentCreate, appointment.ID, nil, appointment)

	s.logger.Info("appointment reserved",
		zap.String("appointment_id", appointment.ID),
		zap.String("professional_id", appointment.ProfessionalID),
		zap.Time("starts_at", appointment.StartsAt))
	return appointment, nil
}

// Get loads one appointment.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Appointment, error) {
	appointment, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	return appointment, nil
}

// List returns a filtered page of appointments.
func (s *BookingService) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	appointments, total, err := s.ledger.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	return appointments, total, nil
}

// ChangeStatus moves an appointment through its lifecycle. Illegal moves,
// including any transition out of a terminal state, are rejected.
func (s *BookingService) ChangeStatus(ctx context.Context, id string, next models.AppointmentStatus, actorID string) (*models.Appointment, error) {
	appointment, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	if !appointment.Status.CanTransition(next) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot move appointment from %s to %s", appointment.Status, next))
	}
	if err := s.ledger.UpdateStatus(ctx, id, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}

	previous := appointment.Status
	appointment.Status = next
	now := time.Now().UTC()
	switch next {
	case models.StatusConfirmed:
		appointment.ConfirmedAt = &now
	case models.StatusCancelled:
		appointment.CancelledAt = &now
	}

	// Cancelling frees the interval, and every transition can change what a
	// cached grid should show.
	s.invalidateSlots(ctx, appointment.ProfessionalID)
	s.writeAudit(ctx, actorID, models.AuditActionAppointmentStatus, appointment.ID,
		map[string]string{"status": string(previous)},
		map[string]string{"status": string(next)})
	return appointment, nil
}

// Confirm marks a scheduled appointment as confirmed.
func (s *BookingService) Confirm(ctx context.Context, id, actorID string) (*models.Appointment, error) {
	return s.ChangeStatus(ctx, id, models.StatusConfirmed, actorID)
}

// Cancel cancels the appointment, freeing its interval for new bookings. A
// family actor may only cancel appointments for students they guard; staff
// roles and the token flow are not restricted here.
func (s *BookingService) Cancel(ctx context.Context, id string, actor Actor) (*models.Appointment, error) {
	if actor.Role == models.RoleFamily {
		appointment, err := s.ledger.FindByID(ctx, id)
		if err != nil {
			return nil, appErrors.ErrNotFound
		}
		student, err := s.students.FindByID(ctx, appointment.StudentID)
		if err != nil {
			return nil, appErrors.ErrNotFound
		}
		if student.GuardianUserID != actor.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "appointment does not belong to this guardian")
		}
	}
	return s.ChangeStatus(ctx, id, models.StatusCancelled, actor.ID)
}

// MarkAttended records that the session took place.
func (s *BookingService) MarkAttended(ctx context.Context, id, actorID string) (*models.Appointment, error) {
	return s.ChangeStatus(ctx, id, models.StatusAttended, actorID)
}

// MarkNoShow records that the family did not show up.
func (s *BookingService) MarkNoShow(ctx context.Context, id, actorID string) (*models.Appointment, error) {
	return s.ChangeStatus(ctx, id, models.StatusNoShow, actorID)
}

// IssueToken mints a single-use confirm or cancel token for the appointment,
// reusing an unexpired unconsumed one when it exists so repeated reminder
// runs stay idempotent.
func (s *BookingService) IssueToken(ctx context.Context, appointmentID string, kind models.TokenKind, email string) (*models.AppointmentToken, error) {
	now := time.Now().UTC()
	if existing, err := s.tokens.FindActive(ctx, appointmentID, kind, email, now); err == nil && existing != nil {
		return existing, nil
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := &models.AppointmentToken{
		Token:         hex.EncodeToString(raw),
		AppointmentID: appointmentID,
		Kind:          kind,
		Email:         email,
		ExpiresAt:     now.Add(s.cfg.TokenTTL),
		CreatedAt:     now,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
	}
	return token, nil
}

// Redeem consumes a public token and applies the action it encodes. Unknown
// tokens read as not found; consumed or expired ones as gone.
func (s *BookingService) Redeem(ctx context.Context, rawToken string) (*dto.PublicActionResponse, error) {
	token, err := s.tokens.Find(ctx, rawToken)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	now := time.Now().UTC()
	if !token.Usable(now) {
		return nil, appErrors.ErrTokenGone
	}

	next := models.StatusConfirmed
	if token.Kind == models.TokenKindCancel {
		next = models.StatusCancelled
	}
	appointment, err := s.ChangeStatus(ctx, token.AppointmentID, next, "")
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Consume(ctx, rawToken, now); err != nil {
		s.logger.Warn("token consume failed", zap.String("appointment_id", token.AppointmentID), zap.Error(err))
	}
	return &dto.PublicActionResponse{AppointmentID: appointment.ID, Status: string(appointment.Status), ActedAt: now}, nil
}

// translateInsertError maps storage constraint violations to a conflict and
// everything else to storage unavailability.
func (s *BookingService) translateInsertError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation, pgExclusionViolation:
			s.metrics.RecordBookingOutcome(BookingOutcomeConflict)
			return appErrors.ErrConflict
		}
	}
	s.metrics.RecordBookingOutcome(BookingOutcomeError)
	return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, appErrors.ErrStorageUnavailable.Message)
}

func (s *BookingService) invalidateSlots(ctx context.Context, professionalID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("slots:%s:*", professionalID)); err != nil {
		s.logger.Warn("slot cache invalidation failed", zap.String("professional_id", professionalID), zap.Error(err))
	}
}

func (s *BookingService) writeAudit(ctx context.Context, actorID, action, resourceID string, oldValues, newValues interface{}) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		ID:         uuid.NewString(),
		Action:     action,
		Resource:   "appointments",
		ResourceID: &resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if oldValues != nil {
		if raw, err := json.Marshal(oldValues); err == nil {
			entry.OldValues = raw
		}
	}
	if newValues != nil {
		if raw, err := json.Marshal(newValues); err == nil {
			entry.NewValues = raw
		}
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
