package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/pkg/config"
	"github.com/acolheapp/agenda-api/pkg/jobs"
)

type reminderLedgerRepository interface {
	ListUpcomingUnreminded(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

type reminderGuardianResolver interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type reminderUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type tokenIssuer interface {
	IssueToken(ctx context.Context, appointmentID string, kind models.TokenKind, email string) (*models.AppointmentToken, error)
}

type tokenPruner interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReminderService scans the ledger for appointments entering the reminder
// window and issues confirm/cancel tokens for each one. Message delivery is
// someone else's job; this service's record is the token pair plus the
// reminder_sent_at stamp, which also keeps repeated scans idempotent.
type ReminderService struct {
	ledger   reminderLedgerRepository
	students reminderGuardianResolver
	users    reminderUserReader
	bookings tokenIssuer
	tokens   tokenPruner
	queue    *jobs.Queue
	cfg      config.RemindersConfig
	logger   *zap.Logger
	cancel   context.CancelFunc
}

// NewReminderService constructs the reminder scanner.
func NewReminderService(ledger reminderLedgerRepository, students reminderGuardianResolver, users reminderUserReader, bookings tokenIssuer, tokens tokenPruner, cfg config.RemindersConfig, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReminderService{ledger: ledger, students: students, users: users, bookings: bookings, tokens: tokens, cfg: cfg, logger: logger}
	s.queue = jobs.NewQueue("reminders", s.handle, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the workers and the periodic scan loop.
func (s *ReminderService) Start(ctx context.Context) {
	if !s.cfg.Enabled {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.queue.Start(ctx)
	go s.loop(ctx)
}

// Stop ends the scan loop and drains the workers.
func (s *ReminderService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.queue.Stop()
}

func (s *ReminderService) loop(ctx context.Context) {
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := s.Scan(ctx); err != nil {
			s.logger.Warn("reminder scan failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Scan enqueues one job per appointment inside [now, now+lead) that has not
// been reminded yet, then prunes tokens that expired before now.
func (s *ReminderService) Scan(ctx context.Context) error {
	now := time.Now().UTC()
	if s.tokens != nil {
		if pruned, err := s.tokens.DeleteExpired(ctx, now); err != nil {
			s.logger.Warn("token pruning failed", zap.Error(err))
		} else if pruned > 0 {
			s.logger.Info("expired tokens pruned", zap.Int64("count", pruned))
		}
	}
	appointments, err := s.ledger.ListUpcomingUnreminded(ctx, now, now.Add(s.cfg.Lead))
	if err != nil {
		return fmt.Errorf("list upcoming appointments: %w", err)
	}
	for _, appointment := range appointments {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    "reminder",
			Payload: appointment,
		}
		if err := s.queue.Enqueue(job); err != nil {
			return fmt.Errorf("enqueue reminder: %w", err)
		}
	}
	if len(appointments) > 0 {
		s.logger.Info("reminders enqueued", zap.Int("count", len(appointments)))
	}
	return nil
}

func (s *ReminderService) handle(ctx context.Context, job jobs.Job) error {
	appointment, ok := job.Payload.(models.Appointment)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	email, err := s.guardianEmail(ctx, appointment.StudentID)
	if err != nil {
		return err
	}
	if _, err := s.bookings.IssueToken(ctx, appointment.ID, models.TokenKindConfirm, email); err != nil {
		return fmt.Errorf("issue confirm token: %w", err)
	}
	if _, err := s.bookings.IssueToken(ctx, appointment.ID, models.TokenKindCancel, email); err != nil {
		return fmt.Errorf("issue cancel token: %w", err)
	}
	if err := s.ledger.MarkReminderSent(ctx, appointment.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}

	s.logger.Info("reminder prepared",
		zap.String("appointment_id", appointment.ID),
		zap.Time("starts_at", appointment.StartsAt))
	return nil
}

func (s *ReminderService) guardianEmail(ctx context.Context, studentID string) (string, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return "", fmt.Errorf("load student: %w", err)
	}
	guardian, err := s.users.FindByID(ctx, student.GuardianUserID)
	if err != nil {
		return "", fmt.Errorf("load guardian: %w", err)
	}
	return guardian.Email, nil
}
