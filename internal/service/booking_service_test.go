package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acolheapp/agenda-api/internal/dto"
	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/pkg/config"
	appErrors "github.com/acolheapp/agenda-api/pkg/errors"
)

type mockBookingLedger struct {
	items     map[string]*models.Appointment
	insertErr error
	statuses  []models.AppointmentStatus
}

func (m *mockBookingLedger) Insert(ctx context.Context, appointment *models.Appointment) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if m.items == nil {
		m.items = make(map[string]*models.Appointment)
	}
	cp := *appointment
	m.items[appointment.ID] = &cp
	return nil
}

func (m *mockBookingLedger) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	if a, ok := m.items[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingLedger) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	m.statuses = append(m.statuses, status)
	if a, ok := m.items[id]; ok {
		a.Status = status
	}
	return nil
}

func (m *mockBookingLedger) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	var out []models.Appointment
	for _, a := range m.items {
		out = append(out, *a)
	}
	return out, len(out), nil
}

type mockProfessionalReader struct {
	items map[string]*models.Professional
}

func (m *mockProfessionalReader) FindByID(ctx context.Context, id string) (*models.Professional, error) {
	if p, ok := m.items[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudentReader struct {
	items map[string]*models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.items[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockTokenRepo struct {
	tokens   map[string]*models.AppointmentToken
	consumed []string
}

func (m *mockTokenRepo) Create(ctx context.Context, token *models.AppointmentToken) error {
	if m.tokens == nil {
		m.tokens = make(map[string]*models.AppointmentToken)
	}
	cp := *token
	m.tokens[token.Token] = &cp
	return nil
}

func (m *mockTokenRepo) Find(ctx context.Context, token string) (*models.AppointmentToken, error) {
	if t, ok := m.tokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTokenRepo) FindActive(ctx context.Context, appointmentID string, kind models.TokenKind, email string, now time.Time) (*models.AppointmentToken, error) {
	for _, t := range m.tokens {
		if t.AppointmentID == appointmentID && t.Kind == kind && t.Email == email && t.Usable(now) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockTokenRepo) Consume(ctx context.Context, token string, at time.Time) error {
	m.consumed = append(m.consumed, token)
	if t, ok := m.tokens[token]; ok {
		t.ConsumedAt = &at
	}
	return nil
}

type mockAuditWriter struct {
	entries []models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, *log)
	return nil
}

type stubFreeChecker struct {
	free bool
	fits bool
	err  error
}

func (s *stubFreeChecker) IsFree(ctx context.Context, professionalID string, startsAt, endsAt time.Time) (bool, error) {
	return s.free, s.err
}

func (s *stubFreeChecker) FitsAvailability(ctx context.Context, professionalID string, startsAt, endsAt time.Time) (bool, error) {
	return s.fits, s.err
}

func coordinator() Actor {
	return Actor{ID: "u1", Role: models.RoleCoordination}
}

func newBookingFixture(ledger *mockBookingLedger, checker *stubFreeChecker) (*BookingService, *mockAuditWriter, *mockTokenRepo) {
	professionals := &mockProfessionalReader{items: map[string]*models.Professional{
		"7b45ab1c-6d9e-4c0f-9e40-2f3e9b5c1a11": {ID: "7b45ab1c-6d9e-4c0f-9e40-2f3e9b5c1a11", FullName: "Dr. Ana", Active: true},
	}}
	students := &mockStudentReader{items: map[string]*models.Student{
		"f9c3d2e1-8a7b-4c5d-9e0f-1a2b3c4d5e6f": {ID: "f9c3d2e1-8a7b-4c5d-9e0f-1a2b3c4d5e6f", FullName: "Joao", GuardianUserID: "g1"},
	}}
	tokens := &mockTokenRepo{}
	audit := &mockAuditWriter{}
	svc := NewBookingService(ledger, professionals, students, tokens, audit, checker, nil, nil, config.BookingsConfig{TokenTTL: 48 * time.Hour}, zap.NewNop())
	return svc, audit, tokens
}

func validReserveRequest() dto.ReserveRequest {
	return dto.ReserveRequest{
		ProfessionalID: "7b45ab1c-6d9e-4c0f-9e40-2f3e9b5c1a11",
		StudentID:      "f9c3d2e1-8a7b-4c5d-9e0f-1a2b3c4d5e6f",
		Service:        "speech therapy",
		StartsAt:       monday(14, 0),
		EndsAt:         monday(14, 30),
	}
}

func TestBookingServiceReserve(t *testing.T) {
	ledger := &mockBookingLedger{}
	svc, audit, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	appointment, err := svc.Reserve(context.Background(), validReserveRequest(), coordinator())
	require.NoError(t, err)

	assert.Equal(t, models.StatusScheduled, appointment.Status)
	assert.Equal(t, monday(14, 0), appointment.StartsAt)
	assert.Len(t, ledger.items, 1)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionAppointmentCreate, audit.entries[0].Action)
}

func TestBookingServiceReserveBusyInterval(t *testing.T) {
	svc, _, _ := newBookingFixture(&mockBookingLedger{}, &stubFreeChecker{free: false, fits: true})

	_, err := svc.Reserve(context.Background(), validReserveRequest(), coordinator())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceReserveInvertedRange(t *testing.T) {
	svc, _, _ := newBookingFixture(&mockBookingLedger{}, &stubFreeChecker{free: true, fits: true})

	req := validReserveRequest()
	req.StartsAt, req.EndsAt = req.EndsAt, req.StartsAt
	_, err := svc.Reserve(context.Background(), req, coordinator())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceReserveExclusionViolation(t *testing.T) {
	// The pre-check said free; the constraint said otherwise. The loser of
	// the race gets a conflict, not an internal error.
	ledger := &mockBookingLedger{insertErr: &pq.Error{Code: "23P01"}}
	svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	_, err := svc.Reserve(context.Background(), validReserveRequest(), coordinator())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceReserveUniqueViolation(t *testing.T) {
	ledger := &mockBookingLedger{insertErr: &pq.Error{Code: "23505"}}
	svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	_, err := svc.Reserve(context.Background(), validReserveRequest(), coordinator())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceReserveOtherInsertError(t *testing.T) {
	ledger := &mockBookingLedger{insertErr: assert.AnError}
	svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	_, err := svc.Reserve(context.Background(), validReserveRequest(), coordinator())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorageUnavailable.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceReserveInactiveProfessional(t *testing.T) {
	ledger := &mockBookingLedger{}
	svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})
	svc.professionals.(*mockProfessionalReader).items["7b45ab1c-6d9e-4c0f-9e40-2f3e9b5c1a11"].Active = false

	_, err := svc.Reserve(context.Background(), validReserveRequest(), coordinator())
	require.Error(t, err)
	assert.Empty(t, ledger.items)
}

func TestBookingServiceReserveOutsideAvailability(t *testing.T) {
	// A professional with no window covering the interval (including one with
	// no windows at all) must not accept the booking, even when the ledger has
	// nothing overlapping it.
	ledger := &mockBookingLedger{}
	svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: false})

	_, err := svc.Reserve(context.Background(), validReserveRequest(), coordinator())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, ledger.items)
}

func TestBookingServiceReserveFamilyOwnGuardian(t *testing.T) {
	ledger := &mockBookingLedger{}
	svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	_, err := svc.Reserve(context.Background(), validReserveRequest(), Actor{ID: "g1", Role: models.RoleFamily})
	require.NoError(t, err)
	assert.Len(t, ledger.items, 1)
}

func TestBookingServiceReserveFamilyOtherGuardian(t *testing.T) {
	ledger := &mockBookingLedger{}
	svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	_, err := svc.Reserve(context.Background(), validReserveRequest(), Actor{ID: "g2", Role: models.RoleFamily})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, ledger.items)
}

func TestBookingServiceCancelFamilyOwnership(t *testing.T) {
	newLedger := func() *mockBookingLedger {
		return &mockBookingLedger{items: map[string]*models.Appointment{
			"a1": {ID: "a1", ProfessionalID: "p1", StudentID: "f9c3d2e1-8a7b-4c5d-9e0f-1a2b3c4d5e6f", Status: models.StatusScheduled, StartsAt: monday(14, 0), EndsAt: monday(15, 0)},
		}}
	}

	t.Run("guardian of the student", func(t *testing.T) {
		svc, _, _ := newBookingFixture(newLedger(), &stubFreeChecker{free: true, fits: true})
		appointment, err := svc.Cancel(context.Background(), "a1", Actor{ID: "g1", Role: models.RoleFamily})
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, appointment.Status)
	})

	t.Run("unrelated guardian", func(t *testing.T) {
		ledger := newLedger()
		svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})
		_, err := svc.Cancel(context.Background(), "a1", Actor{ID: "g2", Role: models.RoleFamily})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
		assert.Equal(t, models.StatusScheduled, ledger.items["a1"].Status)
	})
}

func TestBookingServiceStatusTransitions(t *testing.T) {
	cases := []struct {
		name    string
		current models.AppointmentStatus
		next    models.AppointmentStatus
		ok      bool
	}{
		{"scheduled to confirmed", models.StatusScheduled, models.StatusConfirmed, true},
		{"scheduled to cancelled", models.StatusScheduled, models.StatusCancelled, true},
		{"confirmed to attended", models.StatusConfirmed, models.StatusAttended, true},
		{"confirmed to no-show", models.StatusConfirmed, models.StatusNoShow, true},
		{"cancelled is terminal", models.StatusCancelled, models.StatusConfirmed, false},
		{"attended is terminal", models.StatusAttended, models.StatusCancelled, false},
		{"no-show is terminal", models.StatusNoShow, models.StatusCancelled, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := &mockBookingLedger{items: map[string]*models.Appointment{
				"a1": {ID: "a1", ProfessionalID: "p1", Status: tc.current, StartsAt: monday(14, 0), EndsAt: monday(15, 0)},
			}}
			svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

			appointment, err := svc.ChangeStatus(context.Background(), "a1", tc.next, "u1")
			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, tc.next, appointment.Status)
			} else {
				require.Error(t, err)
				assert.Empty(t, ledger.statuses)
			}
		})
	}
}

func TestBookingServiceCancelStampsCancelledAt(t *testing.T) {
	ledger := &mockBookingLedger{items: map[string]*models.Appointment{
		"a1": {ID: "a1", ProfessionalID: "p1", Status: models.StatusScheduled, StartsAt: monday(14, 0), EndsAt: monday(15, 0)},
	}}
	svc, audit, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	appointment, err := svc.Cancel(context.Background(), "a1", coordinator())
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, appointment.Status)
	assert.NotNil(t, appointment.CancelledAt)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionAppointmentStatus, audit.entries[0].Action)
}

func TestBookingServiceIssueTokenReusesActive(t *testing.T) {
	ledger := &mockBookingLedger{items: map[string]*models.Appointment{
		"a1": {ID: "a1", ProfessionalID: "p1", Status: models.StatusScheduled, StartsAt: monday(14, 0), EndsAt: monday(15, 0)},
	}}
	svc, _, tokens := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	first, err := svc.IssueToken(context.Background(), "a1", models.TokenKindConfirm, "family@example.com")
	require.NoError(t, err)
	second, err := svc.IssueToken(context.Background(), "a1", models.TokenKindConfirm, "family@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.Token, second.Token)
	assert.Len(t, tokens.tokens, 1)
}

func TestBookingServiceRedeemConfirm(t *testing.T) {
	ledger := &mockBookingLedger{items: map[string]*models.Appointment{
		"a1": {ID: "a1", ProfessionalID: "p1", Status: models.StatusScheduled, StartsAt: monday(14, 0), EndsAt: monday(15, 0)},
	}}
	svc, _, tokens := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	issued, err := svc.IssueToken(context.Background(), "a1", models.TokenKindConfirm, "family@example.com")
	require.NoError(t, err)

	result, err := svc.Redeem(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "a1", result.AppointmentID)
	assert.Equal(t, string(models.StatusConfirmed), result.Status)
	assert.Equal(t, []string{issued.Token}, tokens.consumed)
}

func TestBookingServiceRedeemUnknownToken(t *testing.T) {
	svc, _, _ := newBookingFixture(&mockBookingLedger{}, &stubFreeChecker{free: true, fits: true})

	_, err := svc.Redeem(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceRedeemConsumedToken(t *testing.T) {
	ledger := &mockBookingLedger{items: map[string]*models.Appointment{
		"a1": {ID: "a1", ProfessionalID: "p1", Status: models.StatusScheduled, StartsAt: monday(14, 0), EndsAt: monday(15, 0)},
	}}
	svc, _, _ := newBookingFixture(ledger, &stubFreeChecker{free: true, fits: true})

	issued, err := svc.IssueToken(context.Background(), "a1", models.TokenKindCancel, "family@example.com")
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), issued.Token)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), issued.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTokenGone.Code, appErrors.FromError(err).Code)
}
