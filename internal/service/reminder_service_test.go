package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acolheapp/agenda-api/internal/models"
	"github.com/acolheapp/agenda-api/pkg/config"
	"github.com/acolheapp/agenda-api/pkg/jobs"
)

type mockReminderLedger struct {
	mu       sync.Mutex
	upcoming []models.Appointment
	marked   []string
}

func (m *mockReminderLedger) ListUpcomingUnreminded(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	return m.upcoming, nil
}

func (m *mockReminderLedger) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.marked = append(m.marked, id)
	return nil
}

func (m *mockReminderLedger) markedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.marked)
}

type mockUserReader struct {
	items map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.items[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockTokenIssuer struct {
	issued []models.TokenKind
}

func (m *mockTokenIssuer) IssueToken(ctx context.Context, appointmentID string, kind models.TokenKind, email string) (*models.AppointmentToken, error) {
	m.issued = append(m.issued, kind)
	return &models.AppointmentToken{Token: "tok", AppointmentID: appointmentID, Kind: kind, Email: email}, nil
}

type mockTokenPruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	pruned  int64
}

func (m *mockTokenPruner) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cutoffs = append(m.cutoffs, cutoff)
	return m.pruned, nil
}

func TestReminderServiceHandle(t *testing.T) {
	ledger := &mockReminderLedger{}
	students := &mockStudentReader{items: map[string]*models.Student{
		"s1": {ID: "s1", FullName: "Joao", GuardianUserID: "g1"},
	}}
	users := &mockUserReader{items: map[string]*models.User{
		"g1": {ID: "g1", Email: "family@example.com"},
	}}
	issuer := &mockTokenIssuer{}
	svc := NewReminderService(ledger, students, users, issuer, &mockTokenPruner{}, config.RemindersConfig{Enabled: true, Lead: 48 * time.Hour}, zap.NewNop())

	appointment := models.Appointment{ID: "a1", StudentID: "s1", StartsAt: monday(14, 0), EndsAt: monday(15, 0), Status: models.StatusScheduled}
	err := svc.handle(context.Background(), jobs.Job{ID: "j1", Type: "reminder", Payload: appointment})
	require.NoError(t, err)

	assert.Equal(t, []models.TokenKind{models.TokenKindConfirm, models.TokenKindCancel}, issuer.issued)
	assert.Equal(t, []string{"a1"}, ledger.marked)
}

func TestReminderServiceHandleUnknownGuardian(t *testing.T) {
	ledger := &mockReminderLedger{}
	students := &mockStudentReader{items: map[string]*models.Student{
		"s1": {ID: "s1", FullName: "Joao", GuardianUserID: "ghost"},
	}}
	users := &mockUserReader{items: map[string]*models.User{}}
	issuer := &mockTokenIssuer{}
	svc := NewReminderService(ledger, students, users, issuer, &mockTokenPruner{}, config.RemindersConfig{Enabled: true}, zap.NewNop())

	appointment := models.Appointment{ID: "a1", StudentID: "s1"}
	err := svc.handle(context.Background(), jobs.Job{ID: "j1", Type: "reminder", Payload: appointment})
	require.Error(t, err)
	assert.Empty(t, issuer.issued)
	assert.Empty(t, ledger.marked)
}

func TestReminderServiceScanEnqueues(t *testing.T) {
	ledger := &mockReminderLedger{upcoming: []models.Appointment{
		{ID: "a1", StudentID: "s1", StartsAt: monday(14, 0), EndsAt: monday(15, 0), Status: models.StatusConfirmed},
	}}
	students := &mockStudentReader{items: map[string]*models.Student{
		"s1": {ID: "s1", FullName: "Joao", GuardianUserID: "g1"},
	}}
	users := &mockUserReader{items: map[string]*models.User{
		"g1": {ID: "g1", Email: "family@example.com"},
	}}
	issuer := &mockTokenIssuer{}
	pruner := &mockTokenPruner{pruned: 3}
	svc := NewReminderService(ledger, students, users, issuer, pruner, config.RemindersConfig{Enabled: true, Lead: 48 * time.Hour, Workers: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.queue.Start(ctx)
	defer svc.queue.Stop()

	require.NoError(t, svc.Scan(ctx))

	assert.Eventually(t, func() bool {
		return ledger.markedCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestReminderServiceScanPrunesExpiredTokens(t *testing.T) {
	ledger := &mockReminderLedger{}
	students := &mockStudentReader{items: map[string]*models.Student{}}
	users := &mockUserReader{items: map[string]*models.User{}}
	pruner := &mockTokenPruner{}
	svc := NewReminderService(ledger, students, users, &mockTokenIssuer{}, pruner, config.RemindersConfig{Enabled: true, Lead: 48 * time.Hour}, zap.NewNop())

	before := time.Now().UTC()
	require.NoError(t, svc.Scan(context.Background()))

	require.Len(t, pruner.cutoffs, 1)
	cutoff := pruner.cutoffs[0]
	assert.False(t, cutoff.Before(before))
	assert.False(t, cutoff.After(time.Now().UTC()))
}
