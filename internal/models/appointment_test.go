package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func interval(startHour, endHour int) *Appointment {
	day := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	return &Appointment{
		StartsAt: day.Add(time.Duration(startHour) * time.Hour),
		EndsAt:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

func TestAppointmentOverlaps(t *testing.T) {
	a := interval(10, 12)

	assert.True(t, a.Overlaps(interval(11, 13).StartsAt, interval(11, 13).EndsAt))
	assert.True(t, a.Overlaps(interval(9, 11).StartsAt, interval(9, 11).EndsAt))
	assert.True(t, a.Overlaps(interval(10, 12).StartsAt, interval(10, 12).EndsAt))
	assert.True(t, a.Overlaps(interval(9, 13).StartsAt, interval(9, 13).EndsAt))

	// Touching boundaries do not overlap.
	assert.False(t, a.Overlaps(interval(12, 14).StartsAt, interval(12, 14).EndsAt))
	assert.False(t, a.Overlaps(interval(8, 10).StartsAt, interval(8, 10).EndsAt))
	assert.False(t, a.Overlaps(interval(13, 15).StartsAt, interval(13, 15).EndsAt))
}

func TestAppointmentOverlapsSymmetry(t *testing.T) {
	pairs := [][2]*Appointment{
		{interval(10, 12), interval(11, 13)},
		{interval(10, 12), interval(12, 14)},
		{interval(10, 12), interval(9, 15)},
		{interval(10, 12), interval(13, 14)},
	}
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		assert.Equal(t, a.Overlaps(b.StartsAt, b.EndsAt), b.Overlaps(a.StartsAt, a.EndsAt))
	}
}

func TestStatusOccupies(t *testing.T) {
	assert.True(t, StatusScheduled.Occupies())
	assert.True(t, StatusConfirmed.Occupies())
	assert.True(t, StatusAttended.Occupies())
	assert.True(t, StatusNoShow.Occupies())
	assert.False(t, StatusCancelled.Occupies())
}

func TestStatusCanTransition(t *testing.T) {
	assert.True(t, StatusScheduled.CanTransition(StatusConfirmed))
	assert.True(t, StatusScheduled.CanTransition(StatusCancelled))
	assert.True(t, StatusScheduled.CanTransition(StatusAttended))
	assert.True(t, StatusScheduled.CanTransition(StatusNoShow))
	assert.True(t, StatusConfirmed.CanTransition(StatusCancelled))
	assert.True(t, StatusConfirmed.CanTransition(StatusAttended))
	assert.True(t, StatusConfirmed.CanTransition(StatusNoShow))

	assert.False(t, StatusConfirmed.CanTransition(StatusScheduled))
	for _, terminal := range []AppointmentStatus{StatusAttended, StatusNoShow, StatusCancelled} {
		for _, next := range []AppointmentStatus{StatusScheduled, StatusConfirmed, StatusAttended, StatusNoShow, StatusCancelled} {
			assert.False(t, terminal.CanTransition(next), "%s -> %s", terminal, next)
		}
	}
}
