package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment. Appointments
// are never deleted, only transitioned.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusAttended  AppointmentStatus = "ATTENDED"
	StatusNoShow    AppointmentStatus = "NO_SHOW"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// Occupies reports whether an appointment in this status blocks the
// professional's time. Only CANCELLED frees the interval.
func (s AppointmentStatus) Occupies() bool {
	return s != StatusCancelled
}

// allowedTransitions encodes legal status changes.
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusAttended, StatusNoShow},
	StatusConfirmed: {StatusCancelled, StatusAttended, StatusNoShow},
	StatusAttended:  {},
	StatusNoShow:    {},
	StatusCancelled: {},
}

// CanTransition reports whether moving from s to next is permitted.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment is one concrete scheduled interval for a professional.
// StartsAt/EndsAt are absolute UTC instants with a half-open meaning:
// [StartsAt, EndsAt).
type Appointment struct {
	ID             string            `db:"id" json:"id"`
	ProfessionalID string            `db:"professional_id" json:"professional_id"`
	StudentID      string            `db:"student_id" json:"student_id"`
	Service        string            `db:"service" json:"service"`
	Location       *string           `db:"location" json:"location,omitempty"`
	Status         AppointmentStatus `db:"status" json:"status"`
	StartsAt       time.Time         `db:"starts_at" json:"starts_at"`
	EndsAt         time.Time         `db:"ends_at" json:"ends_at"`
	ConfirmedAt    *time.Time        `db:"confirmed_at" json:"confirmed_at,omitempty"`
	CancelledAt    *time.Time        `db:"cancelled_at" json:"cancelled_at,omitempty"`
	ReminderSentAt *time.Time        `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// Overlaps applies the half-open interval test against another interval.
// Touching boundaries (EndsAt == other start) do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartsAt.Before(end) && a.EndsAt.After(start)
}

// AppointmentFilter describes query params for listing appointments.
type AppointmentFilter struct {
	ProfessionalID string
	StudentID      string
	Status         AppointmentStatus
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
