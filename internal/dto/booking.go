package dto

import "time"

// ReserveRequest creates one appointment for a professional and student.
type ReserveRequest struct {
	ProfessionalID string    `json:"professional_id" validate:"required,uuid4"`
	StudentID      string    `json:"student_id" validate:"required,uuid4"`
	Service        string    `json:"service" validate:"required,min=2,max=120"`
	Location       *string   `json:"location" validate:"omitempty,max=200"`
	StartsAt       time.Time `json:"starts_at" validate:"required"`
	EndsAt         time.Time `json:"ends_at" validate:"required"`
}

// StatusChangeRequest moves an appointment through its lifecycle.
type StatusChangeRequest struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED CANCELLED ATTENDED NO_SHOW"`
}

// PublicActionResponse reports the outcome of a token-driven confirm/cancel.
type PublicActionResponse struct {
	AppointmentID string    `json:"appointment_id"`
	Status        string    `json:"status"`
	ActedAt       time.Time `json:"acted_at"`
}
