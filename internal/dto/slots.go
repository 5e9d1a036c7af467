package dto

import "time"

// SlotQuery asks for the free grid of one professional over a UTC range.
type SlotQuery struct {
	ProfessionalID string        `json:"professional_id" validate:"required,uuid4"`
	RangeStart     time.Time     `json:"range_start" validate:"required"`
	RangeEnd       time.Time     `json:"range_end" validate:"required"`
	Duration       time.Duration `json:"-"`
}

// Slot is one bookable start instant on the grid.
type Slot struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Local    string    `json:"local,omitempty"`
}

// SlotsResponse is the payload for a free-slot query.
type SlotsResponse struct {
	ProfessionalID string    `json:"professional_id"`
	RangeStart     time.Time `json:"range_start"`
	RangeEnd       time.Time `json:"range_end"`
	DurationMin    int       `json:"duration_minutes"`
	Timezone       string    `json:"timezone,omitempty"`
	Slots          []Slot    `json:"slots"`
}

// FreeCheckResponse answers an is-free probe for one interval.
type FreeCheckResponse struct {
	ProfessionalID string    `json:"professional_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Free           bool      `json:"free"`
}
