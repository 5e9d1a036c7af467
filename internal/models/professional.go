package models

import "time"

// Professional represents a care professional that can be booked.
type Professional struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Speciality *string   `db:"speciality" json:"speciality,omitempty"`
	Active     bool      `db:"active" json:"active"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ProfessionalFilter describes query params for listing professionals.
type ProfessionalFilter struct {
	Search     string
	Speciality string
	Active     *bool
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
