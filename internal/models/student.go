package models

import "time"

// Student represents a child that receives specialized care. Each student is
// linked to the guardian account that books on their behalf.
type Student struct {
	ID             string    `db:"id" json:"id"`
	FullName       string    `db:"full_name" json:"full_name"`
	GuardianUserID string    `db:"guardian_user_id" json:"guardian_user_id"`
	Notes          *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter describes query params for listing students.
type StudentFilter struct {
	Search         string
	GuardianUserID string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
