package models

import "time"

// RefreshToken represents a persisted refresh token session.
type RefreshToken struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Token     string     `db:"token" json:"token"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	IPAddress string     `db:"ip_address" json:"ip_address"`
	UserAgent string     `db:"user_agent" json:"user_agent"`
}

// TokenKind distinguishes public appointment token flows.
type TokenKind string

const (
	TokenKindConfirm TokenKind = "CONFIRM"
	TokenKindCancel  TokenKind = "CANCEL"
)

// AppointmentToken is a single-use emailed token letting a guardian confirm
// or cancel an appointment without logging in. Delivery happens outside this
// service; the token itself is the record.
type AppointmentToken struct {
	Token         string     `db:"token" json:"token"`
	AppointmentID string     `db:"appointment_id" json:"appointment_id"`
	Kind          TokenKind  `db:"kind" json:"kind"`
	Email         string     `db:"email" json:"email"`
	ExpiresAt     time.Time  `db:"expires_at" json:"expires_at"`
	ConsumedAt    *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Usable reports whether the token can still be redeemed at the given time.
func (t *AppointmentToken) Usable(now time.Time) bool {
	return t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}
