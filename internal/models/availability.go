package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeOfDay is an offset from UTC midnight, stored as a Postgres TIME column.
// Availability windows use it so they never need DST adjustment.
type TimeOfDay time.Duration

// NewTimeOfDay builds a TimeOfDay from hour and minute components.
func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS".
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	layouts := []string{"15:04:05", "15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute()) + TimeOfDay(time.Duration(t.Second())*time.Second), nil
		}
	}
	return 0, fmt.Errorf("parse time of day %q: want HH:MM or HH:MM:SS", raw)
}

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t)
}

// String renders HH:MM:SS.
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// MarshalJSON renders the value as a "HH:MM:SS" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts "HH:MM" or "HH:MM:SS" strings.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("time of day must be a JSON string")
	}
	parsed, err := ParseTimeOfDay(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Scan implements sql.Scanner. lib/pq yields TIME columns as time.Time; raw
// byte and string forms are accepted for other drivers (sqlmock included).
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute()) + TimeOfDay(time.Duration(v.Second())*time.Second)
		return nil
	case []byte:
		parsed, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

// Value implements driver.Valuer.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// AvailabilityWindow is one recurring weekly opening for a professional.
// Start and end are UTC times of day; Weekday follows time.Weekday
// (Sunday = 0). Multiple windows per (professional, weekday) are allowed and
// are not assumed to be merged, only non-overlapping.
type AvailabilityWindow struct {
	ID             string       `db:"id" json:"id"`
	ProfessionalID string       `db:"professional_id" json:"professional_id"`
	Weekday        time.Weekday `db:"weekday" json:"weekday"`
	StartOfDay     TimeOfDay    `db:"start_of_day" json:"start_of_day"`
	EndOfDay       TimeOfDay    `db:"end_of_day" json:"end_of_day"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}
