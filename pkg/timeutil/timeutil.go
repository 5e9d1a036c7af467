package timeutil

import (
	"fmt"
	"time"
)

// The engine works exclusively in UTC. These helpers live at the HTTP
// boundary: local wall-clock input is converted to absolute instants before
// any scheduling code runs, and back only for presentation.

// LoadZone resolves an IANA zone name, defaulting to UTC when empty.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// ToAbsolute combines a local calendar date and wall-clock time in the given
// zone into a UTC instant.
func ToAbsolute(year int, month time.Month, day, hour, minute int, zone *time.Location) time.Time {
	if zone == nil {
		zone = time.UTC
	}
	return time.Date(year, month, day, hour, minute, 0, 0, zone).UTC()
}

// ToLocal converts a UTC instant into the given zone for display.
func ToLocal(instant time.Time, zone *time.Location) time.Time {
	if zone == nil {
		zone = time.UTC
	}
	return instant.In(zone)
}

// DayWindowUTC returns the UTC half-open window [start, end) covering one
// full local calendar day in the given zone.
func DayWindowUTC(date time.Time, zone *time.Location) (time.Time, time.Time) {
	if zone == nil {
		zone = time.UTC
	}
	startLocal := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, zone)
	endLocal := startLocal.AddDate(0, 0, 1)
	return startLocal.UTC(), endLocal.UTC()
}

// WeekWindowUTC returns the UTC window covering the local Monday-to-Monday
// week containing date.
func WeekWindowUTC(date time.Time, zone *time.Location) (time.Time, time.Time) {
	if zone == nil {
		zone = time.UTC
	}
	local := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, zone)
	offset := (int(local.Weekday()) + 6) % 7 // Monday = 0
	startLocal := local.AddDate(0, 0, -offset)
	endLocal := startLocal.AddDate(0, 0, 7)
	return startLocal.UTC(), endLocal.UTC()
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(raw string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return d, nil
}

// ParseInstant parses an RFC 3339 timestamp and normalises it to UTC. Input
// without an explicit offset is rejected: naive timestamps are a caller bug.
func ParseInstant(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse instant %q: %w", raw, err)
	}
	return t.UTC(), nil
}
