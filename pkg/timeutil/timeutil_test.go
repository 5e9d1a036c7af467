package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadZone(t *testing.T) {
	zone, err := LoadZone("")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, zone)

	zone, err = LoadZone("America/Sao_Paulo")
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", zone.String())

	_, err = LoadZone("Not/AZone")
	assert.Error(t, err)
}

func TestToAbsolute(t *testing.T) {
	sp, err := LoadZone("America/Sao_Paulo")
	require.NoError(t, err)

	// Sao Paulo is UTC-3 year round since 2019.
	got := ToAbsolute(2026, time.January, 5, 14, 0, sp)
	assert.Equal(t, time.Date(2026, time.January, 5, 17, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestDayWindowUTC(t *testing.T) {
	sp, err := LoadZone("America/Sao_Paulo")
	require.NoError(t, err)

	date, err := ParseDate("2026-01-05")
	require.NoError(t, err)

	start, end := DayWindowUTC(date, sp)
	assert.Equal(t, time.Date(2026, time.January, 5, 3, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 6, 3, 0, 0, 0, time.UTC), end)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestWeekWindowUTC(t *testing.T) {
	// 2026-01-07 is a Wednesday; the containing week starts Monday the 5th.
	date, err := ParseDate("2026-01-07")
	require.NoError(t, err)

	start, end := WeekWindowUTC(date, time.UTC)
	assert.Equal(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Monday, start.Weekday())
}

func TestParseInstant(t *testing.T) {
	got, err := ParseInstant("2026-01-05T14:00:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.January, 5, 17, 0, 0, 0, time.UTC), got)

	_, err = ParseInstant("2026-01-05T14:00:00")
	assert.Error(t, err)

	_, err = ParseInstant("2026-01-05")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-01-05")
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, time.Monday, got.Weekday())

	_, err = ParseDate("05/01/2026")
	assert.Error(t, err)
}
