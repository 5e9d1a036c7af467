package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("14:30")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(14, 30), tod)

	tod, err = ParseTimeOfDay("09:00:00")
	require.NoError(t, err)
	assert.Equal(t, NewTimeOfDay(9, 0), tod)

	_, err = ParseTimeOfDay("25:00")
	assert.Error(t, err)
	_, err = ParseTimeOfDay("not a time")
	assert.Error(t, err)
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05:00", NewTimeOfDay(9, 5).String())
	assert.Equal(t, "00:00:00", TimeOfDay(0).String())
	assert.Equal(t, "23:59:00", NewTimeOfDay(23, 59).String())
}

func TestTimeOfDayJSON(t *testing.T) {
	raw, err := json.Marshal(NewTimeOfDay(14, 30))
	require.NoError(t, err)
	assert.Equal(t, `"14:30:00"`, string(raw))

	var tod TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"14:30"`), &tod))
	assert.Equal(t, NewTimeOfDay(14, 30), tod)

	assert.Error(t, json.Unmarshal([]byte(`1430`), &tod))
}

func TestTimeOfDayScan(t *testing.T) {
	var tod TimeOfDay

	require.NoError(t, tod.Scan(time.Date(0, 1, 1, 14, 30, 0, 0, time.UTC)))
	assert.Equal(t, NewTimeOfDay(14, 30), tod)

	require.NoError(t, tod.Scan([]byte("09:15:00")))
	assert.Equal(t, NewTimeOfDay(9, 15), tod)

	require.NoError(t, tod.Scan("16:45"))
	assert.Equal(t, NewTimeOfDay(16, 45), tod)

	assert.Error(t, tod.Scan(12345))
}

func TestTimeOfDayValue(t *testing.T) {
	v, err := NewTimeOfDay(8, 0).Value()
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", v)
}
