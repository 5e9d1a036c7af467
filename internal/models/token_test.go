package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentTokenUsable(t *testing.T) {
	now := time.Date(2026, time.January, 5, 12, 0, 0, 0, time.UTC)
	consumed := now.Add(-time.Hour)

	cases := []struct {
		name  string
		token AppointmentToken
		want  bool
	}{
		{"fresh", AppointmentToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", AppointmentToken{ExpiresAt: now.Add(-time.Minute)}, false},
		{"expires exactly now", AppointmentToken{ExpiresAt: now}, false},
		{"consumed", AppointmentToken{ExpiresAt: now.Add(time.Hour), ConsumedAt: &consumed}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.token.Usable(now))
		})
	}
}
