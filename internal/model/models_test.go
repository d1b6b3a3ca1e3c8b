package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimePeriod_Cutoff(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(-24*time.Hour), PeriodDay.Cutoff(now))
	assert.Equal(t, now.Add(-7*24*time.Hour), PeriodWeek.Cutoff(now))
	assert.Equal(t, now.Add(-30*24*time.Hour), PeriodMonth.Cutoff(now))
	assert.True(t, PeriodAll.Cutoff(now).IsZero())
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		arg  string
		want TimePeriod
	}{
		{"day", PeriodDay},
		{"daily", PeriodDay},
		{"24h", PeriodDay},
		{"week", PeriodWeek},
		{"month", PeriodMonth},
		{"", PeriodAll},
		{"forever", PeriodAll},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePeriod(tt.arg), "arg %q", tt.arg)
	}
}
