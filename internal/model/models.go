// Package model defines the shared data models for the chat game bot.
package model

import "time"

// ScoreEntry is one finished arcade game recorded on the scoreboard.
// Entries are append-only and have no relationship to live sessions
// after they are written.
type ScoreEntry struct {
	Score    int       `db:"score"`
	UserID   int64     `db:"user_id"`
	State    int       `db:"state"`
	Turns    int       `db:"turns"`
	Username string    `db:"username"`
	Channel  string    `db:"channel"`
	Date     time.Time `db:"date"`
}

// TimePeriod restricts scoreboard queries to recent entries.
// The value is the period length in hours; PeriodAll disables the filter.
type TimePeriod int

const (
	PeriodDay   TimePeriod = 24
	PeriodWeek  TimePeriod = 24 * 7
	PeriodMonth TimePeriod = 24 * 30
	PeriodAll   TimePeriod = -1
)

// Cutoff returns the earliest date included in the period, relative to now.
// The zero time is returned for PeriodAll.
func (p TimePeriod) Cutoff(now time.Time) time.Time {
	if p == PeriodAll {
		return time.Time{}
	}
	return now.Add(-time.Duration(p) * time.Hour)
}

// ParsePeriod maps a user-supplied argument to a TimePeriod.
// Unknown arguments default to all-time.
func ParsePeriod(s string) TimePeriod {
	switch s {
	case "day", "daily", "24h":
		return PeriodDay
	case "week", "weekly", "7d":
		return PeriodWeek
	case "month", "monthly", "30d":
		return PeriodMonth
	default:
		return PeriodAll
	}
}
