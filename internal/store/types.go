// Package store provides SQLite access to the history of optimization runs
// and the review status of the suggestions they produced. Schedules
// themselves are never stored.
package store

import (
	"time"

	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// Review statuses for a stored suggestion.
const (
	StatusOpen     = "open"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is a known review status.
func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Run is one recorded optimization pass.
type Run struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Command         string    `json:"command"`
	Version         string    `json:"version"`
	WindowFrom      time.Time `json:"window_from,omitempty"`
	WindowTo        time.Time `json:"window_to,omitempty"`
	ScheduleSize    int       `json:"schedule_size"`
	SessionCount    int       `json:"session_count"`
	RuleCount       int       `json:"rule_count"`
	AdviceCount     int       `json:"advice_count"`
	AttendanceDelta float64   `json:"attendance_delta"`
	FillRateDelta   float64   `json:"fill_rate_delta"`
	AdvisorCode     string    `json:"advisor_code,omitempty"`
	AdvisorMessage  string    `json:"advisor_message,omitempty"`

	// SuggestionCount is filled by ListRuns.
	SuggestionCount int `json:"suggestion_count"`
}

// StoredSuggestion is a suggestion as recorded for a run, with its review
// status.
type StoredSuggestion struct {
	RowID      int64              `json:"row_id"`
	RunID      string             `json:"run_id"`
	Ordinal    int                `json:"ordinal"`
	Status     string             `json:"status"`
	ReviewedAt time.Time          `json:"reviewed_at,omitempty"`
	Suggestion suggest.Suggestion `json:"suggestion"`
}
