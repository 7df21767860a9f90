// Package studio defines the studio data the optimizer reads: historical class
// sessions, the live weekly schedule, and the helpers that normalize names,
// clock times, weekdays, and format categories.
package studio

import "time"

// HistoricalSession is a single past class occurrence. Sessions are read-only
// facts supplied by the data loader; missing numeric fields are zero.
type HistoricalSession struct {
	Trainer       string    `json:"trainer" yaml:"trainer"`
	Format        string    `json:"format" yaml:"format"`
	Location      string    `json:"location" yaml:"location"`
	Day           string    `json:"day" yaml:"day"`
	Time          string    `json:"time" yaml:"time"`
	Date          time.Time `json:"date" yaml:"date"`
	Capacity      int       `json:"capacity" yaml:"capacity"`
	CheckedIn     int       `json:"checked_in" yaml:"checked_in"`
	Booked        int       `json:"booked" yaml:"booked"`
	LateCancelled int       `json:"late_cancelled" yaml:"late_cancelled"`
	Revenue       float64   `json:"revenue" yaml:"revenue"`
}

// FillRate returns checked-in ÷ capacity × 100, or 0 when capacity is unknown.
func (s HistoricalSession) FillRate() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	return float64(s.CheckedIn) / float64(s.Capacity) * 100
}

// SlotKey returns the canonical "Day HH:MM" key for the session.
func (s HistoricalSession) SlotKey() string {
	return SlotKey(s.Day, s.Time)
}

// ScheduledClass is a class on the live weekly schedule. It is owned by the
// caller; the optimizer only reads it.
type ScheduledClass struct {
	ID           string  `json:"id" yaml:"id"`
	Day          string  `json:"day" yaml:"day"`
	Time         string  `json:"time" yaml:"time"`
	Format       string  `json:"format" yaml:"format"`
	Trainer      string  `json:"trainer" yaml:"trainer"`
	Location     string  `json:"location" yaml:"location"`
	Capacity     int     `json:"capacity" yaml:"capacity"`
	FillRate     float64 `json:"fill_rate" yaml:"fill_rate"`
	AvgCheckIns  float64 `json:"avg_check_ins" yaml:"avg_check_ins"`
	SessionCount int     `json:"session_count" yaml:"session_count"`
}

// SlotKey returns the canonical "Day HH:MM" key for the class.
func (c ScheduledClass) SlotKey() string {
	return SlotKey(c.Day, c.Time)
}

// Weekdays lists the canonical day names in schedule order (Monday first).
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
