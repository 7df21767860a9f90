package suggest

import (
	"strings"
	"time"

	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// Constraint defaults applied by WithDefaults.
const (
	DefaultTargetTrainerHours = 15
	DefaultMaxTrainerHours    = 20
	DefaultMinDaysOff         = 1
	DefaultMaxSuggestions     = 20
	DefaultFillRateFloor      = 60
)

// OptimizationConfig is the constraint model every rule honors. Trainer names
// are matched after normalization; formats match by case-insensitive
// substring. Contradictory settings are not rejected; they simply filter
// out more candidates.
type OptimizationConfig struct {
	TargetTrainerHours float64 `json:"target_trainer_hours" yaml:"target_trainer_hours"`
	MaxTrainerHours    float64 `json:"max_trainer_hours" yaml:"max_trainer_hours"`
	MinDaysOff         int     `json:"min_days_off" yaml:"min_days_off"`
	MaxSuggestions     int     `json:"max_suggestions" yaml:"max_suggestions"`

	BlockedTrainers  []string `json:"blocked_trainers" yaml:"blocked_trainers"`
	PriorityTrainers []string `json:"priority_trainers" yaml:"priority_trainers"`
	ExcludedFormats  []string `json:"excluded_formats" yaml:"excluded_formats"`

	LocationRules map[string]LocationRule `json:"location_rules" yaml:"location_rules"`
	TrainerRules  map[string]TrainerRule  `json:"trainer_rules" yaml:"trainer_rules"`
	LeavePeriods  []LeavePeriod           `json:"leave_periods" yaml:"leave_periods"`

	// WeekStart is the first day of the week being optimized. Leave periods
	// are resolved against it.
	WeekStart time.Time `json:"week_start" yaml:"week_start"`
}

// LocationRule narrows candidates at one location.
type LocationRule struct {
	ExcludedFormats []string `json:"excluded_formats" yaml:"excluded_formats"`
	BlockedTrainers []string `json:"blocked_trainers" yaml:"blocked_trainers"`

	// FillRateFloor replaces the absolute 60% underperformance floor.
	FillRateFloor float64 `json:"fill_rate_floor" yaml:"fill_rate_floor"`
}

// TrainerRule overrides the global hour limits for one trainer. Zero fields
// fall back to the global values.
type TrainerRule struct {
	MaxHours    float64 `json:"max_hours" yaml:"max_hours"`
	TargetHours float64 `json:"target_hours" yaml:"target_hours"`
	MinDaysOff  int     `json:"min_days_off" yaml:"min_days_off"`
}

// LeavePeriod marks a trainer unavailable for an inclusive date range. A
// zero To leaves the range open.
type LeavePeriod struct {
	Trainer string    `json:"trainer" yaml:"trainer"`
	From    time.Time `json:"from" yaml:"from"`
	To      time.Time `json:"to" yaml:"to"`
}

// DefaultConfig returns the constraint model with every default applied.
func DefaultConfig() OptimizationConfig {
	return OptimizationConfig{}.WithDefaults()
}

// WithDefaults returns a copy with zero-valued limits replaced by defaults.
func (c OptimizationConfig) WithDefaults() OptimizationConfig {
	if c.TargetTrainerHours <= 0 {
		c.TargetTrainerHours = DefaultTargetTrainerHours
	}
	if c.MaxTrainerHours <= 0 {
		c.MaxTrainerHours = DefaultMaxTrainerHours
	}
	if c.MinDaysOff <= 0 {
		c.MinDaysOff = DefaultMinDaysOff
	}
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = DefaultMaxSuggestions
	}
	return c
}

func (c OptimizationConfig) trainerRule(trainer string) (TrainerRule, bool) {
	key := studio.NormalizeName(trainer)
	for name, rule := range c.TrainerRules {
		if studio.NormalizeName(name) == key {
			return rule, true
		}
	}
	return TrainerRule{}, false
}

func (c OptimizationConfig) locationRule(location string) (LocationRule, bool) {
	if rule, ok := c.LocationRules[location]; ok {
		return rule, true
	}
	for name, rule := range c.LocationRules {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(location)) {
			return rule, true
		}
	}
	return LocationRule{}, false
}

// MaxHoursFor returns the weekly hour ceiling for a trainer.
func (c OptimizationConfig) MaxHoursFor(trainer string) float64 {
	if rule, ok := c.trainerRule(trainer); ok && rule.MaxHours > 0 {
		return rule.MaxHours
	}
	return c.MaxTrainerHours
}

// TargetHoursFor returns the weekly hour target for a trainer.
func (c OptimizationConfig) TargetHoursFor(trainer string) float64 {
	if rule, ok := c.trainerRule(trainer); ok && rule.TargetHours > 0 {
		return rule.TargetHours
	}
	return c.TargetTrainerHours
}

// MinDaysOffFor returns how many days a week the trainer must keep free.
func (c OptimizationConfig) MinDaysOffFor(trainer string) int {
	if rule, ok := c.trainerRule(trainer); ok && rule.MinDaysOff > 0 {
		return rule.MinDaysOff
	}
	return c.MinDaysOff
}

// FillRateFloor returns the absolute underperformance floor for a location.
func (c OptimizationConfig) FillRateFloor(location string) float64 {
	if rule, ok := c.locationRule(location); ok && rule.FillRateFloor > 0 {
		return rule.FillRateFloor
	}
	return DefaultFillRateFloor
}

// IsBlocked reports whether a trainer is blocked globally or at location.
func (c OptimizationConfig) IsBlocked(trainer, location string) bool {
	if containsName(c.BlockedTrainers, trainer) {
		return true
	}
	if rule, ok := c.locationRule(location); ok {
		return containsName(rule.BlockedTrainers, trainer)
	}
	return false
}

// IsPriority reports whether trainer is on the priority list.
func (c OptimizationConfig) IsPriority(trainer string) bool {
	return containsName(c.PriorityTrainers, trainer)
}

// FormatExcluded reports whether format matches a global or location
// exclusion substring.
func (c OptimizationConfig) FormatExcluded(format, location string) bool {
	if matchesAny(c.ExcludedFormats, format) {
		return true
	}
	if rule, ok := c.locationRule(location); ok {
		return matchesAny(rule.ExcludedFormats, format)
	}
	return false
}

// OnLeave reports whether trainer is on leave on the given weekday of the
// week starting at WeekStart. Without a WeekStart the week cannot be placed
// on the calendar, so any leave period counts for every day.
func (c OptimizationConfig) OnLeave(trainer, day string) bool {
	key := studio.NormalizeName(trainer)
	for _, lp := range c.LeavePeriods {
		if studio.NormalizeName(lp.Trainer) != key {
			continue
		}
		if c.WeekStart.IsZero() {
			return true
		}
		date, ok := c.dateOf(day)
		if !ok {
			continue
		}
		if !lp.From.IsZero() && date.Before(dateOnly(lp.From)) {
			continue
		}
		if !lp.To.IsZero() && date.After(dateOnly(lp.To)) {
			continue
		}
		return true
	}
	return false
}

// dateOf places a weekday inside the week starting at WeekStart.
func (c OptimizationConfig) dateOf(day string) (time.Time, bool) {
	idx := studio.DayIndex(day)
	if idx < 0 {
		return time.Time{}, false
	}
	start := dateOnly(c.WeekStart)
	startIdx := (int(start.Weekday()) + 6) % 7
	return start.AddDate(0, 0, (idx-startIdx+7)%7), true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func containsName(names []string, name string) bool {
	key := studio.NormalizeName(name)
	if key == "" {
		return false
	}
	for _, n := range names {
		if studio.NormalizeName(n) == key {
			return true
		}
	}
	return false
}

func matchesAny(patterns []string, format string) bool {
	f := strings.ToLower(format)
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" && strings.Contains(f, p) {
			return true
		}
	}
	return false
}
