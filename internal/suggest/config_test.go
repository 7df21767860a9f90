package suggest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithDefaults(t *testing.T) {
	cfg := OptimizationConfig{}.WithDefaults()
	assert.Equal(t, 15.0, cfg.TargetTrainerHours)
	assert.Equal(t, 20.0, cfg.MaxTrainerHours)
	assert.Equal(t, 1, cfg.MinDaysOff)
	assert.Equal(t, 20, cfg.MaxSuggestions)

	custom := OptimizationConfig{TargetTrainerHours: 10, MaxSuggestions: 5}.WithDefaults()
	assert.Equal(t, 10.0, custom.TargetTrainerHours)
	assert.Equal(t, 5, custom.MaxSuggestions)
	assert.Equal(t, 20.0, custom.MaxTrainerHours)
}

func TestTrainerRuleOverrides(t *testing.T) {
	cfg := OptimizationConfig{
		TrainerRules: map[string]TrainerRule{
			"Anna Lee": {MaxHours: 12, MinDaysOff: 2},
		},
	}.WithDefaults()

	assert.Equal(t, 12.0, cfg.MaxHoursFor("anna-lee"))
	assert.Equal(t, 15.0, cfg.TargetHoursFor("anna-lee"), "zero override falls back")
	assert.Equal(t, 2, cfg.MinDaysOffFor("ANNA LEE"))
	assert.Equal(t, 20.0, cfg.MaxHoursFor("Someone Else"))
}

func TestIsBlocked(t *testing.T) {
	cfg := OptimizationConfig{
		BlockedTrainers: []string{"Bob Smith"},
		LocationRules: map[string]LocationRule{
			"Downtown": {BlockedTrainers: []string{"carol"}},
		},
	}
	assert.True(t, cfg.IsBlocked("bob-smith", "Anywhere"))
	assert.True(t, cfg.IsBlocked("Carol", "downtown"))
	assert.False(t, cfg.IsBlocked("Carol", "Uptown"))
	assert.False(t, cfg.IsBlocked("", "Downtown"))
}

func TestFormatExcluded(t *testing.T) {
	cfg := OptimizationConfig{
		ExcludedFormats: []string{"hot"},
		LocationRules: map[string]LocationRule{
			"Uptown": {ExcludedFormats: []string{"Reformer"}},
		},
	}
	assert.True(t, cfg.FormatExcluded("Hot Yoga", "Downtown"))
	assert.True(t, cfg.FormatExcluded("Reformer Pilates", "Uptown"))
	assert.False(t, cfg.FormatExcluded("Reformer Pilates", "Downtown"))
	assert.False(t, cfg.FormatExcluded("Spin", "Uptown"))
}

func TestFillRateFloor(t *testing.T) {
	cfg := OptimizationConfig{LocationRules: map[string]LocationRule{"X": {FillRateFloor: 45}}}
	assert.Equal(t, 45.0, cfg.FillRateFloor("X"))
	assert.Equal(t, 60.0, cfg.FillRateFloor("Y"))
}

func TestOnLeave(t *testing.T) {
	// 2026-01-07 is a Wednesday.
	wednesday := time.Date(2026, time.January, 7, 0, 0, 0, 0, time.UTC)
	leave := []LeavePeriod{{
		Trainer: "Dana",
		From:    time.Date(2026, time.January, 9, 0, 0, 0, 0, time.UTC),
		To:      time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
	}}

	cfg := OptimizationConfig{WeekStart: wednesday, LeavePeriods: leave}
	assert.False(t, cfg.OnLeave("Dana", "Wednesday"))
	assert.True(t, cfg.OnLeave("dana", "Friday"))
	assert.True(t, cfg.OnLeave("Dana", "Sat"))
	assert.False(t, cfg.OnLeave("Dana", "Sunday"))
	// Monday of a Wednesday-start week is 2026-01-12.
	assert.False(t, cfg.OnLeave("Dana", "Monday"))
	assert.False(t, cfg.OnLeave("Eve", "Friday"))
	assert.False(t, cfg.OnLeave("Dana", "Someday"))

	noWeek := OptimizationConfig{LeavePeriods: leave}
	assert.True(t, noWeek.OnLeave("Dana", "Monday"))

	openEnded := OptimizationConfig{
		WeekStart:    wednesday,
		LeavePeriods: []LeavePeriod{{Trainer: "Dana", From: wednesday.AddDate(0, 0, 2)}},
	}
	assert.True(t, openEnded.OnLeave("Dana", "Tuesday"))
	assert.False(t, openEnded.OnLeave("Dana", "Thursday"))
}
