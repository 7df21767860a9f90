package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultData.Sessions, cfg.Data.Sessions)
	assert.Equal(t, DefaultWindowDays, cfg.WindowDays)
	assert.Equal(t, float64(15), cfg.Optimization.TargetTrainerHours)
	assert.Equal(t, 20, cfg.Optimization.MaxSuggestions)
	assert.False(t, cfg.Advisor.Enabled)
	assert.Equal(t, "anthropic", cfg.Advisor.Provider)
	assert.Empty(t, cfg.Advisor.APIKey)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 5*time.Minute, cfg.Watch.Interval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
data:
  sessions: /srv/studio/sessions.yaml
  schedule: /srv/studio/schedule.yaml
window_days: 60
optimization:
  max_trainer_hours: 18
  blocked_trainers: [Sam]
  location_rules:
    Downtown:
      excluded_formats: [Yoga]
      fill_rate_floor: 50
  trainer_rules:
    Jane Doe:
      max_hours: 12
  leave:
    - trainer: Jane Doe
      from: 2026-03-02
      to: 2026-03-08
  week_start: 2026-03-02
advisor:
  enabled: true
  provider: openai
  requests_per_minute: 30
log:
  level: debug
  format: json
watch:
  interval: 30s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/srv/studio/schedule.yaml", cfg.Data.Schedule)
	assert.Equal(t, 60, cfg.WindowDays)
	assert.True(t, cfg.Advisor.Enabled)
	assert.Equal(t, 30, cfg.Advisor.RequestsPerMinute)
	assert.Equal(t, 30*time.Second, cfg.Watch.Interval)

	c, err := cfg.Constraints()
	require.NoError(t, err)
	assert.Equal(t, 18.0, c.MaxTrainerHours)
	assert.Equal(t, 15.0, c.TargetTrainerHours)
	assert.Equal(t, []string{"Sam"}, c.BlockedTrainers)
	assert.True(t, c.FormatExcluded("Power Yoga", "Downtown"))
	assert.Equal(t, 50.0, c.FillRateFloor("downtown"))
	assert.Equal(t, 12.0, c.MaxHoursFor("jane doe"))
	require.Len(t, c.LeavePeriods, 1)
	assert.Equal(t, time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC), c.LeavePeriods[0].To)
	assert.True(t, c.OnLeave("Jane Doe", "Wednesday"))
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), c.WeekStart)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STUDIOWATCH_ADVISOR_API_KEY", "sk-env")
	t.Setenv("STUDIOWATCH_WINDOW_DAYS", "30")
	t.Setenv("STUDIOWATCH_LOG_LEVEL", "info")

	cfg, err := Load(writeConfig(t, "window_days: 60\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.Advisor.APIKey)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ProviderKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	cfg, err := Load(writeConfig(t, "advisor:\n  provider: openai\n"))
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.Advisor.APIKey)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "data: [unclosed\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		WindowDays: -1,
		Log:        Log{Level: "loud", Format: "xml"},
		Advisor:    Advisor{Provider: "mystery", RequestsPerMinute: -5},
		Optimization: Optimization{
			Leave: []Leave{{Trainer: "A", From: "soon"}},
		},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"window_days", "log.level", "log.format", "advisor.provider", "requests_per_minute", "leave[0].from"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestConstraints_LeaveNeedsTrainer(t *testing.T) {
	cfg := &Config{Optimization: Optimization{Leave: []Leave{{From: "2026-03-02"}}}}
	_, err := cfg.Constraints()
	assert.ErrorContains(t, err, "trainer is required")
}
