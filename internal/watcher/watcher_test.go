package watcher

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

var jan = time.Date(2026, time.January, 5, 7, 0, 0, 0, time.UTC)

func sessionRows(trainer string, checkedIn, n int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{
			"trainer": trainer, "format": "HIIT", "location": "X",
			"time": "07:00", "date": jan.AddDate(0, 0, 7*i).Format("2006-01-02"),
			"capacity": 20, "checked_in": checkedIn,
		}
	}
	return rows
}

// writeJSON writes v to path and stamps it with mod so change detection
// does not depend on filesystem timestamp resolution.
func writeJSON(t *testing.T, path string, v any, mod time.Time) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func scheduleWith(trainer string) []map[string]any {
	return []map[string]any{{
		"id": "c1", "day": "Monday", "time": "07:00", "format": "HIIT",
		"trainer": trainer, "location": "X", "capacity": 20,
	}}
}

type fixture struct {
	sessions string
	schedule string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		sessions: filepath.Join(dir, "sessions.json"),
		schedule: filepath.Join(dir, "schedule.json"),
	}
	writeJSON(t, f.sessions, append(sessionRows("A", 18, 10), sessionRows("B", 6, 5)...), jan)
	writeJSON(t, f.schedule, scheduleWith("B"), jan)
	return f
}

func (f fixture) watcher(alertFn func(Alert)) *Watcher {
	return New(Options{SessionsPath: f.sessions, SchedulePath: f.schedule, Interval: time.Hour}, alertFn)
}

func highPriorityFor(state *WatchState, classID string) *suggest.Suggestion {
	for _, s := range state.HighPriority {
		if s.Original != nil && s.Original.ClassID == classID {
			return &s
		}
	}
	return nil
}

func TestNew_DefaultInterval(t *testing.T) {
	w := New(Options{}, nil)
	assert.Equal(t, 5*time.Minute, w.opts.Interval)
}

func TestSnapshot_MissingFile(t *testing.T) {
	w := New(Options{SessionsPath: "/nonexistent/sessions.json", SchedulePath: "/nonexistent/schedule.json"}, nil)
	_, err := w.Snapshot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/nonexistent/sessions.json")
}

func TestSnapshot_WithDataset(t *testing.T) {
	f := newFixture(t)
	w := f.watcher(nil)

	state, err := w.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 15, state.SessionCount)
	assert.Equal(t, 1, state.ScheduleSize)
	assert.Equal(t, 30.0, state.AvgFillRate, "schedule fill is enriched from history")
	assert.GreaterOrEqual(t, state.Underperforming, 1)

	swap := highPriorityFor(state, "c1")
	require.NotNil(t, swap)
	assert.Equal(t, suggest.TypeReplaceTrainer, swap.Type)
	assert.Equal(t, "A", swap.Suggested.Trainer)
	assert.NotEmpty(t, state.Result().Suggestions)
}

func TestSnapshot_ReusesUnchangedData(t *testing.T) {
	f := newFixture(t)
	w := f.watcher(nil)

	first, err := w.Snapshot()
	require.NoError(t, err)
	w.previous = first

	// Rewrite the schedule but keep its mod time; the watcher must not notice.
	writeJSON(t, f.schedule, scheduleWith("A"), jan)

	second, err := w.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, first.HighPriority, second.HighPriority)
	assert.Equal(t, first.AvgFillRate, second.AvgFillRate)
}

func TestCheck_NoPreviousNoAlerts(t *testing.T) {
	f := newFixture(t)
	w := f.watcher(nil)
	assert.Empty(t, w.Check())
	assert.NotNil(t, w.previous)
}

func TestCheck_DetectsResolvedSuggestion(t *testing.T) {
	f := newFixture(t)
	w := f.watcher(nil)
	require.Empty(t, w.Check())
	swap := highPriorityFor(w.previous, "c1")
	require.NotNil(t, swap)

	// Unchanged files produce nothing.
	assert.Empty(t, w.Check())

	writeJSON(t, f.schedule, scheduleWith("A"), jan.Add(time.Hour))
	alerts := w.Check()

	var resolved, fillWarning bool
	for _, a := range alerts {
		if a.Level == "info" && a.Title == "Resolved: replace_trainer" {
			resolved = true
			assert.Contains(t, a.Message, "Monday 07:00 HIIT with B at X")
		}
		if a.Title == "Fill rate dropped" {
			fillWarning = true
		}
	}
	assert.True(t, resolved, "alerts: %+v", alerts)
	assert.False(t, fillWarning)
	assert.Nil(t, highPriorityFor(w.previous, "c1"))
}

func TestCheck_SnapshotFailure(t *testing.T) {
	f := newFixture(t)
	w := f.watcher(nil)
	require.NoError(t, os.Remove(f.sessions))

	alerts := w.Check()
	require.Len(t, alerts, 1)
	assert.Equal(t, "warning", alerts[0].Level)
	assert.Equal(t, "Snapshot failed", alerts[0].Title)
}

func TestDedup_SuppressesRepeats(t *testing.T) {
	w := New(Options{}, nil)
	a := Alert{Level: "warning", Title: "Fill rate dropped", Message: "Average fill rate is 40.0% (was 50.0%)"}

	assert.Len(t, w.dedup([]Alert{a}), 1)
	assert.Empty(t, w.dedup([]Alert{a}), "same alert twice in a row is suppressed")
	assert.Empty(t, w.dedup(nil))
	assert.Len(t, w.dedup([]Alert{a}), 1, "alert returns after a quiet cycle")
}

func TestRun_EmitsInitialHighPriority(t *testing.T) {
	f := newFixture(t)
	var got []Alert
	w := f.watcher(func(a Alert) { got = append(got, a) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	var critical int
	for _, a := range got {
		if a.Level == "critical" {
			critical++
		}
	}
	assert.GreaterOrEqual(t, critical, 1)
	assert.NotNil(t, w.previous)
}

func TestRun_InitialSnapshotError(t *testing.T) {
	w := New(Options{SessionsPath: "/nonexistent/a.json", SchedulePath: "/nonexistent/b.json"}, nil)
	err := w.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial snapshot")
}
