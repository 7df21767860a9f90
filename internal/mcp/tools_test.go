package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/store"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

var jan = time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)

// writeDataset writes a sessions file where A fills Monday 07:00 HIIT at X
// to 90% and B to 30%, plus a schedule that has B teaching it.
func writeDataset(t *testing.T) (sessions, schedule string) {
	t.Helper()
	dir := t.TempDir()

	var rows []string
	add := func(trainer string, checkedIn, n int) {
		for i := 0; i < n; i++ {
			rows = append(rows, fmt.Sprintf(
				`{"trainer":%q,"format":"HIIT","location":"X","time":"07:00","date":%q,"capacity":20,"checked_in":%d}`,
				trainer, jan.AddDate(0, 0, 7*i).Format("2006-01-02"), checkedIn))
		}
	}
	add("A", 18, 10)
	add("B", 6, 5)

	sessions = filepath.Join(dir, "sessions.json")
	require.NoError(t, os.WriteFile(sessions, []byte("["+strings.Join(rows, ",")+"]"), 0o644))

	schedule = filepath.Join(dir, "schedule.json")
	require.NoError(t, os.WriteFile(schedule, []byte(`[
		{"id":"c1","day":"Monday","time":"07:00","format":"HIIT","trainer":"B","location":"X","capacity":20}
	]`), 0o644))
	return sessions, schedule
}

// newTestServer creates a Server over a fresh dataset with an open window.
func newTestServer(t *testing.T, db *store.DB) *Server {
	t.Helper()
	sessions, schedule := writeDataset(t)
	s := &Server{
		sessionsPath: sessions,
		schedulePath: schedule,
		db:           db,
		now:          func() time.Time { return jan.AddDate(0, 3, 0) },
	}
	addTools(s)
	return s
}

func call(t *testing.T, s *Server, name, args string) (any, error) {
	t.Helper()
	for _, tool := range s.tools {
		if tool.Name == name {
			return tool.Handler(json.RawMessage(args))
		}
	}
	t.Fatalf("tool %s not registered", name)
	return nil, nil
}

func TestAddTools_Registered(t *testing.T) {
	s := newTestServer(t, nil)
	var names []string
	for _, tool := range s.tools {
		names = append(names, tool.Name)
		assert.True(t, json.Valid(tool.InputSchema), tool.Name)
	}
	assert.Equal(t, []string{"get_profiles", "optimize_schedule", "list_runs"}, names)
}

func TestGetProfiles_All(t *testing.T) {
	s := newTestServer(t, nil)
	got, err := call(t, s, "get_profiles", `{}`)
	require.NoError(t, err)

	result := got.(ProfilesResult)
	assert.Equal(t, 15, result.Sessions)
	assert.Empty(t, result.WindowFrom, "zero window_days profiles all history")
	assert.Contains(t, result.Trainers, "a")
	assert.Contains(t, result.Formats, "HIIT")
	assert.Contains(t, result.Locations, "X")
	assert.NotEmpty(t, result.TimeSlots)
}

func TestGetProfiles_KindFilter(t *testing.T) {
	s := newTestServer(t, nil)
	got, err := call(t, s, "get_profiles", `{"kind":"formats"}`)
	require.NoError(t, err)

	result := got.(ProfilesResult)
	assert.NotEmpty(t, result.Formats)
	assert.Nil(t, result.Trainers)
	assert.Nil(t, result.Locations)
}

func TestGetProfiles_ByName(t *testing.T) {
	s := newTestServer(t, nil)

	got, err := call(t, s, "get_profiles", `{"kind":"trainers","name":"A"}`)
	require.NoError(t, err)
	tp, ok := got.(*analyzer.TrainerProfile)
	require.True(t, ok)
	assert.Equal(t, 90.0, tp.Stats.AvgFillRate)

	_, err = call(t, s, "get_profiles", `{"kind":"locations","name":"Nowhere"}`)
	require.Error(t, err)
	assert.Equal(t, `no location profile for "Nowhere"`, err.Error())
}

func TestGetProfiles_InvalidArgs(t *testing.T) {
	s := newTestServer(t, nil)

	_, err := call(t, s, "get_profiles", `{"kind":"rooms"}`)
	assert.Error(t, err)

	_, err = call(t, s, "get_profiles", `{"name":"A"}`)
	assert.Error(t, err)

	_, err = call(t, s, "get_profiles", `{"kind":7}`)
	assert.Error(t, err)
}

func TestGetProfiles_Window(t *testing.T) {
	s := newTestServer(t, nil)
	s.windowDays = 20

	got, err := call(t, s, "get_profiles", `{"kind":"trainers"}`)
	require.NoError(t, err)
	result := got.(ProfilesResult)
	assert.Equal(t, "2026-03-17", result.WindowFrom)
	assert.Equal(t, "2026-04-05", result.WindowTo)
	assert.Empty(t, result.Trainers, "history is older than the window")
}

func TestOptimizeSchedule(t *testing.T) {
	s := newTestServer(t, nil)
	got, err := call(t, s, "optimize_schedule", `null`)
	require.NoError(t, err)

	result := got.(OptimizeResult)
	require.NotEmpty(t, result.Suggestions)
	assert.Equal(t, len(result.Suggestions), result.Total)

	var swap *suggest.Suggestion
	for i, sg := range result.Suggestions {
		if sg.Type == suggest.TypeReplaceTrainer {
			swap = &result.Suggestions[i]
		}
	}
	require.NotNil(t, swap)
	assert.Equal(t, "A", swap.Suggested.Trainer)
	assert.Equal(t, suggest.PriorityHigh, swap.Priority)
}

func TestOptimizeSchedule_Filters(t *testing.T) {
	s := newTestServer(t, nil)

	got, err := call(t, s, "optimize_schedule", `{"day":"mon","location":"x"}`)
	require.NoError(t, err)
	assert.NotEmpty(t, got.(OptimizeResult).Suggestions)

	got, err = call(t, s, "optimize_schedule", `{"day":"Friday"}`)
	require.NoError(t, err)
	assert.Empty(t, got.(OptimizeResult).Suggestions)
	assert.Equal(t, 0, got.(OptimizeResult).Total)

	got, err = call(t, s, "optimize_schedule", `{"limit":1}`)
	require.NoError(t, err)
	assert.Len(t, got.(OptimizeResult).Suggestions, 1)
}

func TestOptimizeSchedule_MissingData(t *testing.T) {
	s := newTestServer(t, nil)
	s.schedulePath = filepath.Join(t.TempDir(), "missing.json")
	_, err := call(t, s, "optimize_schedule", `{}`)
	assert.Error(t, err)
}

func TestListRuns(t *testing.T) {
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		require.NoError(t, db.SaveRun(&store.Run{
			ID: fmt.Sprintf("run-%02d", i), Command: "optimize", Version: "dev",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}, nil))
	}

	s := newTestServer(t, db)

	got, err := call(t, s, "list_runs", `{}`)
	require.NoError(t, err)
	runs := got.(ListRunsResult).Runs
	require.Len(t, runs, 10)
	assert.Equal(t, "run-11", runs[0].ID)

	got, err = call(t, s, "list_runs", `{"n":2}`)
	require.NoError(t, err)
	assert.Len(t, got.(ListRunsResult).Runs, 2)
}

func TestListRuns_NoDatabase(t *testing.T) {
	s := newTestServer(t, nil)
	_, err := call(t, s, "list_runs", `{}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}
