package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleSuggestions() []suggest.Suggestion {
	swap := suggest.Suggestion{
		Type:       suggest.TypeReplaceTrainer,
		Priority:   suggest.PriorityHigh,
		Confidence: 90,
		Original:   &suggest.ClassState{ClassID: "c1", Day: "Monday", Time: "07:00", Format: "HIIT", Trainer: "B", Location: "X", FillRate: 30},
		Suggested:  suggest.ClassState{ClassID: "c1", Day: "Monday", Time: "07:00", Format: "HIIT", Trainer: "A", Location: "X", ProjectedFillRate: 90},
		Reason:     "A fills HIIT",
		Source:     suggest.SourceRules,
	}
	swap.ID = suggest.SuggestionID(swap)

	add := suggest.Suggestion{
		Type:       suggest.TypeAddClass,
		Priority:   suggest.PriorityMedium,
		Confidence: 60,
		Suggested:  suggest.ClassState{Day: "Tuesday", Time: "18:00", Format: "Barre", Trainer: "C", Location: "X"},
		Source:     suggest.SourceAdvisor,
	}
	add.ID = suggest.SuggestionID(add)
	return []suggest.Suggestion{swap, add}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate())

	var version int
	require.NoError(t, db.Conn().QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "studiowatch.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.SaveRun(&Run{ID: "r1", Command: "optimize", Version: "dev"}, nil))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()
	run, err := db.GetRun("r1")
	require.NoError(t, err)
	require.NotNil(t, run)
}

func TestSaveRun_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	run := &Run{
		ID: "run-1", Command: "optimize", Version: "1.0.0",
		WindowFrom: from, ScheduleSize: 12, SessionCount: 340,
		RuleCount: 5, AdviceCount: 1, AttendanceDelta: 11.5, FillRateDelta: 4.2,
		AdvisorCode: "TIMEOUT", AdvisorMessage: "advisor request timed out",
	}
	require.NoError(t, db.SaveRun(run, sampleSuggestions()))
	assert.False(t, run.CreatedAt.IsZero())
	assert.Equal(t, 2, run.SuggestionCount)

	got, err := db.GetRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, from, got.WindowFrom)
	assert.True(t, got.WindowTo.IsZero())
	assert.Equal(t, 340, got.SessionCount)
	assert.Equal(t, 11.5, got.AttendanceDelta)
	assert.Equal(t, "TIMEOUT", got.AdvisorCode)

	stored, err := db.GetSuggestions("run-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, 1, stored[0].Ordinal)
	assert.Equal(t, StatusOpen, stored[0].Status)
	assert.Equal(t, suggest.TypeReplaceTrainer, stored[0].Suggestion.Type)
	assert.Equal(t, suggest.PriorityHigh, stored[0].Suggestion.Priority)
	require.NotNil(t, stored[0].Suggestion.Original)
	assert.Equal(t, "B", stored[0].Suggestion.Original.Trainer)
	assert.Nil(t, stored[1].Suggestion.Original)
	assert.Equal(t, sampleSuggestions()[1].ID, stored[1].Suggestion.ID)
}

func TestGetRun_Missing(t *testing.T) {
	db := openTestDB(t)
	run, err := db.GetRun("nope")
	assert.NoError(t, err)
	assert.Nil(t, run)

	latest, err := db.GetLatestRun()
	assert.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSaveRun_DuplicateIDFails(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveRun(&Run{ID: "dup", Command: "optimize", Version: "dev"}, nil))
	err := db.SaveRun(&Run{ID: "dup", Command: "optimize", Version: "dev"}, sampleSuggestions())
	require.Error(t, err)

	stored, err := db.GetSuggestions("dup")
	require.NoError(t, err)
	assert.Empty(t, stored, "failed save leaves nothing behind")
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		var suggestions []suggest.Suggestion
		if id == "b" {
			suggestions = sampleSuggestions()
		}
		require.NoError(t, db.SaveRun(&Run{ID: id, Command: "optimize", Version: "dev", CreatedAt: base.Add(time.Duration(i) * time.Hour)}, suggestions))
	}

	runs, err := db.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)
	assert.Equal(t, 2, runs[1].SuggestionCount)

	all, err := db.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	latest, err := db.GetLatestRun()
	require.NoError(t, err)
	assert.Equal(t, "c", latest.ID)
}

func TestSetSuggestionStatus(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveRun(&Run{ID: "r", Command: "optimize", Version: "dev"}, sampleSuggestions()))
	stored, err := db.GetSuggestions("r")
	require.NoError(t, err)

	require.NoError(t, db.SetSuggestionStatus(stored[0].RowID, StatusAccepted))
	require.NoError(t, db.SetSuggestionStatus(stored[1].RowID, StatusRejected))

	assert.Error(t, db.SetSuggestionStatus(stored[0].RowID, "maybe"))
	assert.Error(t, db.SetSuggestionStatus(9999, StatusAccepted))

	accepted, err := db.GetSuggestionsByStatus(StatusAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.False(t, accepted[0].ReviewedAt.IsZero())

	reviewed, err := db.ReviewedStatuses()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		stored[0].Suggestion.ID: StatusAccepted,
		stored[1].Suggestion.ID: StatusRejected,
	}, reviewed)

	require.NoError(t, db.SetSuggestionStatus(stored[1].RowID, StatusOpen))
	reviewed, err = db.ReviewedStatuses()
	require.NoError(t, err)
	assert.Len(t, reviewed, 1)
}

func TestDeleteRunsBefore(t *testing.T) {
	db := openTestDB(t)
	old := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.SaveRun(&Run{ID: "old", Command: "optimize", Version: "dev", CreatedAt: old}, sampleSuggestions()))
	require.NoError(t, db.SaveRun(&Run{ID: "new", Command: "optimize", Version: "dev"}, sampleSuggestions()))

	n, err := db.DeleteRunsBefore(old.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := db.GetSuggestions("old")
	require.NoError(t, err)
	assert.Empty(t, stored)

	runs, err := db.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].ID)
}

func TestResolveRunID(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []string{"abc123", "abd456", "xyz789"} {
		require.NoError(t, db.SaveRun(&Run{ID: id, Command: "optimize", Version: "dev"}, nil))
	}

	id, err := db.ResolveRunID("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	id, err = db.ResolveRunID("xyz789")
	require.NoError(t, err)
	assert.Equal(t, "xyz789", id)

	id, err = db.ResolveRunID("nope")
	require.NoError(t, err)
	assert.Empty(t, id)

	_, err = db.ResolveRunID("ab")
	assert.Error(t, err)
}
