package watcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

func makeState(sessions, schedule int, fill float64, high ...suggest.Suggestion) *WatchState {
	s := &WatchState{
		SessionCount: sessions,
		ScheduleSize: schedule,
		AvgFillRate:  fill,
		HighPriority: make(map[string]suggest.Suggestion),
	}
	for _, h := range high {
		s.HighPriority[h.ID] = h
	}
	return s
}

func swapSuggestion() suggest.Suggestion {
	s := suggest.Suggestion{
		Type:     suggest.TypeReplaceTrainer,
		Priority: suggest.PriorityHigh,
		Original: &suggest.ClassState{ClassID: "c1", Day: "Monday", Time: "07:00", Format: "HIIT", Trainer: "B", Location: "X"},
		Suggested: suggest.ClassState{
			ClassID: "c1", Day: "Monday", Time: "07:00", Format: "HIIT", Trainer: "A", Location: "X",
		},
		Reason: "A averages 90% in this slot",
	}
	s.ID = suggest.SuggestionID(s)
	return s
}

func TestCompare_IdenticalStates(t *testing.T) {
	swap := swapSuggestion()
	prev := makeState(10, 4, 55, swap)
	curr := makeState(10, 4, 55, swap)
	assert.Empty(t, Compare(prev, curr, nil))
}

func TestCompare_NewHighPriority(t *testing.T) {
	swap := swapSuggestion()
	alerts := Compare(makeState(10, 4, 55), makeState(10, 4, 55, swap), nil)

	require.Len(t, alerts, 1)
	assert.Equal(t, "critical", alerts[0].Level)
	assert.Equal(t, "High priority: replace_trainer", alerts[0].Title)
	assert.Equal(t, "Monday 07:00 HIIT with B at X. A averages 90% in this slot", alerts[0].Message)
}

func TestCompare_RejectedSuggestionsAreSilent(t *testing.T) {
	swap := swapSuggestion()
	rejected := map[string]bool{swap.ID: true}

	assert.Empty(t, Compare(makeState(10, 4, 55), makeState(10, 4, 55, swap), rejected))
	assert.Empty(t, Compare(makeState(10, 4, 55, swap), makeState(10, 4, 55), rejected))
}

func TestCompare_Resolved(t *testing.T) {
	swap := swapSuggestion()
	alerts := Compare(makeState(10, 4, 55, swap), makeState(10, 4, 55), nil)

	require.Len(t, alerts, 1)
	assert.Equal(t, "info", alerts[0].Level)
	assert.Equal(t, "Resolved: replace_trainer", alerts[0].Title)
}

func TestCompare_FillRateDrop(t *testing.T) {
	alerts := Compare(makeState(10, 4, 60), makeState(10, 4, 54.5), nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, "warning", alerts[0].Level)
	assert.Equal(t, "Average fill rate is 54.5% (was 60.0%)", alerts[0].Message)

	assert.Empty(t, Compare(makeState(10, 4, 60), makeState(10, 4, 56), nil), "small drops are ignored")
	assert.Empty(t, Compare(makeState(0, 4, 60), makeState(10, 4, 20), nil), "no baseline without history")
}

func TestCompare_MoreUnderperforming(t *testing.T) {
	prev := makeState(10, 4, 55)
	prev.Underperforming = 1
	curr := makeState(10, 4, 55)
	curr.Underperforming = 3

	alerts := Compare(prev, curr, nil)
	require.Len(t, alerts, 1)
	assert.Equal(t, "More underperforming classes", alerts[0].Title)
}

func TestCompare_InfoChanges(t *testing.T) {
	alerts := Compare(makeState(10, 4, 55), makeState(14, 5, 55), nil)
	require.Len(t, alerts, 2)
	assert.Equal(t, "New attendance data", alerts[0].Title)
	assert.Equal(t, "4 new sessions recorded (14 total)", alerts[0].Message)
	assert.Equal(t, "Schedule changed", alerts[1].Title)
}

func TestCompare_OrderedBySeverity(t *testing.T) {
	swap := swapSuggestion()
	alerts := Compare(makeState(10, 4, 70), makeState(12, 4, 50, swap), nil)

	var levels []string
	for _, a := range alerts {
		levels = append(levels, a.Level)
	}
	assert.Equal(t, []string{"critical", "warning", "info"}, levels)
}

func TestDescribe_Addition(t *testing.T) {
	s := suggest.Suggestion{
		Type:      suggest.TypeAddClass,
		Suggested: suggest.ClassState{Day: "Saturday", Time: "09:00", Format: "Barre", Location: "Y"},
	}
	assert.Equal(t, "Saturday 09:00 Barre at Y", describe(s))
}
