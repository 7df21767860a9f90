package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

func impactFixture() ([]studio.ScheduledClass, []Suggestion) {
	schedule := []studio.ScheduledClass{
		class("c1", "Monday", "07:00", "Spin", "B", "X", 30, 5),
		class("c2", "Monday", "08:00", "Barre", "C", "X", 40, 5),
		class("c3", "Tuesday", "07:00", "Spin", "D", "X", 20, 5),
	}
	c1, c2, c3 := StateOf(schedule[0]), StateOf(schedule[1]), StateOf(schedule[2])
	suggestions := []Suggestion{
		{
			Type:     TypeReplaceTrainer,
			Priority: PriorityHigh,
			Original: &c1,
			Suggested: ClassState{ClassID: "c1", Format: "Spin", Trainer: "A",
				ProjectedFillRate: 90, ProjectedCheckIns: 18},
		},
		{
			Type:     TypeReplaceClass,
			Priority: PriorityMedium,
			Original: &c2,
			Suggested: ClassState{ClassID: "c2", Format: "Vinyasa", Trainer: "A",
				ProjectedFillRate: 60, ProjectedCheckIns: 12},
		},
		{
			Type:      TypeAddClass,
			Priority:  PriorityLow,
			Suggested: ClassState{Format: "HIIT", Trainer: "E", ProjectedCheckIns: 15, ProjectedFillRate: 75},
		},
		{
			Type:      TypeRemoveClass,
			Priority:  PriorityLow,
			Original:  &c3,
			Suggested: c3,
		},
	}
	return schedule, suggestions
}

func TestComputeProjectedImpact(t *testing.T) {
	_, suggestions := impactFixture()
	impact := ComputeProjectedImpact(suggestions)

	// (18 - 6) + (12 - 8); additions and removals are excluded.
	assert.InDelta(t, 16.0, impact.AttendanceDelta, 1e-9)
	// Mean of +60 and +20.
	assert.InDelta(t, 40.0, impact.AvgFillRateDelta, 1e-9)
	assert.Equal(t, 4, impact.SuggestionCount)
	assert.Equal(t, 1, impact.ClassesAdded)
	assert.Equal(t, 1, impact.ClassesRemoved)
	assert.Equal(t, 1, impact.ByType[TypeReplaceClass])
}

func TestComputeProjectedImpact_Empty(t *testing.T) {
	impact := ComputeProjectedImpact(nil)
	assert.Zero(t, impact.AttendanceDelta)
	assert.Zero(t, impact.AvgFillRateDelta)
	assert.NotNil(t, impact.ByType)
}

func TestComputeFormatMix(t *testing.T) {
	schedule, suggestions := impactFixture()
	mix := ComputeFormatMix(schedule, suggestions)

	assert.Equal(t, map[studio.Category]int{
		studio.CategoryCycle: 2,
		studio.CategoryBarre: 1,
	}, mix.Before)
	// Barre -> Vinyasa, +HIIT, one Spin removed.
	assert.Equal(t, map[studio.Category]int{
		studio.CategoryCycle: 1,
		studio.CategoryYoga:  1,
		studio.CategoryHIIT:  1,
	}, mix.After)
}

func TestComputeTrainerHours(t *testing.T) {
	schedule, suggestions := impactFixture()
	ctx := prepare(&OptimizationContext{Schedule: schedule, Profiles: analyzer.NewProfiles()})
	hours := ComputeTrainerHours(ctx, suggestions)

	byName := make(map[string]TrainerHours)
	for _, h := range hours {
		byName[h.Trainer] = h
	}
	require.Len(t, byName, 5)

	assert.Equal(t, 0.0, byName["A"].Current)
	assert.Equal(t, 2.0, byName["A"].Projected)
	assert.Equal(t, HoursUnder, byName["A"].Status)
	assert.Equal(t, 0.0, byName["B"].Projected)
	assert.Equal(t, 0.0, byName["D"].Projected)
	assert.Equal(t, 1.0, byName["E"].Projected)
	assert.Equal(t, 15.0, byName["C"].Target)

	for i := 1; i < len(hours); i++ {
		assert.Less(t, hours[i-1].Trainer, hours[i].Trainer)
	}
}

func TestHourStatus(t *testing.T) {
	assert.Equal(t, HoursUnder, hourStatus(12, 15, 20))
	assert.Equal(t, HoursOnTarget, hourStatus(13, 15, 20))
	assert.Equal(t, HoursOnTarget, hourStatus(20, 15, 20))
	assert.Equal(t, HoursOver, hourStatus(21, 15, 20))
}

func TestGenerateInsights(t *testing.T) {
	profiles, schedule := swapFixture()
	schedule = append(schedule, class("c2", "Friday", "12:00", "Barre", "C", "X", 95, 5))
	ctx := prepare(&OptimizationContext{Schedule: schedule, Profiles: profiles})

	insights := GenerateInsights(ctx, []Suggestion{{Priority: PriorityHigh}, {Priority: PriorityLow}})
	require.Len(t, insights, 4)
	assert.Contains(t, insights[0], "1 class(es) are underperforming")
	assert.Contains(t, insights[1], "1 high-priority")
	assert.Contains(t, insights[2], "A")
	assert.Contains(t, insights[3], "Top trainer by fill rate: A")
}

func TestGenerateInsights_Empty(t *testing.T) {
	insights := GenerateInsights(prepare(nil), nil)
	assert.NotNil(t, insights)
	assert.Empty(t, insights)
}
