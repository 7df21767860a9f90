package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/studiowatch/internal/studio"
)

func addClass(trainer, day, clock, format string) Suggestion {
	return Suggestion{
		Type:      TypeAddClass,
		Suggested: ClassState{Day: day, Time: clock, Format: format, Trainer: trainer, Location: "X"},
	}
}

func TestAdmissible(t *testing.T) {
	schedule := []studio.ScheduledClass{
		class("c1", "Monday", "07:00", "HIIT", "B", "X", 30, 5),
	}
	swap := Suggestion{
		Type:      TypeReplaceTrainer,
		Original:  &ClassState{ClassID: "c1", Day: "Monday", Time: "07:00", Format: "HIIT", Trainer: "B", Location: "X"},
		Suggested: ClassState{ClassID: "c1", Day: "Monday", Time: "07:00", Format: "HIIT", Trainer: "A", Location: "X"},
	}

	tests := []struct {
		name  string
		cfg   OptimizationConfig
		hours map[string]float64
		s     Suggestion
		want  bool
	}{
		{"plain swap", OptimizationConfig{}, nil, swap, true},
		{"blocked", OptimizationConfig{BlockedTrainers: []string{"a"}}, nil, swap, false},
		{"blocked at location", OptimizationConfig{LocationRules: map[string]LocationRule{"X": {BlockedTrainers: []string{"A"}}}}, nil, swap, false},
		{"excluded format", OptimizationConfig{ExcludedFormats: []string{"hii"}}, nil, swap, false},
		{"on leave", OptimizationConfig{LeavePeriods: []LeavePeriod{{Trainer: "A"}}}, nil, swap, false},
		{"at max hours", OptimizationConfig{MaxTrainerHours: 5}, map[string]float64{"A": 5, "B": 1}, swap, false},
		{"below max hours", OptimizationConfig{MaxTrainerHours: 5}, map[string]float64{"A": 4, "B": 1}, swap, true},
		{"double booked", OptimizationConfig{}, nil, addClass("B", "Mon", "7:00 AM", "Yoga"), false},
		{"free slot", OptimizationConfig{}, nil, addClass("B", "Tuesday", "07:00", "Yoga"), true},
		{"removal", OptimizationConfig{BlockedTrainers: []string{"B"}}, nil, Suggestion{Type: TypeRemoveClass, Original: swap.Original, Suggested: *swap.Original}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := prepare(&OptimizationContext{Schedule: schedule, Config: tt.cfg, TrainerHours: tt.hours})
			assert.Equal(t, tt.want, Admissible(ctx, tt.s))
		})
	}
}

func TestAdmit_CountsEarlierProposals(t *testing.T) {
	ctx := &OptimizationContext{
		Config:       OptimizationConfig{MaxTrainerHours: 3},
		TrainerHours: map[string]float64{"A": 1},
	}
	accepted := []Suggestion{addClass("A", "Monday", "07:00", "HIIT")}
	candidates := []Suggestion{
		addClass("A", "Monday", "07:00", "HIIT"),
		addClass("A", "Monday", "07:00", "Yoga"),
		addClass("A", "Tuesday", "07:00", "HIIT"),
		addClass("A", "Wednesday", "07:00", "HIIT"),
	}

	got := Admit(ctx, accepted, candidates)

	require.Len(t, got, 2)
	assert.Equal(t, "Monday", got[0].Suggested.Day, "repeat of an accepted proposal passes")
	assert.Equal(t, "HIIT", got[0].Suggested.Format)
	assert.Equal(t, "Tuesday", got[1].Suggested.Day)
}
