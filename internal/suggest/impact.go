package suggest

import (
	"sort"

	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// ProjectedImpact is the headline effect of applying every suggestion.
type ProjectedImpact struct {
	// AttendanceDelta sums projected minus current check-ins over
	// suggestions that change an existing class.
	AttendanceDelta float64 `json:"attendance_delta"`

	// AvgFillRateDelta averages projected minus current fill rate over the
	// same suggestions.
	AvgFillRateDelta float64 `json:"avg_fill_rate_delta"`

	SuggestionCount int                    `json:"suggestion_count"`
	ByType          map[SuggestionType]int `json:"by_type"`
	ClassesAdded    int                    `json:"classes_added"`
	ClassesRemoved  int                    `json:"classes_removed"`
}

// FormatMix is the category histogram before and after the suggestions.
type FormatMix struct {
	Before map[studio.Category]int `json:"before"`
	After  map[studio.Category]int `json:"after"`
}

// Hour status values for TrainerHours.
const (
	HoursUnder    = "under"
	HoursOnTarget = "on_target"
	HoursOver     = "over"
)

// TrainerHours compares a trainer's current and projected weekly hours.
type TrainerHours struct {
	Trainer   string  `json:"trainer"`
	Current   float64 `json:"current"`
	Projected float64 `json:"projected"`
	Target    float64 `json:"target"`
	Max       float64 `json:"max"`
	Status    string  `json:"status"`
}

// changesExisting reports whether a suggestion modifies a class in place.
func changesExisting(s Suggestion) bool {
	return s.Original != nil && s.Type != TypeAddClass && s.Type != TypeRemoveClass
}

// ComputeProjectedImpact aggregates attendance and fill-rate deltas.
func ComputeProjectedImpact(suggestions []Suggestion) ProjectedImpact {
	impact := ProjectedImpact{
		SuggestionCount: len(suggestions),
		ByType:          make(map[SuggestionType]int),
	}

	var fillDeltas []float64
	for _, s := range suggestions {
		impact.ByType[s.Type]++
		switch s.Type {
		case TypeAddClass, TypeDuplicateClass:
			impact.ClassesAdded++
		case TypeRemoveClass:
			impact.ClassesRemoved++
		}
		if !changesExisting(s) {
			continue
		}
		impact.AttendanceDelta += s.Suggested.ProjectedCheckIns - s.Original.CheckIns
		fillDeltas = append(fillDeltas, s.Suggested.ProjectedFillRate-s.Original.FillRate)
	}

	impact.AttendanceDelta = stats.Round1(impact.AttendanceDelta)
	impact.AvgFillRateDelta = stats.Round1(stats.Average(fillDeltas))
	return impact
}

// ComputeFormatMix replays each suggestion's category change onto the
// current schedule's histogram.
func ComputeFormatMix(schedule []studio.ScheduledClass, suggestions []Suggestion) FormatMix {
	mix := FormatMix{
		Before: make(map[studio.Category]int),
		After:  make(map[studio.Category]int),
	}
	for _, c := range schedule {
		cat := studio.CategoryOf(c.Format)
		mix.Before[cat]++
		mix.After[cat]++
	}

	for _, s := range suggestions {
		switch s.Type {
		case TypeReplaceClass:
			if s.Original != nil {
				decrement(mix.After, studio.CategoryOf(s.Original.Format))
			}
			mix.After[studio.CategoryOf(s.Suggested.Format)]++
		case TypeAddClass, TypeDuplicateClass:
			mix.After[studio.CategoryOf(s.Suggested.Format)]++
		case TypeRemoveClass:
			if s.Original != nil {
				decrement(mix.After, studio.CategoryOf(s.Original.Format))
			}
		}
	}
	return mix
}

func decrement(m map[studio.Category]int, cat studio.Category) {
	if m[cat] <= 1 {
		delete(m, cat)
		return
	}
	m[cat]--
}

// ComputeTrainerHours projects every known trainer's weekly hours after the
// suggestions are applied. Trainers are listed by display name.
func ComputeTrainerHours(ctx *OptimizationContext, suggestions []Suggestion) []TrainerHours {
	display := make(map[string]string)
	remember := func(name string) {
		key := studio.NormalizeName(name)
		if key == "" {
			return
		}
		if _, ok := display[key]; !ok {
			display[key] = name
		}
	}
	for _, c := range ctx.Schedule {
		remember(c.Trainer)
	}
	for _, tp := range ctx.Profiles.Trainers {
		remember(tp.Name)
	}

	projected := make(map[string]float64, len(ctx.TrainerHours))
	for k, h := range ctx.TrainerHours {
		projected[k] = h
	}
	move := func(name string, delta float64) {
		remember(name)
		projected[studio.NormalizeName(name)] += delta
	}

	for _, s := range suggestions {
		switch s.Type {
		case TypeReplaceTrainer, TypeReplaceClass:
			if s.Original == nil || studio.NormalizeName(s.Original.Trainer) == studio.NormalizeName(s.Suggested.Trainer) {
				continue
			}
			move(s.Original.Trainer, -1)
			move(s.Suggested.Trainer, 1)
		case TypeAddClass, TypeDuplicateClass:
			move(s.Suggested.Trainer, 1)
		case TypeRemoveClass:
			if s.Original != nil {
				move(s.Original.Trainer, -1)
			}
		}
	}

	out := make([]TrainerHours, 0, len(display))
	for key, name := range display {
		current := ctx.TrainerHours[key]
		after := projected[key]
		if after < 0 {
			after = 0
		}
		target := ctx.Config.TargetHoursFor(name)
		ceiling := ctx.Config.MaxHoursFor(name)
		out = append(out, TrainerHours{
			Trainer:   name,
			Current:   current,
			Projected: after,
			Target:    target,
			Max:       ceiling,
			Status:    hourStatus(after, target, ceiling),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trainer < out[j].Trainer })
	return out
}

func hourStatus(hours, target, ceiling float64) string {
	switch {
	case hours > ceiling:
		return HoursOver
	case hours < target-hourGapThreshold:
		return HoursUnder
	default:
		return HoursOnTarget
	}
}
