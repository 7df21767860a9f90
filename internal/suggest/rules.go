package suggest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// Rule thresholds, in fill-rate points unless noted.
const (
	minImprovement        = 10.0
	locationAvgFactor     = 0.9
	minClassSessions      = 3
	hourGapThreshold      = 2.0
	balanceMinFillRate    = 65.0
	replaceableFillRate   = 70.0
	maxBalancePerTrainer  = 2
	highFillCombination   = 80.0
	opportunisticFillRate = 75.0
	redundantFillRate     = 50.0
	redundantMediumBelow  = 35.0
	daysPerWeek           = 7
)

// candidate is one possible replacement for a class.
type candidate struct {
	kind      SuggestionType
	trainer   *analyzer.TrainerProfile
	format    string
	projected float64
	sessions  int
	detail    string
}

// IsUnderperforming reports whether a class sits below both the location's
// absolute floor and 90% of the location average, with enough history to
// act on.
func IsUnderperforming(c studio.ScheduledClass, locationAvg float64, cfg OptimizationConfig) bool {
	if c.SessionCount < minClassSessions {
		return false
	}
	threshold := math.Min(cfg.FillRateFloor(c.Location), locationAvg*locationAvgFactor)
	return c.FillRate < threshold
}

// locationAverages returns the mean current fill rate per location.
func locationAverages(schedule []studio.ScheduledClass) map[string]float64 {
	groups := stats.GroupBy(schedule, func(c studio.ScheduledClass) string { return c.Location })
	out := make(map[string]float64, groups.Len())
	for _, loc := range groups.Keys() {
		classes := groups.Get(loc)
		fills := make([]float64, len(classes))
		for i, c := range classes {
			fills[i] = c.FillRate
		}
		out[loc] = stats.Average(fills)
	}
	return out
}

// incumbentBaseline is the incumbent's historical fill rate for the class's
// format, or the class's current fill rate when there is no such history.
func incumbentBaseline(ctx *OptimizationContext, c studio.ScheduledClass) float64 {
	if tp := ctx.Profiles.Trainer(c.Trainer); tp != nil {
		if perf, ok := tp.FormatPerformance[c.Format]; ok && perf.Sessions > 0 {
			return perf.AvgFillRate
		}
	}
	return c.FillRate
}

// UnderperformingClasses looks for a better format or trainer for every class
// that trails its location, keeping the single best candidate per class.
func UnderperformingClasses(ctx *OptimizationContext) []Suggestion {
	var suggestions []Suggestion
	averages := locationAverages(ctx.Schedule)

	for _, c := range ctx.Schedule {
		if !IsUnderperforming(c, averages[c.Location], ctx.Config) {
			continue
		}

		best := bestFormatSwap(ctx, c)
		if alt := bestTrainerSwap(ctx, c); alt != nil && (best == nil || alt.projected > best.projected) {
			best = alt
		}
		if best == nil || best.projected < c.FillRate+minImprovement {
			continue
		}

		original := StateOf(c)
		suggestions = append(suggestions, ctx.claim(Suggestion{
			Type:       best.kind,
			Priority:   PriorityForFill(c.FillRate),
			Confidence: Confidence(best.sessions),
			Original:   &original,
			Suggested:  replacementState(c, best),
			Reason: fmt.Sprintf("%s at %s is %.0f%% full against a %s average of %.0f%%; %s",
				c.Format, c.Location, c.FillRate, c.Location, averages[c.Location], best.detail),
			Impact: fmt.Sprintf("Projected fill rate %.0f%% (+%.0f points)",
				best.projected, best.projected-c.FillRate),
			DataPoints: []string{
				fmt.Sprintf("current fill rate %.1f%% over %d sessions", c.FillRate, c.SessionCount),
				fmt.Sprintf("%s historical sessions supporting the candidate: %d", best.trainer.Name, best.sessions),
			},
		}))
	}
	return suggestions
}

// bestFormatSwap tries the slot's strongest formats with their strongest
// available trainers.
func bestFormatSwap(ctx *OptimizationContext, c studio.ScheduledClass) *candidate {
	ts := ctx.Profiles.TimeSlot(c.Day, c.Time)
	if ts == nil {
		return nil
	}

	var best *candidate
	for _, fp := range ts.TopFormats {
		if strings.EqualFold(fp.Format, c.Format) || ctx.Config.FormatExcluded(fp.Format, c.Location) {
			continue
		}
		format := ctx.Profiles.Format(fp.Format)
		if format == nil {
			continue
		}
		for _, top := range format.TopTrainers {
			tp := ctx.Profiles.Trainer(top.NormalizedName)
			if !ctx.available(tp, slotOf(c)) {
				continue
			}
			projected := (tp.Stats.AvgFillRate + fp.AvgFillRate) / 2
			if best == nil || projected > best.projected {
				best = &candidate{
					kind:      TypeReplaceClass,
					trainer:   tp,
					format:    fp.Format,
					projected: projected,
					sessions:  top.Sessions,
					detail: fmt.Sprintf("%s averages %.0f%% in this slot and %s averages %.0f%% overall",
						fp.Format, fp.AvgFillRate, tp.Name, tp.Stats.AvgFillRate),
				}
			}
		}
	}
	return best
}

// bestTrainerSwap keeps the format and looks for a stronger trainer for it.
func bestTrainerSwap(ctx *OptimizationContext, c studio.ScheduledClass) *candidate {
	if ctx.Config.FormatExcluded(c.Format, c.Location) {
		return nil
	}
	format := ctx.Profiles.Format(c.Format)
	if format == nil {
		return nil
	}
	baseline := incumbentBaseline(ctx, c)
	incumbent := studio.NormalizeName(c.Trainer)

	var best *candidate
	for _, top := range format.TopTrainers {
		if top.NormalizedName == incumbent || top.AvgFillRate < baseline+minImprovement {
			continue
		}
		tp := ctx.Profiles.Trainer(top.NormalizedName)
		if !ctx.available(tp, slotOf(c)) {
			continue
		}
		if best == nil || top.AvgFillRate > best.projected {
			best = &candidate{
				kind:      TypeReplaceTrainer,
				trainer:   tp,
				format:    c.Format,
				projected: top.AvgFillRate,
				sessions:  top.Sessions,
				detail: fmt.Sprintf("%s averages %.0f%% teaching %s against %.0f%% for the current trainer",
					tp.Name, top.AvgFillRate, c.Format, baseline),
			}
		}
	}
	return best
}

func replacementState(c studio.ScheduledClass, cand *candidate) ClassState {
	return ClassState{
		ClassID:           c.ID,
		Day:               c.Day,
		Time:              c.Time,
		Format:            cand.format,
		Trainer:           cand.trainer.Name,
		Location:          c.Location,
		Capacity:          c.Capacity,
		FillRate:          c.FillRate,
		CheckIns:          c.AvgCheckIns,
		ProjectedFillRate: stats.Round1(cand.projected),
		ProjectedCheckIns: projectedCheckIns(cand.projected, c.Capacity),
	}
}

// TrainerHourBalancing proposes extra classes for strong trainers who are
// well under their hour target, drawn from their best historical pairings.
func TrainerHourBalancing(ctx *OptimizationContext) []Suggestion {
	var suggestions []Suggestion
	cfg := ctx.Config

	keys := make([]string, 0, len(ctx.Profiles.Trainers))
	for k := range ctx.Profiles.Trainers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		tp := ctx.Profiles.Trainers[key]
		if len(cfg.PriorityTrainers) > 0 && !cfg.IsPriority(tp.Name) {
			continue
		}
		hours := ctx.hours(tp.Name)
		if hours >= cfg.TargetHoursFor(tp.Name)-hourGapThreshold || tp.Stats.AvgFillRate < balanceMinFillRate {
			continue
		}

		days := ctx.daysTeaching(tp.Name)
		added := 0
		for _, combo := range tp.BestCombinations {
			if added >= maxBalancePerTrainer {
				break
			}
			if cfg.FormatExcluded(combo.Format, combo.Location) {
				continue
			}
			if ctx.teachingAt(tp.Name, combo.Day, combo.Time, "") {
				continue
			}
			at := slot{day: combo.Day, time: combo.Time, location: combo.Location}
			if !ctx.available(tp, at) {
				continue
			}
			day := studio.NormalizeDay(combo.Day)
			if !days[day] && daysPerWeek-(len(days)+1) < cfg.MinDaysOffFor(tp.Name) {
				continue
			}

			s, ok := balanceSuggestion(ctx, tp, combo, hours)
			if !ok {
				continue
			}
			suggestions = append(suggestions, ctx.claim(s))
			days[day] = true
			added++
		}
	}
	return suggestions
}

// balanceSuggestion builds an add_class for an empty slot or a replace_class
// for a slot held by a weak class. ok is false when the slot is held by a
// class that is doing fine.
func balanceSuggestion(ctx *OptimizationContext, tp *analyzer.TrainerProfile, combo analyzer.Combination, hours float64) (Suggestion, bool) {
	target := ctx.Config.TargetHoursFor(tp.Name)
	dataPoints := []string{
		fmt.Sprintf("%s: %.0f%% average fill over %d sessions of %s %s %s at %s",
			tp.Name, combo.AvgFillRate, combo.Sessions, combo.Format, combo.Day, combo.Time, combo.Location),
		fmt.Sprintf("current hours %.0f, target %.0f", hours, target),
	}

	var occupant *studio.ScheduledClass
	slotKey := studio.SlotKey(combo.Day, combo.Time)
	for i, c := range ctx.Schedule {
		if c.SlotKey() != slotKey || c.Location != combo.Location {
			continue
		}
		if c.FillRate >= replaceableFillRate {
			return Suggestion{}, false
		}
		if occupant == nil || c.FillRate < occupant.FillRate {
			occupant = &ctx.Schedule[i]
		}
	}

	if occupant == nil {
		capacity := 0
		if combo.AvgFillRate > 0 {
			capacity = int(math.Round(combo.AvgCheckIns / combo.AvgFillRate * 100))
		}
		priority := PriorityLow
		if combo.AvgFillRate >= highFillCombination {
			priority = PriorityMedium
		}
		return Suggestion{
			Type:       TypeAddClass,
			Priority:   priority,
			Confidence: Confidence(combo.Sessions),
			Suggested: ClassState{
				Day:               combo.Day,
				Time:              combo.Time,
				Format:            combo.Format,
				Trainer:           tp.Name,
				Location:          combo.Location,
				Capacity:          capacity,
				ProjectedFillRate: stats.Round1(combo.AvgFillRate),
				ProjectedCheckIns: stats.Round1(combo.AvgCheckIns),
			},
			Reason: fmt.Sprintf("%s is %.0f hours under target and fills %s %s %s at %.0f%%",
				tp.Name, target-hours, combo.Format, combo.Day, combo.Time, combo.AvgFillRate),
			Impact:     fmt.Sprintf("Adds one class for %s (%.0f → %.0f hours)", tp.Name, hours, hours+1),
			DataPoints: dataPoints,
		}, true
	}

	if combo.AvgFillRate <= occupant.FillRate {
		return Suggestion{}, false
	}
	original := StateOf(*occupant)
	return Suggestion{
		Type:       TypeReplaceClass,
		Priority:   PriorityForFill(occupant.FillRate),
		Confidence: Confidence(combo.Sessions),
		Original:   &original,
		Suggested: replacementState(*occupant, &candidate{
			trainer:   tp,
			format:    combo.Format,
			projected: combo.AvgFillRate,
		}),
		Reason: fmt.Sprintf("%s is %.0f hours under target; %s at this slot is only %.0f%% full",
			tp.Name, target-hours, occupant.Format, occupant.FillRate),
		Impact: fmt.Sprintf("Projected fill rate %.0f%% (+%.0f points)",
			combo.AvgFillRate, combo.AvgFillRate-occupant.FillRate),
		DataPoints: dataPoints,
	}, true
}

// OpportunisticTrainerSwaps checks every class under 75% fill for a top
// trainer of the same format who beats the incumbent by more than 10 points.
func OpportunisticTrainerSwaps(ctx *OptimizationContext) []Suggestion {
	var suggestions []Suggestion
	for _, c := range ctx.Schedule {
		if c.FillRate >= opportunisticFillRate || ctx.Config.FormatExcluded(c.Format, c.Location) {
			continue
		}
		format := ctx.Profiles.Format(c.Format)
		if format == nil {
			continue
		}
		baseline := incumbentBaseline(ctx, c)
		incumbent := studio.NormalizeName(c.Trainer)

		for _, top := range format.TopTrainers {
			if top.NormalizedName == incumbent || top.AvgFillRate <= baseline+minImprovement {
				continue
			}
			tp := ctx.Profiles.Trainer(top.NormalizedName)
			if !ctx.available(tp, slotOf(c)) {
				continue
			}
			original := StateOf(c)
			suggestions = append(suggestions, ctx.claim(Suggestion{
				Type:       TypeReplaceTrainer,
				Priority:   PriorityForFill(c.FillRate),
				Confidence: Confidence(top.Sessions),
				Original:   &original,
				Suggested: replacementState(c, &candidate{
					trainer:   tp,
					format:    c.Format,
					projected: top.AvgFillRate,
				}),
				Reason: fmt.Sprintf("%s averages %.0f%% teaching %s; %s averages %.0f%%",
					tp.Name, top.AvgFillRate, c.Format, c.Trainer, baseline),
				Impact: fmt.Sprintf("Projected fill rate %.0f%% (+%.0f points)",
					top.AvgFillRate, top.AvgFillRate-c.FillRate),
				DataPoints: []string{
					fmt.Sprintf("%s: %d sessions of %s", tp.Name, top.Sessions, c.Format),
					fmt.Sprintf("current fill rate %.1f%%", c.FillRate),
				},
			}))
			break
		}
	}
	return suggestions
}

type slotLocation struct {
	slot, location string
}

// RedundantClasses flags the weakest of several same-category classes that
// share a slot and location.
func RedundantClasses(ctx *OptimizationContext) []Suggestion {
	var suggestions []Suggestion
	slots := stats.GroupBy(ctx.Schedule, func(c studio.ScheduledClass) slotLocation {
		return slotLocation{c.SlotKey(), c.Location}
	})

	for _, key := range slots.Keys() {
		classes := slots.Get(key)
		if len(classes) < 2 {
			continue
		}
		categories := stats.GroupBy(classes, func(c studio.ScheduledClass) studio.Category {
			return studio.CategoryOf(c.Format)
		})
		for _, cat := range categories.Keys() {
			group := categories.Get(cat)
			if len(group) < 2 {
				continue
			}
			weakestAt := 0
			for i, c := range group {
				if c.FillRate < group[weakestAt].FillRate {
					weakestAt = i
				}
			}
			weakest := group[weakestAt]
			if weakest.FillRate >= redundantFillRate {
				continue
			}

			var competitors []string
			for i, c := range group {
				if i != weakestAt {
					competitors = append(competitors, fmt.Sprintf("%s with %s (%.0f%%)", c.Format, c.Trainer, c.FillRate))
				}
			}

			priority := PriorityLow
			if weakest.FillRate < redundantMediumBelow {
				priority = PriorityMedium
			}
			original := StateOf(weakest)
			suggestions = append(suggestions, Suggestion{
				Type:       TypeRemoveClass,
				Priority:   priority,
				Confidence: Confidence(weakest.SessionCount),
				Original:   &original,
				Suggested:  original,
				Reason: fmt.Sprintf("%s competes with %d other %s class(es) at %s %s and is %.0f%% full",
					weakest.Format, len(group)-1, cat, weakest.Location, key.slot, weakest.FillRate),
				Impact:     "Frees the slot and consolidates attendance into the stronger class",
				DataPoints: competitors,
			})
		}
	}
	return suggestions
}
