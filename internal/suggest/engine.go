package suggest

import (
	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/logger"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

type namedRule struct {
	name string
	rule Rule
}

// Engine runs its rules in order against an OptimizationContext. A stage sees
// only the hours and slots earlier stages handed out, never their suggestions.
type Engine struct {
	rules []namedRule
}

// NewEngine creates an engine with the four built-in stages registered.
func NewEngine() *Engine {
	return &Engine{
		rules: []namedRule{
			{"underperforming_classes", UnderperformingClasses},
			{"trainer_hour_balancing", TrainerHourBalancing},
			{"opportunistic_trainer_swaps", OpportunisticTrainerSwaps},
			{"redundant_classes", RedundantClasses},
		},
	}
}

// Run executes every stage, assigns IDs, drops duplicates, ranks, truncates
// to MaxSuggestions, and aggregates impact and insights. It never fails: a
// nil context or missing profiles yield an empty result.
func (e *Engine) Run(ctx *OptimizationContext) Result {
	prepared := prepare(ctx)
	log := logger.WithComponent("suggest")

	var all []Suggestion
	for _, r := range e.rules {
		found := r.rule(prepared)
		log.WithField("rule", r.name).WithField("count", len(found)).Debug("rule finished")
		all = append(all, found...)
	}

	for i := range all {
		if all[i].Source == "" {
			all[i].Source = SourceRules
		}
		all[i].ID = SuggestionID(all[i])
	}

	final := Truncate(RankSuggestions(Deduplicate(all)), prepared.Config.MaxSuggestions)
	log.WithField("generated", len(all)).WithField("kept", len(final)).Debug("optimization finished")

	return Summarize(prepared, final)
}

// Optimize is the one-call form of NewEngine().Run.
func Optimize(schedule []studio.ScheduledClass, cfg OptimizationConfig, profiles *analyzer.Profiles, trainerHours map[string]float64) Result {
	return NewEngine().Run(&OptimizationContext{
		Schedule:     schedule,
		Config:       cfg,
		Profiles:     profiles,
		TrainerHours: trainerHours,
	})
}

// prepare returns a copy of ctx with defaults applied, profiles non-nil and
// trainer hours keyed by normalized name.
func prepare(ctx *OptimizationContext) *OptimizationContext {
	out := &OptimizationContext{}
	if ctx != nil {
		*out = *ctx
	}
	out.Config = out.Config.WithDefaults()
	out.proposed = newProposals()
	if out.Profiles == nil {
		out.Profiles = analyzer.NewProfiles()
	}

	if out.TrainerHours == nil {
		out.TrainerHours = HoursFromSchedule(out.Schedule)
	} else {
		hours := make(map[string]float64, len(out.TrainerHours))
		for name, h := range out.TrainerHours {
			hours[studio.NormalizeName(name)] += h
		}
		out.TrainerHours = hours
	}
	return out
}

// Summarize builds the full Result for an already ranked suggestion list.
func Summarize(ctx *OptimizationContext, suggestions []Suggestion) Result {
	prepared := prepare(ctx)
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return Result{
		Suggestions:         suggestions,
		TrainerHoursSummary: ComputeTrainerHours(prepared, suggestions),
		FormatMixImpact:     ComputeFormatMix(prepared.Schedule, suggestions),
		ProjectedImpact:     ComputeProjectedImpact(suggestions),
		Insights:            GenerateInsights(prepared, suggestions),
	}
}
