// Package optimizer wires the pieces together: profile the history, run the
// rule engine, and optionally ask the advisor, returning one bundle.
package optimizer

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/studiowatch/internal/advisor"
	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/logger"
	"github.com/blackwell-systems/studiowatch/internal/studio"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// maxAdvisorCalls bounds concurrent advisor requests in one run.
const maxAdvisorCalls = 4

// Window is the inclusive date range of history to profile. Zero bounds are
// open-ended.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// LastDays returns the window of the given number of days ending on end.
// A non-positive days value yields an open window.
func LastDays(end time.Time, days int) Window {
	if days <= 0 {
		return Window{}
	}
	return Window{From: end.AddDate(0, 0, -(days - 1)), To: end}
}

// Optimize profiles sessions within window and runs the rule engine against
// schedule.
func Optimize(sessions []studio.HistoricalSession, schedule []studio.ScheduledClass, cfg suggest.OptimizationConfig, window Window) suggest.Result {
	profiles := analyzer.BuildProfiles(sessions, window.From, window.To)
	return suggest.Optimize(schedule, cfg, profiles, nil)
}

// Request is one full optimization run.
type Request struct {
	Sessions []studio.HistoricalSession
	Schedule []studio.ScheduledClass
	Config   suggest.OptimizationConfig
	Window   Window

	// TrainerHours overrides hours derived from the schedule.
	TrainerHours map[string]float64

	// Advisor is optional. When set, it is asked once per location (or only
	// for Location) alongside the rules. An advisor without a client reports
	// API_UNAVAILABLE in the bundle.
	Advisor  *advisor.Advisor
	Day      string
	Location string
}

// AdvisorError records why the advisor contributed nothing.
type AdvisorError struct {
	Code     advisor.Code `json:"code"`
	Message  string       `json:"message"`
	Location string       `json:"location,omitempty"`
}

// Bundle is the outcome of Run. Result holds the merged, ranked suggestions;
// rule and advisor counts are kept for reporting.
type Bundle struct {
	RunID        string             `json:"run_id"`
	CreatedAt    time.Time          `json:"created_at"`
	Window       Window             `json:"window"`
	Profiles     *analyzer.Profiles `json:"-"`
	Result       suggest.Result     `json:"result"`
	RuleCount    int                `json:"rule_count"`
	AdviceCount  int                `json:"advice_count"`
	AdvisorError *AdvisorError      `json:"advisor_error,omitempty"`
}

// Run profiles the history, then runs the rule engine and the advisor
// concurrently. Advisor failures land in Bundle.AdvisorError and never fail
// the run; only a context cancelled before the run starts returns an error.
func Run(ctx context.Context, req Request) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).WithField("component", "optimizer")

	profiles := analyzer.BuildProfiles(req.Sessions, req.Window.From, req.Window.To)
	octx := &suggest.OptimizationContext{
		Schedule:     req.Schedule,
		Config:       req.Config,
		Profiles:     profiles,
		TrainerHours: req.TrainerHours,
	}

	locations := advisorLocations(req)
	advice := make([][]suggest.Suggestion, len(locations))
	failures := make([]error, len(locations))
	var rules []suggest.Suggestion

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxAdvisorCalls + 1)
	g.Go(func() error {
		rules = suggest.NewEngine().Run(octx).Suggestions
		return nil
	})
	for i, loc := range locations {
		g.Go(func() error {
			advice[i], failures[i] = req.Advisor.Advise(gctx, advisor.Request{
				Day:      req.Day,
				Location: loc,
				Schedule: req.Schedule,
				Profiles: profiles,
			})
			return nil
		})
	}
	_ = g.Wait()

	var advised []suggest.Suggestion
	var advErr *AdvisorError
	for i, loc := range locations {
		advised = append(advised, advice[i]...)
		if failures[i] != nil && advErr == nil {
			advErr = toAdvisorError(failures[i], loc)
		}
	}

	bundle := &Bundle{
		RunID:        runID,
		CreatedAt:    time.Now().UTC(),
		Window:       req.Window,
		Profiles:     profiles,
		Result:       Merge(octx, rules, advised),
		RuleCount:    len(rules),
		AdviceCount:  len(advised),
		AdvisorError: advErr,
	}

	entry := log.WithField("rules", bundle.RuleCount).WithField("advice", bundle.AdviceCount).
		WithField("kept", len(bundle.Result.Suggestions))
	if advErr != nil {
		entry = entry.WithField("advisor_code", advErr.Code)
	}
	entry.Info("optimization run finished")

	return bundle, nil
}

// Merge combines rule and advisor suggestions into one ranked, de-duplicated
// and truncated Result. Advisor suggestions that break a hard constraint,
// counting the hours and slots the rule suggestions already take, are
// dropped. On an ID collision the higher-confidence entry wins.
func Merge(octx *suggest.OptimizationContext, rules, advised []suggest.Suggestion) suggest.Result {
	admitted := suggest.Admit(octx, rules, advised)
	if dropped := len(advised) - len(admitted); dropped > 0 {
		logger.WithComponent("optimizer").WithField("dropped", dropped).Debug("advisor suggestions rejected by constraints")
	}
	advised = admitted

	all := make([]suggest.Suggestion, 0, len(rules)+len(advised))
	all = append(all, rules...)
	all = append(all, advised...)

	limit := suggest.DefaultMaxSuggestions
	if octx != nil && octx.Config.MaxSuggestions > 0 {
		limit = octx.Config.MaxSuggestions
	}
	final := suggest.Truncate(suggest.RankSuggestions(suggest.Deduplicate(all)), limit)
	return suggest.Summarize(octx, final)
}

// advisorLocations lists the locations to ask about, in a stable order.
func advisorLocations(req Request) []string {
	if req.Advisor == nil {
		return nil
	}
	if req.Location != "" {
		return []string{req.Location}
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range req.Schedule {
		key := strings.ToLower(c.Location)
		if c.Location == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c.Location)
	}
	sort.Strings(out)
	return out
}

func toAdvisorError(err error, location string) *AdvisorError {
	var ae *advisor.Error
	if errors.As(err, &ae) {
		return &AdvisorError{Code: ae.Code, Message: ae.Message, Location: location}
	}
	return &AdvisorError{Code: advisor.CodeUnknown, Message: err.Error(), Location: location}
}
