package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/studiowatch/internal/config"
	"github.com/blackwell-systems/studiowatch/internal/logger"
	"github.com/blackwell-systems/studiowatch/internal/optimizer"
	"github.com/blackwell-systems/studiowatch/internal/output"
	"github.com/blackwell-systems/studiowatch/internal/store"
	"github.com/blackwell-systems/studiowatch/internal/studio"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

var (
	optimizeAdvisor  bool
	optimizeSave     bool
	optimizeLimit    int
	optimizeDay      string
	optimizeLocation string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Generate ranked schedule change suggestions",
	Long: `Profile the attendance history, run the rule engine against the current
schedule, and print ranked suggestions with their projected impact. With
--advisor (or advisor.enabled in config) the text-generation advisor is asked
per location in parallel; its failures are reported but never stop the run.

Examples:
  studiowatch optimize
  studiowatch optimize --location Downtown --day Monday
  studiowatch optimize --advisor --save
  studiowatch optimize --json --limit 5`,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().BoolVar(&optimizeAdvisor, "advisor", false, "Also ask the advisor for suggestions")
	optimizeCmd.Flags().BoolVar(&optimizeSave, "save", false, "Record the run and its suggestions in the history database")
	optimizeCmd.Flags().IntVar(&optimizeLimit, "limit", 0, "Maximum suggestions to show (default: optimization.max_suggestions)")
	optimizeCmd.Flags().StringVar(&optimizeDay, "day", "", "Only show suggestions for this weekday")
	optimizeCmd.Flags().StringVar(&optimizeLocation, "location", "", "Only show suggestions for this location")
	rootCmd.AddCommand(optimizeCmd)
}

// optimizeOutput is the JSON-serializable result of the optimize command.
type optimizeOutput struct {
	*optimizer.Bundle
	Saved bool `json:"saved"`
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	constraints, err := cfg.Constraints()
	if err != nil {
		return err
	}
	data, err := loadData(cfg)
	if err != nil {
		return err
	}

	req := optimizer.Request{
		Sessions: data.Sessions,
		Schedule: data.Schedule,
		Config:   constraints,
		Window:   profileWindow(cfg),
		Day:      studio.NormalizeDay(optimizeDay),
		Location: optimizeLocation,
	}
	if optimizeAdvisor || cfg.Advisor.Enabled {
		if req.Advisor, err = newAdvisor(cfg); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	bundle, err := optimizer.Run(ctx, req)
	if err != nil {
		return err
	}
	bundle.Result.Suggestions = filterSuggestions(bundle.Result.Suggestions, optimizeDay, optimizeLocation)
	if optimizeLimit > 0 {
		bundle.Result.Suggestions = suggest.Truncate(bundle.Result.Suggestions, optimizeLimit)
	}

	var reviewed map[string]string
	if optimizeSave {
		if reviewed, err = saveBundle(bundle, data, "optimize"); err != nil {
			return err
		}
	} else {
		reviewed = loadReviewed()
	}

	if flagJSON {
		return printJSON(optimizeOutput{Bundle: bundle, Saved: optimizeSave})
	}

	renderSuggestions(bundle.Result.Suggestions, reviewed)
	renderResult(bundle.Result)
	renderAdvisorError(bundle.AdvisorError)
	if optimizeSave {
		fmt.Printf(" %s run %s\n\n", output.StyleSuccess.Render("Saved"), bundle.RunID)
	}
	return nil
}

// filterSuggestions keeps suggestions targeting day and location; empty
// filters match everything.
func filterSuggestions(in []suggest.Suggestion, day, location string) []suggest.Suggestion {
	if day == "" && location == "" {
		return in
	}
	day = studio.NormalizeDay(day)
	out := make([]suggest.Suggestion, 0, len(in))
	for _, s := range in {
		if day != "" && studio.NormalizeDay(s.Suggested.Day) != day {
			continue
		}
		if location != "" && !strings.EqualFold(s.Suggested.Location, location) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// runRecord converts a bundle into a history row.
func runRecord(bundle *optimizer.Bundle, data *studioData, command string) *store.Run {
	run := &store.Run{
		ID:              bundle.RunID,
		CreatedAt:       bundle.CreatedAt,
		Command:         command,
		Version:         appVersion,
		WindowFrom:      bundle.Window.From,
		WindowTo:        bundle.Window.To,
		ScheduleSize:    len(data.Schedule),
		SessionCount:    len(data.Sessions),
		RuleCount:       bundle.RuleCount,
		AdviceCount:     bundle.AdviceCount,
		AttendanceDelta: bundle.Result.ProjectedImpact.AttendanceDelta,
		FillRateDelta:   bundle.Result.ProjectedImpact.AvgFillRateDelta,
	}
	if bundle.AdvisorError != nil {
		run.AdvisorCode = string(bundle.AdvisorError.Code)
		run.AdvisorMessage = bundle.AdvisorError.Message
	}
	return run
}

// saveBundle records the run and returns the review statuses known so far.
func saveBundle(bundle *optimizer.Bundle, data *studioData, command string) (map[string]string, error) {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.SaveRun(runRecord(bundle, data, command), bundle.Result.Suggestions); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}
	logger.WithField("run_id", bundle.RunID).Debug("run saved")

	reviewed, err := db.ReviewedStatuses()
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

// loadReviewed reads review statuses when a history database already
// exists. It never creates one.
func loadReviewed() map[string]string {
	path := config.DBPath()
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	db, err := store.Open(path)
	if err != nil {
		logger.Debugf("history database unavailable: %v", err)
		return nil
	}
	defer func() { _ = db.Close() }()

	reviewed, err := db.ReviewedStatuses()
	if err != nil {
		logger.Debugf("reading review statuses: %v", err)
		return nil
	}
	return reviewed
}

// renderAdvisorError explains why the advisor contributed nothing.
func renderAdvisorError(e *optimizer.AdvisorError) {
	if e == nil {
		return
	}
	where := ""
	if e.Location != "" {
		where = " for " + e.Location
	}
	fmt.Printf(" %s advisor%s: %s (%s)\n\n",
		output.StyleWarning.Render("!"), where, e.Message, e.Code)
}
