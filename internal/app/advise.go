package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/studiowatch/internal/advisor"
	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/optimizer"
	"github.com/blackwell-systems/studiowatch/internal/studio"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

var (
	adviseLocation string
	adviseDay      string
	adviseSave     bool
)

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Ask the advisor for suggestions at one location",
	Long: `Send the schedule and profiles for one location (optionally one day) to
the configured text-generation advisor and print only its suggestions. Rule
suggestions are not included; use 'optimize --advisor' for the merged view.

Requires advisor.api_key, STUDIOWATCH_ADVISOR_API_KEY, or the provider's own
key variable (ANTHROPIC_API_KEY / OPENAI_API_KEY).

Examples:
  studiowatch advise --location Downtown
  studiowatch advise --location Downtown --day Saturday --save`,
	RunE: runAdvise,
}

func init() {
	adviseCmd.Flags().StringVar(&adviseLocation, "location", "", "Location to ask about (required)")
	adviseCmd.Flags().StringVar(&adviseDay, "day", "", "Limit the request to one weekday")
	adviseCmd.Flags().BoolVar(&adviseSave, "save", false, "Record the advice in the history database")
	_ = adviseCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(adviseCmd)
}

func runAdvise(cmd *cobra.Command, args []string) error {
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
	adv, err := newAdvisor(cfg)
	if err != nil {
		return err
	}

	window := profileWindow(cfg)
	profiles := analyzer.BuildProfiles(data.Sessions, window.From, window.To)
	day := studio.NormalizeDay(adviseDay)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	advised, err := adv.Advise(ctx, advisor.Request{
		Day:      day,
		Location: adviseLocation,
		Schedule: data.Schedule,
		Profiles: profiles,
	})
	if err != nil {
		var ae *advisor.Error
		if errors.As(err, &ae) {
			return fmt.Errorf("advisor %s: %s", ae.Code, ae.Message)
		}
		return err
	}

	octx := &suggest.OptimizationContext{
		Schedule: data.Schedule,
		Config:   constraints,
		Profiles: profiles,
	}
	bundle := &optimizer.Bundle{
		RunID:       uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Window:      window,
		Profiles:    profiles,
		Result:      optimizer.Merge(octx, nil, advised),
		AdviceCount: len(advised),
	}

	var reviewed map[string]string
	if adviseSave {
		if reviewed, err = saveBundle(bundle, data, "advise"); err != nil {
			return err
		}
	} else {
		reviewed = loadReviewed()
	}

	if flagJSON {
		return printJSON(optimizeOutput{Bundle: bundle, Saved: adviseSave})
	}

	renderSuggestions(bundle.Result.Suggestions, reviewed)
	renderResult(bundle.Result)
	return nil
}
