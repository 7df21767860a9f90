package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/studiowatch/internal/config"
	"github.com/blackwell-systems/studiowatch/internal/output"
	"github.com/blackwell-systems/studiowatch/internal/store"
)

var (
	historyLimit     int
	historyOlderThan int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved optimization runs and review their suggestions",
	Long: `Saved runs come from 'optimize --save' and 'advise --save'. Each stored
suggestion carries a review status (open, accepted, rejected). Reviewing only
records the decision; studiowatch never edits the schedule.

Examples:
  studiowatch history
  studiowatch history show 3f2a9c1e
  studiowatch history accept 12 14
  studiowatch history reject 13
  studiowatch history status accepted
  studiowatch history prune --older-than 180`,
	Args: cobra.NoArgs,
	RunE: runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show the suggestions recorded for a run (default: latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistoryShow,
}

var historyAcceptCmd = &cobra.Command{
	Use:   "accept <suggestion-row>...",
	Short: "Mark stored suggestions as accepted",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatuses(args, store.StatusAccepted)
	},
}

var historyRejectCmd = &cobra.Command{
	Use:   "reject <suggestion-row>...",
	Short: "Mark stored suggestions as rejected; watch mode stops alerting on them",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatuses(args, store.StatusRejected)
	},
}

var historyReopenCmd = &cobra.Command{
	Use:   "reopen <suggestion-row>...",
	Short: "Clear the review decision on stored suggestions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatuses(args, store.StatusOpen)
	},
}

var historyStatusCmd = &cobra.Command{
	Use:   "status <open|accepted|rejected>",
	Short: "List stored suggestions with a review status across all runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryStatus,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than a number of days",
	Args:  cobra.NoArgs,
	RunE:  runHistoryPrune,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list (0 for all)")
	historyPruneCmd.Flags().IntVar(&historyOlderThan, "older-than", 180, "Delete runs created more than this many days ago")
	historyCmd.AddCommand(historyShowCmd, historyAcceptCmd, historyRejectCmd, historyReopenCmd, historyStatusCmd, historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory loads config and opens the history database.
func openHistory() (*store.DB, error) {
	if _, err := loadConfig(); err != nil {
		return nil, err
	}
	db, err := store.Open(config.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	return db, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if flagJSON {
		if runs == nil {
			runs = []store.Run{}
		}
		return printJSON(runs)
	}
	renderRuns(runs)
	return nil
}

// historyShowOutput is the JSON form of 'history show'.
type historyShowOutput struct {
	Run         *store.Run               `json:"run"`
	Suggestions []store.StoredSuggestion `json:"suggestions"`
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var run *store.Run
	if len(args) == 0 {
		run, err = db.GetLatestRun()
	} else {
		var id string
		if id, err = db.ResolveRunID(args[0]); err == nil && id != "" {
			run, err = db.GetRun(id)
		}
	}
	if err != nil {
		return err
	}
	if run == nil {
		if len(args) == 0 {
			return fmt.Errorf("no runs recorded yet")
		}
		return fmt.Errorf("run %s not found", args[0])
	}

	stored, err := db.GetSuggestions(run.ID)
	if err != nil {
		return fmt.Errorf("loading suggestions: %w", err)
	}

	if flagJSON {
		if stored == nil {
			stored = []store.StoredSuggestion{}
		}
		return printJSON(historyShowOutput{Run: run, Suggestions: stored})
	}

	fmt.Println(output.Section(fmt.Sprintf("Run %s", run.ID)))
	fmt.Printf(" %s %s (%s)\n", output.StyleLabel.Render("Recorded"), run.CreatedAt.Local().Format("2006-01-02 15:04"), output.Ago(run.CreatedAt))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Command"), run.Command)
	if !run.WindowFrom.IsZero() {
		fmt.Printf(" %s %s to %s\n", output.StyleLabel.Render("Window"), run.WindowFrom.Format("2006-01-02"), run.WindowTo.Format("2006-01-02"))
	}
	fmt.Printf(" %s %s classes, %s sessions\n", output.StyleLabel.Render("Data"), output.Count(run.ScheduleSize), output.Count(run.SessionCount))
	fmt.Printf(" %s %s\n", output.StyleLabel.Render("Attendance"), output.TrendArrow(run.AttendanceDelta, true))
	if run.AdvisorCode != "" {
		fmt.Printf(" %s %s (%s)\n", output.StyleLabel.Render("Advisor"), run.AdvisorMessage, run.AdvisorCode)
	}

	renderStored(stored)
	return nil
}

// renderStored prints stored suggestions with their row numbers so they can
// be reviewed.
func renderStored(stored []store.StoredSuggestion) {
	fmt.Println(output.Section("Suggestions"))
	if len(stored) == 0 {
		fmt.Println()
		fmt.Println(" None.")
		return
	}
	t := output.NewTable("Row", "Priority", "Type", "Class", "Change", "Status")
	for _, s := range stored {
		class := "(new)"
		if s.Suggestion.Original != nil {
			class = describeClass(*s.Suggestion.Original)
		}
		t.AddRow(
			strconv.FormatInt(s.RowID, 10),
			output.Priority(s.Suggestion.Priority),
			string(s.Suggestion.Type),
			class,
			describeClass(s.Suggestion.Suggested),
			statusLabel(s.Status),
		)
	}
	t.Print()
	fmt.Println()
}

func statusLabel(status string) string {
	switch status {
	case store.StatusAccepted:
		return output.StyleSuccess.Render(status)
	case store.StatusRejected:
		return output.StyleError.Render(status)
	default:
		return output.StyleMuted.Render(status)
	}
}

func setStatuses(args []string, status string) error {
	rows := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid suggestion row %q", a)
		}
		rows = append(rows, id)
	}

	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	for _, id := range rows {
		if err := db.SetSuggestionStatus(id, status); err != nil {
			return err
		}
		if !flagJSON {
			fmt.Printf(" %s suggestion %d %s\n", output.StyleSuccess.Render("✓"), id, status)
		}
	}
	if flagJSON {
		return printJSON(map[string]any{"rows": rows, "status": status})
	}
	return nil
}

func runHistoryStatus(cmd *cobra.Command, args []string) error {
	if !store.ValidStatus(args[0]) {
		return fmt.Errorf("unknown status %q (want open, accepted, or rejected)", args[0])
	}
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	stored, err := db.GetSuggestionsByStatus(args[0])
	if err != nil {
		return err
	}
	if flagJSON {
		if stored == nil {
			stored = []store.StoredSuggestion{}
		}
		return printJSON(stored)
	}
	renderStored(stored)
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	if historyOlderThan <= 0 {
		return fmt.Errorf("--older-than must be positive")
	}
	db, err := openHistory()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	cutoff := time.Now().AddDate(0, 0, -historyOlderThan)
	n, err := db.DeleteRunsBefore(cutoff)
	if err != nil {
		return fmt.Errorf("pruning runs: %w", err)
	}
	if flagJSON {
		return printJSON(map[string]any{"deleted": n})
	}
	fmt.Printf(" Deleted %s runs older than %d days\n", output.Count(int(n)), historyOlderThan)
	return nil
}
