package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/studiowatch/internal/config"
	"github.com/blackwell-systems/studiowatch/internal/dataset"
	"github.com/blackwell-systems/studiowatch/internal/output"
	"github.com/blackwell-systems/studiowatch/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check whether the studiowatch setup is healthy",
	Long: `Run a series of health checks against the studiowatch configuration,
the attendance and schedule files, and the history database. Prints a
pass/fail line for each check and a summary of how many checks passed.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorCheck holds the result of a single health check.
type doctorCheck struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// doctorOutput is the JSON-serializable result of the doctor command.
type doctorOutput struct {
	Checks      []doctorCheck `json:"checks"`
	PassedCount int           `json:"passed"`
	TotalCount  int           `json:"total"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	if flagNoColor {
		output.SetNoColor(true)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	// Doctor loads without validating so a bad config is reported as a
	// failed check instead of aborting.
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	checks := []doctorCheck{
		checkConfig(cfg),
		checkSessions(cfg.Data.Sessions),
		checkSchedule(cfg.Data.Schedule),
		checkDatabase(),
		checkWatchDaemon(),
		checkAdvisorKey(cfg.Advisor),
	}

	passed := 0
	for _, c := range checks {
		if c.Passed {
			passed++
		}
	}

	if flagJSON {
		return printJSON(doctorOutput{
			Checks:      checks,
			PassedCount: passed,
			TotalCount:  len(checks),
		})
	}

	fmt.Println(output.Section("Doctor"))
	fmt.Println()

	for _, c := range checks {
		renderDoctorCheck(c)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d/%d checks passed", passed, len(checks))
	if passed == len(checks) {
		fmt.Printf(" %s\n\n", output.StyleSuccess.Render(summary))
	} else {
		fmt.Printf(" %s\n\n", output.StyleWarning.Render(summary))
	}

	return nil
}

// renderDoctorCheck prints a single check result line.
func renderDoctorCheck(c doctorCheck) {
	var indicator string
	if c.Passed {
		indicator = output.StyleSuccess.Render("✓")
	} else {
		indicator = output.StyleWarning.Render("✗")
	}
	label := output.StyleBold.Render(c.Name)
	detail := output.StyleMuted.Render(c.Message)
	fmt.Printf("  %s  %-30s %s\n", indicator, label, detail)
}

func checkConfig(cfg *config.Config) doctorCheck {
	if err := cfg.Validate(); err != nil {
		return doctorCheck{Name: "Configuration", Message: err.Error()}
	}
	return doctorCheck{Name: "Configuration", Passed: true, Message: "valid"}
}

// checkSessions verifies the attendance history loads and is not empty.
func checkSessions(path string) doctorCheck {
	const name = "Attendance history"
	if path == "" {
		return doctorCheck{Name: name, Message: "data.sessions is not set"}
	}
	sessions, err := dataset.LoadSessions(path)
	if err != nil {
		return doctorCheck{Name: name, Message: err.Error()}
	}
	if len(sessions) == 0 {
		return doctorCheck{Name: name, Message: fmt.Sprintf("no sessions in %s", path)}
	}
	return doctorCheck{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s sessions in %s", output.Count(len(sessions)), path),
	}
}

// checkSchedule verifies the current schedule loads.
func checkSchedule(path string) doctorCheck {
	const name = "Schedule"
	if path == "" {
		return doctorCheck{Name: name, Message: "data.schedule is not set"}
	}
	schedule, err := dataset.LoadSchedule(path)
	if err != nil {
		return doctorCheck{Name: name, Message: err.Error()}
	}
	return doctorCheck{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s classes in %s", output.Count(len(schedule)), path),
	}
}

// checkDatabase verifies that the history database exists and opens.
func checkDatabase() doctorCheck {
	const name = "History database"
	dbPath := config.DBPath()
	if _, err := os.Stat(dbPath); err != nil {
		return doctorCheck{
			Name:    name,
			Message: fmt.Sprintf("not found at %s (run 'studiowatch optimize --save' to create)", dbPath),
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return doctorCheck{Name: name, Message: err.Error()}
	}
	defer func() { _ = db.Close() }()

	runs, err := db.ListRuns(0)
	if err != nil {
		return doctorCheck{Name: name, Message: err.Error()}
	}
	return doctorCheck{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s (%d runs)", dbPath, len(runs)),
	}
}

// checkWatchDaemon checks whether the watch daemon PID file exists and the process is running.
func checkWatchDaemon() doctorCheck {
	const name = "Watch daemon"
	pid, err := readPID()
	if errors.Is(err, fs.ErrNotExist) {
		return doctorCheck{Name: name, Message: "not running (no PID file)"}
	}
	if err != nil {
		return doctorCheck{Name: name, Message: fmt.Sprintf("invalid PID file: %v", err)}
	}
	if !processExists(pid) {
		return doctorCheck{Name: name, Message: fmt.Sprintf("PID %d is not running (stale PID file)", pid)}
	}
	return doctorCheck{Name: name, Passed: true, Message: fmt.Sprintf("running (PID %d)", pid)}
}

// checkAdvisorKey reports whether the advisor has a credential. Config.Load
// already falls back to the provider's own environment variable.
func checkAdvisorKey(a config.Advisor) doctorCheck {
	const name = "Advisor credential"
	provider := a.Provider
	if provider == "" {
		provider = "anthropic"
	}
	if a.APIKey == "" {
		return doctorCheck{
			Name:    name,
			Message: fmt.Sprintf("no %s key configured (needed for 'optimize --advisor' and 'advise')", provider),
		}
	}
	// Show only the first few characters.
	masked := a.APIKey[:min(8, len(a.APIKey))] + "..."
	return doctorCheck{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s key set (%s)", strings.ToLower(provider), masked),
	}
}
