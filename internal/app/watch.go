package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/studiowatch/internal/config"
	"github.com/blackwell-systems/studiowatch/internal/logger"
	"github.com/blackwell-systems/studiowatch/internal/store"
	"github.com/blackwell-systems/studiowatch/internal/watcher"
)

var (
	watchDaemon   bool
	watchInterval string
	watchStop     bool
	watchQuiet    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-optimize when the data changes and alert on new suggestions",
	Long: `Run a monitor that checks the sessions and schedule files at an
interval. When either file changes the schedule is re-optimized, and new
high-priority suggestions, fill-rate drops, and resolved suggestions raise
desktop notifications and/or terminal alerts. Suggestions rejected with
'studiowatch history reject' never alert.

Examples:
  studiowatch watch                    # run in foreground (ctrl-c to stop)
  studiowatch watch --daemon           # run in background, write PID file
  studiowatch watch --interval 15m     # check every 15 minutes (default: watch.interval)
  studiowatch watch --stop             # stop the background daemon`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "Run in background mode (write PID file, log to file)")
	watchCmd.Flags().StringVar(&watchInterval, "interval", "", "Check interval as duration string (e.g. 5m, 1h)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "Stop a running background daemon")
	watchCmd.Flags().BoolVar(&watchQuiet, "quiet", false, "Suppress terminal output, only send notifications")
	rootCmd.AddCommand(watchCmd)
}

// pidFilePath returns the path to the daemon PID file.
func pidFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.pid")
}

// logFilePath returns the path to the daemon log file.
func logFilePath() string {
	return filepath.Join(config.ConfigDir(), "watch.log")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchStop {
		return stopDaemon()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interval := cfg.Watch.Interval
	if watchInterval != "" {
		if interval, err = time.ParseDuration(watchInterval); err != nil {
			return fmt.Errorf("invalid interval %q: %w", watchInterval, err)
		}
	}
	if interval < 30*time.Second {
		return fmt.Errorf("interval must be at least 30s, got %s", interval)
	}

	opts, err := watchOptions(cfg, interval)
	if err != nil {
		return err
	}

	if watchDaemon {
		return runDaemon(opts)
	}

	return runForeground(opts)
}

// watchOptions builds watcher options from config, including the suggestions
// a reviewer has already rejected.
func watchOptions(cfg *config.Config, interval time.Duration) (watcher.Options, error) {
	constraints, err := cfg.Constraints()
	if err != nil {
		return watcher.Options{}, err
	}
	return watcher.Options{
		SessionsPath: cfg.Data.Sessions,
		SchedulePath: cfg.Data.Schedule,
		Config:       constraints,
		WindowDays:   cfg.WindowDays,
		Interval:     interval,
		Rejected:     rejectedSuggestions(),
	}, nil
}

// rejectedSuggestions reads rejected suggestion IDs from the history
// database, if one exists.
func rejectedSuggestions() map[string]bool {
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
	rejected := make(map[string]bool)
	for id, status := range reviewed {
		if status == store.StatusRejected {
			rejected[id] = true
		}
	}
	return rejected
}

// runForeground runs the watcher in the foreground with live terminal output.
func runForeground(opts watcher.Options) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	go func() {
		<-sigCh
		cancel()
	}()

	if !watchQuiet {
		fmt.Printf("studiowatch watching %s and %s... (checking every %s)\n",
			filepath.Base(opts.SessionsPath), filepath.Base(opts.SchedulePath), opts.Interval)
	}

	alertFn := func(a watcher.Alert) {
		// Send desktop notification.
		_ = watcher.Notify(a)

		// Print to terminal unless quiet mode.
		if !watchQuiet {
			printAlert(a)
		}
	}

	w := watcher.New(opts, alertFn)

	// Take initial snapshot and display baseline.
	initial, err := w.Snapshot()
	if err != nil {
		return fmt.Errorf("initial snapshot failed: %w", err)
	}

	if !watchQuiet {
		fmt.Printf("[%s] %s Baseline: %d sessions, %d classes, %.1f%% average fill, %d high-priority suggestions\n",
			time.Now().Format("15:04:05"),
			checkMark(),
			initial.SessionCount,
			initial.ScheduleSize,
			initial.AvgFillRate,
			len(initial.HighPriority))
	}

	err = w.Run(ctx)
	if err == context.Canceled {
		if !watchQuiet {
			fmt.Println("\nStopped.")
		}
		return nil
	}
	return err
}

// runDaemon sets up PID and log files, then runs the watcher. The actual
// backgrounding should be done by the caller (nohup, &, etc.) since Go
// cannot reliably fork.
func runDaemon(opts watcher.Options) error {
	// Ensure config directory exists.
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	// Check for existing daemon.
	if pid, err := readPID(); err == nil {
		if processExists(pid) {
			return fmt.Errorf("daemon already running (PID %d). Use --stop to stop it", pid)
		}
		// Stale PID file, remove it.
		_ = os.Remove(pidFilePath())
	}

	// Write PID file.
	pid := os.Getpid()
	if err := os.WriteFile(pidFilePath(), []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer func() { _ = os.Remove(pidFilePath()) }()

	// Open log file for output.
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	go func() {
		<-sigCh
		cancel()
	}()

	writeLog(logFile, "studiowatch daemon started (PID %d, interval %s)", pid, opts.Interval)

	alertFn := func(a watcher.Alert) {
		// Send desktop notification.
		_ = watcher.Notify(a)

		// Log to file.
		writeLog(logFile, "[%s] %s: %s", a.Level, a.Title, a.Message)
	}

	w := watcher.New(opts, alertFn)

	err = w.Run(ctx)
	if err == context.Canceled {
		writeLog(logFile, "daemon stopped")
		return nil
	}
	return err
}

// readPID reads the daemon PID from the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(pidFilePath())
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(data))
}

// writeLog writes a timestamped line to the log file.
func writeLog(f *os.File, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(f, "[%s] %s\n", timestamp, msg)
}

// printAlert formats and prints an alert to the terminal.
func printAlert(a watcher.Alert) {
	timestamp := a.Time.Format("15:04:05")
	icon := alertIcon(a.Level)
	fmt.Printf("[%s] %s %s\n", timestamp, icon, a.Title)
	if a.Message != "" {
		fmt.Printf("         %s\n", a.Message)
	}
}

// alertIcon returns the terminal indicator for an alert level.
func alertIcon(level string) string {
	switch level {
	case "critical":
		return "\xf0\x9f\x94\xb4" // red circle
	case "warning":
		return "\xe2\x9a\xa0\xef\xb8\x8f" // warning sign
	case "info":
		return "\xe2\x9c\x93" // check mark
	default:
		return " "
	}
}

// checkMark returns a terminal check mark indicator.
func checkMark() string {
	return "\xe2\x9c\x93"
}
