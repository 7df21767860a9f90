// Package watcher polls the studio dataset files, re-optimizes when they
// change, and emits alerts for newly surfaced high-priority suggestions and
// notable shifts in the schedule.
package watcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/blackwell-systems/studiowatch/internal/dataset"
	"github.com/blackwell-systems/studiowatch/internal/logger"
	"github.com/blackwell-systems/studiowatch/internal/optimizer"
	"github.com/blackwell-systems/studiowatch/internal/stats"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// WatchState captures a point-in-time view of the dataset and its
// optimization result.
type WatchState struct {
	Timestamp       time.Time
	SessionCount    int
	ScheduleSize    int
	AvgFillRate     float64
	Underperforming int
	HighPriority    map[string]suggest.Suggestion // suggestion ID -> suggestion

	sessionsMod time.Time
	scheduleMod time.Time
	result      suggest.Result
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Options configures a Watcher.
type Options struct {
	SessionsPath string
	SchedulePath string
	Config       suggest.OptimizationConfig
	WindowDays   int
	Interval     time.Duration

	// Rejected holds suggestion IDs a reviewer already turned down; they
	// never alert.
	Rejected map[string]bool
}

// Watcher re-optimizes the dataset at a regular interval and emits alerts
// when notable changes are detected.
type Watcher struct {
	opts          Options
	previous      *WatchState
	alertFn       func(Alert)     // callback for emitting alerts
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts
	now           func() time.Time
}

// New creates a Watcher over the dataset files named in opts.
func New(opts Options, alertFn func(Alert)) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Minute
	}
	return &Watcher{
		opts:          opts,
		alertFn:       alertFn,
		lastAlertKeys: make(map[string]bool),
		now:           time.Now,
	}
}

// Run starts the watch loop. It takes an initial snapshot, reports the
// high-priority suggestions already present, then checks at every interval.
// Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	initial, err := w.Snapshot()
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	w.emit(w.dedup(Compare(&WatchState{}, initial, w.opts.Rejected)))
	w.previous = initial

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.emit(w.Check())
		}
	}
}

func (w *Watcher) emit(alerts []Alert) {
	if w.alertFn == nil {
		return
	}
	for _, a := range alerts {
		w.alertFn(a)
	}
}

// Check performs a single check cycle: takes a new snapshot, compares against
// the previous state, updates the previous state, and returns any alerts.
// Identical alerts are suppressed until the underlying data changes.
func (w *Watcher) Check() []Alert {
	curr, err := w.Snapshot()
	if err != nil {
		return []Alert{{
			Level:   "warning",
			Title:   "Snapshot failed",
			Message: fmt.Sprintf("Could not read studio data: %v", err),
			Time:    w.now(),
		}}
	}

	var raw []Alert
	if w.previous != nil {
		raw = Compare(w.previous, curr, w.opts.Rejected)
	}

	alerts := w.dedup(raw)
	w.previous = curr
	return alerts
}

// dedup suppresses alerts with the same level, title, and message as the
// last cycle.
func (w *Watcher) dedup(raw []Alert) []Alert {
	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys
	return alerts
}

// Snapshot loads the dataset and optimizes it. When neither file changed
// since the previous snapshot the previous result is reused.
func (w *Watcher) Snapshot() (*WatchState, error) {
	sessionsMod, err := modTime(w.opts.SessionsPath)
	if err != nil {
		return nil, err
	}
	scheduleMod, err := modTime(w.opts.SchedulePath)
	if err != nil {
		return nil, err
	}

	if p := w.previous; p != nil && p.sessionsMod.Equal(sessionsMod) && p.scheduleMod.Equal(scheduleMod) {
		reused := *p
		reused.Timestamp = w.now()
		return &reused, nil
	}

	sessions, err := dataset.LoadSessions(w.opts.SessionsPath)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	schedule, err := dataset.LoadSchedule(w.opts.SchedulePath)
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}
	schedule = dataset.Enrich(schedule, sessions)

	now := w.now()
	result := optimizer.Optimize(sessions, schedule, w.opts.Config, optimizer.LastDays(now, w.opts.WindowDays))

	state := &WatchState{
		Timestamp:    now,
		SessionCount: len(sessions),
		ScheduleSize: len(schedule),
		HighPriority: make(map[string]suggest.Suggestion),
		sessionsMod:  sessionsMod,
		scheduleMod:  scheduleMod,
		result:       result,
	}

	fills := make([]float64, 0, len(schedule))
	for _, c := range schedule {
		if c.SessionCount > 0 {
			fills = append(fills, c.FillRate)
		}
	}
	state.AvgFillRate = stats.Round1(stats.Average(fills))

	for _, s := range result.Suggestions {
		if s.Priority == suggest.PriorityHigh {
			state.HighPriority[s.ID] = s
		}
		if s.Original != nil && (s.Type == suggest.TypeReplaceClass || s.Type == suggest.TypeReplaceTrainer) {
			state.Underperforming++
		}
	}

	logger.WithComponent("watcher").
		WithField("sessions", state.SessionCount).
		WithField("suggestions", len(result.Suggestions)).
		Debug("snapshot taken")

	return state, nil
}

// Result returns the optimization result behind the snapshot.
func (s *WatchState) Result() suggest.Result {
	return s.result
}

func modTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("checking %s: %w", path, err)
	}
	return info.ModTime(), nil
}
