package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/blackwell-systems/studiowatch/internal/logger"
)

// Notifier delivers alerts to the desktop. When no desktop notifier is
// installed, or it fails, the alert is written to Fallback instead.
type Notifier struct {
	GOOS     string
	Fallback io.Writer

	lookPath func(name string) (string, error)
	run      func(name string, args ...string) error
}

// NewNotifier returns a Notifier for the running platform that falls back
// to stderr.
func NewNotifier() *Notifier {
	return &Notifier{
		GOOS:     runtime.GOOS,
		Fallback: os.Stderr,
		lookPath: exec.LookPath,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

var defaultNotifier = NewNotifier()

// Notify sends alert through the platform notifier.
func Notify(alert Alert) error {
	return defaultNotifier.Notify(alert)
}

// Notify sends alert with osascript on macOS and notify-send on Linux.
func (n *Notifier) Notify(alert Alert) error {
	name, args := n.command(alert)
	if name == "" {
		return n.fallback(alert)
	}
	if _, err := n.lookPath(name); err != nil {
		return n.fallback(alert)
	}
	if err := n.run(name, args...); err != nil {
		logger.WithComponent("watcher").Debugf("%s failed: %v", name, err)
		return n.fallback(alert)
	}
	return nil
}

// command builds the notifier invocation for alert, or "" when the platform
// has none.
func (n *Notifier) command(alert Alert) (string, []string) {
	switch n.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title "studiowatch" subtitle %q`,
			alert.Message, alert.Title)
		if alert.Level == "critical" {
			script += ` sound name "Basso"`
		}
		return "osascript", []string{"-e", script}
	case "linux":
		return "notify-send", []string{
			"--urgency=" + urgency(alert.Level),
			"--app-name=studiowatch",
			"studiowatch: " + alert.Title,
			alert.Message,
		}
	default:
		return "", nil
	}
}

// urgency maps an alert level to a notify-send urgency.
func urgency(level string) string {
	switch level {
	case "critical":
		return "critical"
	case "warning":
		return "normal"
	default:
		return "low"
	}
}

func (n *Notifier) fallback(alert Alert) error {
	w := n.Fallback
	if w == nil {
		w = os.Stderr
	}
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", alert.Level, alert.Title, alert.Message)
	return err
}
