// Package logger wraps a process-wide logrus logger. Diagnostics go to
// stderr so command output on stdout stays machine readable.
package logger

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type contextKey string

const runIDKey contextKey = "run_id"

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
}

// Setup applies a level name and an output format ("text" or "json").
// Unknown levels fall back to warn.
func Setup(level, format string) {
	parsedLevel, err := logrus.ParseLevel(level)
	if err != nil {
		parsedLevel = logrus.WarnLevel
	}
	log.SetLevel(parsedLevel)

	if format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
		return
	}
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
}

func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Level returns the active level name.
func Level() string {
	return log.GetLevel().String()
}

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

func RunIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey).(string); ok {
		return id
	}
	return ""
}

// FromContext returns an entry tagged with the run ID carried by ctx, if any.
func FromContext(ctx context.Context) *logrus.Entry {
	entry := log.WithFields(logrus.Fields{})
	if id := RunIDFromContext(ctx); id != "" {
		entry = entry.WithField("run_id", id)
	}
	return entry
}

func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return log.WithFields(fields)
}

// WithComponent tags entries with the subsystem that produced them.
func WithComponent(name string) *logrus.Entry {
	return log.WithField("component", name)
}

func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

func Infof(format string, args ...interface{}) {
	log.Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	log.Errorf(format, args...)
}
