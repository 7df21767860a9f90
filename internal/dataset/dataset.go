// Package dataset loads historical sessions and the weekly schedule from JSON
// or YAML files. It is glue for the CLI; the engine itself takes plain slices.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// dateLayouts are tried in order when parsing session dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
}

type rawSession struct {
	Trainer       string  `json:"trainer" yaml:"trainer"`
	Format        string  `json:"format" yaml:"format"`
	Location      string  `json:"location" yaml:"location"`
	Day           string  `json:"day" yaml:"day"`
	Time          string  `json:"time" yaml:"time"`
	Date          string  `json:"date" yaml:"date"`
	Capacity      int     `json:"capacity" yaml:"capacity"`
	CheckedIn     int     `json:"checked_in" yaml:"checked_in"`
	Booked        int     `json:"booked" yaml:"booked"`
	LateCancelled int     `json:"late_cancelled" yaml:"late_cancelled"`
	Revenue       float64 `json:"revenue" yaml:"revenue"`
}

type sessionFile struct {
	Sessions []rawSession `json:"sessions" yaml:"sessions"`
}

type scheduleFile struct {
	Schedule []studio.ScheduledClass `json:"schedule" yaml:"schedule"`
}

// LoadSessions reads historical sessions from path. The file holds either a
// bare list or an object with a "sessions" key. A session without a day
// takes it from its date.
func LoadSessions(path string) ([]studio.HistoricalSession, error) {
	var raw []rawSession
	if err := decodeFile(path, &raw, func() interface{} { return &sessionFile{} }, func(v interface{}) {
		raw = v.(*sessionFile).Sessions
	}); err != nil {
		return nil, err
	}

	out := make([]studio.HistoricalSession, 0, len(raw))
	for i, r := range raw {
		s := studio.HistoricalSession{
			Trainer:       strings.TrimSpace(r.Trainer),
			Format:        strings.TrimSpace(r.Format),
			Location:      strings.TrimSpace(r.Location),
			Day:           r.Day,
			Time:          r.Time,
			Capacity:      r.Capacity,
			CheckedIn:     r.CheckedIn,
			Booked:        r.Booked,
			LateCancelled: r.LateCancelled,
			Revenue:       r.Revenue,
		}
		if r.Date != "" {
			d, err := ParseDate(r.Date)
			if err != nil {
				return nil, fmt.Errorf("session %d in %s: %w", i, path, err)
			}
			s.Date = d
			if s.Day == "" {
				s.Day = d.Weekday().String()
			}
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadSchedule reads the weekly schedule from path: a bare list or an object
// with a "schedule" key. Classes without an ID get one from their position.
func LoadSchedule(path string) ([]studio.ScheduledClass, error) {
	var classes []studio.ScheduledClass
	if err := decodeFile(path, &classes, func() interface{} { return &scheduleFile{} }, func(v interface{}) {
		classes = v.(*scheduleFile).Schedule
	}); err != nil {
		return nil, err
	}
	for i := range classes {
		if classes[i].ID == "" {
			classes[i].ID = fmt.Sprintf("class-%d", i+1)
		}
	}
	return classes, nil
}

// ParseDate accepts RFC 3339 timestamps and the common date-only layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// decodeFile unmarshals path into list, falling back to the wrapped object
// form when the document is not a list.
func decodeFile(path string, list interface{}, wrapper func() interface{}, unwrap func(interface{})) error {
	unmarshal, err := unmarshalerFor(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	listErr := unmarshal(data, list)
	if listErr == nil {
		return nil
	}
	w := wrapper()
	if err := unmarshal(data, w); err != nil {
		return fmt.Errorf("parsing %s: %w", path, listErr)
	}
	unwrap(w)
	return nil
}

func unmarshalerFor(path string) (func([]byte, interface{}) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
}
