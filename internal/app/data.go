package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/blackwell-systems/studiowatch/internal/advisor"
	"github.com/blackwell-systems/studiowatch/internal/config"
	"github.com/blackwell-systems/studiowatch/internal/dataset"
	"github.com/blackwell-systems/studiowatch/internal/optimizer"
	"github.com/blackwell-systems/studiowatch/internal/studio"
)

// studioData is the loaded dataset with the schedule enriched from history.
type studioData struct {
	Sessions []studio.HistoricalSession
	Schedule []studio.ScheduledClass
}

// loadSessions reads only the attendance history.
func loadSessions(cfg *config.Config) ([]studio.HistoricalSession, error) {
	sessions, err := dataset.LoadSessions(cfg.Data.Sessions)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	return sessions, nil
}

// loadData reads both dataset files.
func loadData(cfg *config.Config) (*studioData, error) {
	sessions, err := loadSessions(cfg)
	if err != nil {
		return nil, err
	}
	schedule, err := dataset.LoadSchedule(cfg.Data.Schedule)
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}
	return &studioData{
		Sessions: sessions,
		Schedule: dataset.Enrich(schedule, sessions),
	}, nil
}

// profileWindow is the configured history window ending today.
func profileWindow(cfg *config.Config) optimizer.Window {
	return optimizer.LastDays(time.Now(), cfg.WindowDays)
}

// newAdvisor builds the advisor from config. A missing credential yields an
// advisor that reports API_UNAVAILABLE rather than an error.
func newAdvisor(cfg *config.Config) (*advisor.Advisor, error) {
	client, err := advisor.NewClient(advisor.ClientConfig{
		Provider: cfg.Advisor.Provider,
		Model:    cfg.Advisor.Model,
		APIKey:   cfg.Advisor.APIKey,
		BaseURL:  cfg.Advisor.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return advisor.New(client, advisor.Options{RequestsPerMinute: cfg.Advisor.RequestsPerMinute}), nil
}

// printJSON writes v to stdout, indented.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
