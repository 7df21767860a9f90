package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/studiowatch/internal/analyzer"
	"github.com/blackwell-systems/studiowatch/internal/config"
	"github.com/blackwell-systems/studiowatch/internal/dataset"
	"github.com/blackwell-systems/studiowatch/internal/logger"
	"github.com/blackwell-systems/studiowatch/internal/optimizer"
	"github.com/blackwell-systems/studiowatch/internal/store"
	"github.com/blackwell-systems/studiowatch/internal/studio"
	"github.com/blackwell-systems/studiowatch/internal/suggest"
)

// Server answers MCP requests over stdio with the studio dataset tools.
type Server struct {
	tools        []toolDef
	sessionsPath string
	schedulePath string
	windowDays   int
	constraints  suggest.OptimizationConfig
	db           *store.DB
	now          func() time.Time
}

type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

type toolHandler func(args json.RawMessage) (any, error)

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// toolsCallResult wraps a tool result as MCP text content. Tool failures
// are reported here with IsError set, not as JSON-RPC errors.
type toolsCallResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolListEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// NewServer constructs a Server over the dataset files named in cfg. db may
// be nil, in which case list_runs reports that history is unavailable.
func NewServer(cfg *config.Config, db *store.DB) (*Server, error) {
	constraints, err := cfg.Constraints()
	if err != nil {
		return nil, err
	}
	s := &Server{
		sessionsPath: cfg.Data.Sessions,
		schedulePath: cfg.Data.Schedule,
		windowDays:   cfg.WindowDays,
		constraints:  constraints,
		db:           db,
		now:          time.Now,
	}
	addTools(s)
	return s, nil
}

func (s *Server) registerTool(def toolDef) {
	s.tools = append(s.tools, def)
}

// Run serves requests from r until ctx ends or r reaches EOF.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	return serveLines(ctx, r, w, s.dispatch)
}

func (s *Server) dispatch(_ context.Context, method string, params json.RawMessage) (any, *jsonrpcError) {
	switch method {
	case "initialize":
		return map[string]any{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "studiowatch", "version": "0.1.0"},
		}, nil
	case "tools/list":
		return map[string]any{"tools": s.listTools()}, nil
	case "tools/call":
		var p toolsCallParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &jsonrpcError{Code: codeInvalidParams, Message: "Invalid params"}
		}
		return s.callTool(p), nil
	default:
		return nil, &jsonrpcError{Code: codeMethodNotFound, Message: "Method not found"}
	}
}

func (s *Server) listTools() []toolListEntry {
	entries := make([]toolListEntry, 0, len(s.tools))
	for _, t := range s.tools {
		entries = append(entries, toolListEntry{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return entries
}

func (s *Server) lookupTool(name string) *toolDef {
	for i := range s.tools {
		if s.tools[i].Name == name {
			return &s.tools[i]
		}
	}
	return nil
}

// callTool runs the named tool and renders its result as JSON text.
func (s *Server) callTool(p toolsCallParams) toolsCallResult {
	tool := s.lookupTool(p.Name)
	if tool == nil {
		return errorResult(fmt.Sprintf("unknown tool: %s", p.Name))
	}

	args := p.Arguments
	if args == nil {
		args = json.RawMessage(`{}`)
	}
	result, err := tool.Handler(args)
	if err != nil {
		logger.WithComponent("mcp").WithField("tool", tool.Name).Warnf("tool call failed: %v", err)
		return errorResult(err.Error())
	}

	text, err := json.Marshal(result)
	if err != nil {
		return errorResult(err.Error())
	}
	return toolsCallResult{Content: []mcpContent{{Type: "text", Text: string(text)}}}
}

func errorResult(msg string) toolsCallResult {
	return toolsCallResult{Content: []mcpContent{{Type: "text", Text: msg}}, IsError: true}
}

// Profile kinds accepted by get_profiles.
const (
	kindTrainers  = "trainers"
	kindFormats   = "formats"
	kindTimeSlots = "time_slots"
	kindLocations = "locations"
)

// ProfilesResult holds the requested profiles for the configured window.
type ProfilesResult struct {
	WindowFrom string                               `json:"window_from,omitempty"`
	WindowTo   string                               `json:"window_to,omitempty"`
	Sessions   int                                  `json:"sessions"`
	Trainers   map[string]*analyzer.TrainerProfile  `json:"trainers,omitempty"`
	Formats    map[string]*analyzer.FormatProfile   `json:"formats,omitempty"`
	TimeSlots  map[string]*analyzer.TimeSlotProfile `json:"time_slots,omitempty"`
	Locations  map[string]*analyzer.LocationProfile `json:"locations,omitempty"`
}

// OptimizeResult is the optimize_schedule response.
type OptimizeResult struct {
	Total           int                     `json:"total"`
	Suggestions     []suggest.Suggestion    `json:"suggestions"`
	ProjectedImpact suggest.ProjectedImpact `json:"projected_impact"`
	Insights        []string                `json:"insights"`
}

// ListRunsResult holds recent recorded optimization runs.
type ListRunsResult struct {
	Runs []store.Run `json:"runs"`
}

var (
	profilesSchema = json.RawMessage(`{"type":"object","properties":{"kind":{"type":"string","enum":["trainers","formats","time_slots","locations"],"description":"Profile kind to return (default all)"},"name":{"type":"string","description":"Return only the profile with this name; requires kind"}},"additionalProperties":false}`)
	optimizeSchema = json.RawMessage(`{"type":"object","properties":{"day":{"type":"string","description":"Only suggestions for this weekday"},"location":{"type":"string","description":"Only suggestions for this location"},"limit":{"type":"integer","description":"Maximum suggestions to return"}},"additionalProperties":false}`)
	listRunsSchema = json.RawMessage(`{"type":"object","properties":{"n":{"type":"integer","description":"Number of runs to return (default 10)"}},"additionalProperties":false}`)
)

// addTools registers all MCP tool handlers on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "get_profiles",
		Description: "Trainer, format, time-slot, and location performance profiles built from class history.",
		InputSchema: profilesSchema,
		Handler:     s.handleGetProfiles,
	})
	s.registerTool(toolDef{
		Name:        "optimize_schedule",
		Description: "Ranked schedule change suggestions with projected attendance impact.",
		InputSchema: optimizeSchema,
		Handler:     s.handleOptimizeSchedule,
	})
	s.registerTool(toolDef{
		Name:        "list_runs",
		Description: "Recently recorded optimization runs with suggestion counts.",
		InputSchema: listRunsSchema,
		Handler:     s.handleListRuns,
	})
}

// decodeArgs unmarshals optional tool arguments into v.
func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) window() optimizer.Window {
	return optimizer.LastDays(s.now(), s.windowDays)
}

// handleGetProfiles builds profiles from the sessions file.
func (s *Server) handleGetProfiles(args json.RawMessage) (any, error) {
	var params struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}
	kind := strings.ToLower(strings.TrimSpace(params.Kind))
	switch kind {
	case "", kindTrainers, kindFormats, kindTimeSlots, kindLocations:
	default:
		return nil, fmt.Errorf("unknown profile kind: %s", params.Kind)
	}
	if params.Name != "" && kind == "" {
		return nil, errors.New("name requires kind")
	}

	sessions, err := dataset.LoadSessions(s.sessionsPath)
	if err != nil {
		return nil, err
	}

	w := s.window()
	profiles := analyzer.BuildProfiles(sessions, w.From, w.To)

	result := ProfilesResult{Sessions: len(sessions)}
	if !w.From.IsZero() {
		result.WindowFrom = w.From.Format("2006-01-02")
		result.WindowTo = w.To.Format("2006-01-02")
	}

	if kind == "" || kind == kindTrainers {
		result.Trainers = profiles.Trainers
	}
	if kind == "" || kind == kindFormats {
		result.Formats = profiles.Formats
	}
	if kind == "" || kind == kindTimeSlots {
		result.TimeSlots = profiles.TimeSlots
	}
	if kind == "" || kind == kindLocations {
		result.Locations = profiles.Locations
	}

	if params.Name == "" {
		return result, nil
	}
	return pickProfile(profiles, kind, params.Name)
}

// pickProfile returns a single named profile.
func pickProfile(profiles *analyzer.Profiles, kind, name string) (any, error) {
	var found any
	switch kind {
	case kindTrainers:
		if p := profiles.Trainer(name); p != nil {
			found = p
		}
	case kindFormats:
		if p := profiles.Format(name); p != nil {
			found = p
		}
	case kindTimeSlots:
		for _, p := range profiles.TimeSlots {
			if strings.EqualFold(p.Key, name) {
				found = p
				break
			}
		}
	case kindLocations:
		if p := profiles.Location(name); p != nil {
			found = p
		}
	}
	if found == nil {
		return nil, fmt.Errorf("no %s profile for %q", strings.TrimSuffix(kind, "s"), name)
	}
	return found, nil
}

// handleOptimizeSchedule runs the rule engine over the dataset files.
func (s *Server) handleOptimizeSchedule(args json.RawMessage) (any, error) {
	var params struct {
		Day      string `json:"day"`
		Location string `json:"location"`
		Limit    int    `json:"limit"`
	}
	if err := decodeArgs(args, &params); err != nil {
		return nil, err
	}

	sessions, err := dataset.LoadSessions(s.sessionsPath)
	if err != nil {
		return nil, err
	}
	schedule, err := dataset.LoadSchedule(s.schedulePath)
	if err != nil {
		return nil, err
	}
	schedule = dataset.Enrich(schedule, sessions)

	result := optimizer.Optimize(sessions, schedule, s.constraints, s.window())

	day := studio.NormalizeDay(params.Day)
	filtered := make([]suggest.Suggestion, 0, len(result.Suggestions))
	for _, sg := range result.Suggestions {
		if params.Day != "" && studio.NormalizeDay(sg.Suggested.Day) != day {
			continue
		}
		if params.Location != "" && !strings.EqualFold(sg.Suggested.Location, params.Location) {
			continue
		}
		filtered = append(filtered, sg)
	}
	total := len(filtered)
	if params.Limit > 0 {
		filtered = suggest.Truncate(filtered, params.Limit)
	}

	return OptimizeResult{
		Total:           total,
		Suggestions:     filtered,
		ProjectedImpact: result.ProjectedImpact,
		Insights:        result.Insights,
	}, nil
}

// handleListRuns returns the last N recorded runs, newest first.
func (s *Server) handleListRuns(args json.RawMessage) (any, error) {
	n := 10
	var params struct {
		N *int `json:"n"`
	}
	if err := json.Unmarshal(args, &params); err == nil && params.N != nil {
		n = *params.N
	}
	if n <= 0 {
		n = 10
	}
	if n > 50 {
		n = 50
	}

	if s.db == nil {
		return nil, errors.New("run history is unavailable")
	}
	runs, err := s.db.ListRuns(n)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	if runs == nil {
		runs = []store.Run{}
	}
	return ListRunsResult{Runs: runs}, nil
}
